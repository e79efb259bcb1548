package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/Abdullah1738/user-pda/internal/config"
	"github.com/Abdullah1738/user-pda/offchain/solana"
	"github.com/Abdullah1738/user-pda/offchain/solanarpc"
	"github.com/Abdullah1738/user-pda/program/userpda"
)

var errAccountMismatch = errors.New("user account does not match expected layout")

func cmdVerify(argv []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configPath string
		userStr    string
	)
	fs.StringVar(&configPath, "config", "", "Path to TOML config")
	fs.StringVar(&userStr, "user", "", "User pubkey (defaults to the configured payer)")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if len(fs.Args()) != 0 {
		return fmt.Errorf("unexpected args: %v", fs.Args())
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.ProgramID.IsZero() {
		return config.ErrMissingProgramID
	}

	var user solana.Pubkey
	if userStr != "" {
		user, err = solana.ParsePubkey(userStr)
		if err != nil {
			return fmt.Errorf("parse --user: %w", err)
		}
	} else {
		if _, user, err = loadKeypair(cfg.PayerKeypair); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return runVerify(ctx, solanarpc.New(cfg.RPCURL, nil), cfg.ProgramID, user, stdout)
}

func runVerify(ctx context.Context, rpc *solanarpc.Client, programID, user solana.Pubkey, stdout io.Writer) error {
	derived, _, err := userpda.DeriveUserAddress(user, programID)
	if err != nil {
		return err
	}
	info, err := rpc.AccountInfo(ctx, derived.Address)
	if err != nil {
		return fmt.Errorf("get account %s: %w", derived.Address, err)
	}
	if info.Owner != programID {
		return fmt.Errorf("%w: owner %s, want %s", errAccountMismatch, info.Owner, programID)
	}
	if uint64(len(info.Data)) != userpda.AccountSpace {
		return fmt.Errorf("%w: data length %d, want %d", errAccountMismatch, len(info.Data), userpda.AccountSpace)
	}
	if info.Lamports < userpda.AccountLamports {
		return fmt.Errorf("%w: lamports %d, want at least %d", errAccountMismatch, info.Lamports, userpda.AccountLamports)
	}

	fmt.Fprintf(stdout, "pda=%s\n", derived.Address.Base58())
	fmt.Fprintf(stdout, "owner=%s\n", info.Owner.Base58())
	fmt.Fprintf(stdout, "lamports=%d\n", info.Lamports)
	fmt.Fprintf(stdout, "space=%d\n", len(info.Data))
	return nil
}
