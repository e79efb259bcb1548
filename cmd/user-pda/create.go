package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Abdullah1738/user-pda/internal/config"
	"github.com/Abdullah1738/user-pda/internal/logging"
	"github.com/Abdullah1738/user-pda/offchain/solana"
	"github.com/Abdullah1738/user-pda/offchain/solanafees"
	"github.com/Abdullah1738/user-pda/offchain/solanarpc"
	"github.com/Abdullah1738/user-pda/program/userpda"
)

const (
	confirmPollInterval = 500 * time.Millisecond

	// Applied when --cu-price=auto is given without --cu-limit.
	autoComputeUnitLimit uint32 = 50_000
	autoFeePercentile           = 75
)

var errInsufficientBalance = errors.New("insufficient balance")

type createOptions struct {
	ConfigPath string
	Budget     computeBudget
	AutoPrice  bool
	SkipCheck  bool
}

func cmdCreate(argv []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		opts    createOptions
		cuLimit uint
		cuPrice string
	)
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to TOML config")
	fs.UintVar(&cuLimit, "cu-limit", 0, "Compute unit limit (0 = cluster default)")
	fs.StringVar(&cuPrice, "cu-price", "0", "Priority fee in micro-lamports per compute unit, or auto")
	fs.BoolVar(&opts.SkipCheck, "skip-balance-check", false, "Send without checking the payer balance first")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if len(fs.Args()) != 0 {
		return fmt.Errorf("unexpected args: %v", fs.Args())
	}
	if cuLimit > 1_400_000 {
		return fmt.Errorf("--cu-limit must be <= 1400000")
	}
	opts.Budget.Limit = uint32(cuLimit)
	if cuPrice == "auto" {
		opts.AutoPrice = true
	} else {
		v, err := strconv.ParseUint(cuPrice, 10, 64)
		if err != nil {
			return fmt.Errorf("parse --cu-price: %w", err)
		}
		opts.Budget.MicroLamports = v
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logging.New("user-pda", os.Stderr, logging.Options{Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rpc := solanarpc.New(cfg.RPCURL, nil)
	return runCreate(ctx, log, rpc, cfg, opts, stdout)
}

func runCreate(ctx context.Context, log zerolog.Logger, rpc *solanarpc.Client, cfg config.Config, opts createOptions, stdout io.Writer) error {
	priv, payer, err := loadKeypair(cfg.PayerKeypair)
	if err != nil {
		return err
	}
	log.Info().Str("payer", payer.Base58()).Str("program", cfg.ProgramID.Base58()).Msg("creating user account")

	if cfg.AirdropLamports > 0 {
		sig, err := rpc.RequestAirdrop(ctx, payer.Base58(), cfg.AirdropLamports)
		if err != nil {
			return fmt.Errorf("airdrop: %w", err)
		}
		if err := rpc.WaitForConfirmation(ctx, sig, cfg.ConfirmTimeout, confirmPollInterval); err != nil {
			return fmt.Errorf("airdrop: %w", err)
		}
		log.Info().Str("signature", sig).Uint64("lamports", cfg.AirdropLamports).Msg("airdrop confirmed")
	}

	if opts.AutoPrice {
		price, err := rpc.PriorityFeeEstimate(ctx, []solana.Pubkey{payer, cfg.ProgramID}, autoFeePercentile)
		if err != nil {
			return fmt.Errorf("estimate priority fee: %w", err)
		}
		opts.Budget.MicroLamports = price
		if opts.Budget.Limit == 0 {
			opts.Budget.Limit = autoComputeUnitLimit
		}
		log.Debug().Uint64("micro_lamports", price).Uint32("cu_limit", opts.Budget.Limit).Msg("priority fee estimated")
	}

	if !opts.SkipCheck {
		est, err := solanafees.Estimate(solanafees.DefaultLamportsPerSignature, 1, opts.Budget.Limit, opts.Budget.MicroLamports)
		if err != nil {
			return err
		}
		need, err := solanafees.CreateUserAccountCost(est, userpda.AccountLamports)
		if err != nil {
			return err
		}
		have, err := rpc.BalanceLamports(ctx, payer.Base58())
		if err != nil {
			return fmt.Errorf("get balance: %w", err)
		}
		log.Debug().Str("fee", est.String()).Uint64("need", need).Uint64("have", have).Msg("balance preflight")
		if have < need {
			return fmt.Errorf("%w: need %d lamports, have %d", errInsufficientBalance, need, have)
		}
	}

	blockhash, err := rpc.LatestBlockhash(ctx)
	if err != nil {
		return fmt.Errorf("get blockhash: %w", err)
	}
	raw, derived, err := buildCreateTransaction(cfg.ProgramID, priv, blockhash, opts.Budget)
	if err != nil {
		return err
	}

	sig, err := rpc.SendTransaction(ctx, raw, false)
	if err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}
	log.Info().Str("signature", sig).Str("pda", derived.Address.Base58()).Msg("transaction sent")

	if err := rpc.WaitForConfirmation(ctx, sig, cfg.ConfirmTimeout, confirmPollInterval); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "pda=%s\n", derived.Address.Base58())
	fmt.Fprintf(stdout, "bump=%d\n", derived.Bump)
	fmt.Fprintf(stdout, "signature=%s\n", sig)
	return nil
}
