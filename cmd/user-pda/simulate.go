package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Abdullah1738/user-pda/internal/localnet"
	"github.com/Abdullah1738/user-pda/internal/logging"
	"github.com/Abdullah1738/user-pda/offchain/solana"
	"github.com/Abdullah1738/user-pda/program/system"
	"github.com/Abdullah1738/user-pda/program/userpda"
)

// simulateProgramID is the program id used when --program-id is not given.
const simulateProgramID = "UserPDA111111111111111111111111111111111111"

const simulateAirdropLamports uint64 = 2_000_000_000

type simulateOptions struct {
	Users       int
	Concurrency int
	ProgramID   solana.Pubkey
}

type simulateReport struct {
	Created       int
	AlreadyExists int
	Fees          uint64
}

func cmdSimulate(argv []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		opts         simulateOptions
		programIDStr string
		logLevel     string
	)
	fs.IntVar(&opts.Users, "users", 8, "Number of random users")
	fs.IntVar(&opts.Concurrency, "concurrency", 4, "Concurrent users")
	fs.StringVar(&programIDStr, "program-id", simulateProgramID, "Program id to deploy the program under")
	fs.StringVar(&logLevel, "log-level", "warn", "Log level")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if len(fs.Args()) != 0 {
		return fmt.Errorf("unexpected args: %v", fs.Args())
	}
	if opts.Users <= 0 {
		return fmt.Errorf("--users must be > 0")
	}
	if opts.Concurrency <= 0 {
		return fmt.Errorf("--concurrency must be > 0")
	}
	programID, err := solana.ParsePubkey(programIDStr)
	if err != nil {
		return fmt.Errorf("parse --program-id: %w", err)
	}
	opts.ProgramID = programID

	log := logging.New("user-pda", os.Stderr, logging.Options{Level: logLevel})
	rep, err := runSimulate(context.Background(), log, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "users=%d\n", opts.Users)
	fmt.Fprintf(stdout, "created=%d\n", rep.Created)
	fmt.Fprintf(stdout, "already_exists=%d\n", rep.AlreadyExists)
	fmt.Fprintf(stdout, "fees_lamports=%d\n", rep.Fees)
	return nil
}

// runSimulate creates each user's account twice against an in-process
// bank. The first attempt must create the account, the second must fail
// with an already-exists error and leave it untouched.
func runSimulate(ctx context.Context, log zerolog.Logger, opts simulateOptions) (simulateReport, error) {
	reg := prometheus.NewRegistry()
	metrics := localnet.NewMetrics(reg)
	bank := localnet.New(localnet.WithLogger(log), localnet.WithMetrics(metrics))

	proc := userpda.NewProcessor(userpda.WithLogger(log))
	if err := bank.Deploy(opts.ProgramID, proc.Entrypoint()); err != nil {
		return simulateReport{}, err
	}

	var (
		mu  sync.Mutex
		rep simulateReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i := 0; i < opts.Users; i++ {
		i := i
		g.Go(func() error {
			created, existed, err := simulateUser(gctx, bank, opts.ProgramID)
			if err != nil {
				return fmt.Errorf("user %d: %w", i, err)
			}
			mu.Lock()
			rep.Created += created
			rep.AlreadyExists += existed
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return simulateReport{}, err
	}

	if got := int(testutil.ToFloat64(metrics.AccountsCreated)); got != rep.Created {
		return simulateReport{}, fmt.Errorf("metrics report %d accounts created, counted %d", got, rep.Created)
	}
	rep.Fees = uint64(testutil.ToFloat64(metrics.FeesCollected))
	return rep, nil
}

func simulateUser(ctx context.Context, bank *localnet.Bank, programID solana.Pubkey) (created, existed int, err error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return 0, 0, err
	}
	var payer solana.Pubkey
	copy(payer[:], priv.Public().(ed25519.PublicKey))
	if err := bank.Airdrop(payer, simulateAirdropLamports); err != nil {
		return 0, 0, err
	}

	for attempt := uint64(0); attempt < 2; attempt++ {
		var blockhash [32]byte
		copy(blockhash[:], payer[:])
		binary.LittleEndian.PutUint64(blockhash[24:], attempt)

		raw, derived, err := buildCreateTransaction(programID, priv, blockhash, computeBudget{})
		if err != nil {
			return 0, 0, err
		}
		_, err = bank.ProcessTransaction(ctx, raw)
		switch {
		case err == nil:
			acct, ok := bank.Account(derived.Address)
			if !ok || acct.Owner != programID || uint64(len(acct.Data)) != userpda.AccountSpace || acct.Lamports != userpda.AccountLamports {
				return 0, 0, fmt.Errorf("account %s not created as expected", derived.Address)
			}
			created++
		case errors.Is(err, system.ErrAccountAlreadyExists):
			existed++
		default:
			return 0, 0, err
		}
	}
	return created, existed, nil
}
