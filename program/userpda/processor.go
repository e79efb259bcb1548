package userpda

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Abdullah1738/user-pda/offchain/solana"
	"github.com/Abdullah1738/user-pda/program/runtime"
)

// RequiredAccounts is the length of the positional account list
// [payer, target, system program].
const RequiredAccounts = 3

var ErrMissingAccount = errors.New("missing account")

type Processor struct {
	log    zerolog.Logger
	derive DeriveFunc
}

type Option func(*Processor)

func WithLogger(l zerolog.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// WithDeriver replaces the address search. Tests use it to observe derivation.
func WithDeriver(fn DeriveFunc) Option {
	return func(p *Processor) {
		if fn != nil {
			p.derive = fn
		}
	}
}

func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		log:    zerolog.Nop(),
		derive: solana.FindProgramAddress,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Entrypoint returns p as a host dispatch function.
func (p *Processor) Entrypoint() runtime.Entrypoint {
	return p.Process
}

// Process creates the user's account. accounts must start with
// [payer, target, system program]; trailing entries are ignored and data is
// unused.
func (p *Processor) Process(ctx context.Context, host runtime.Host, programID solana.Pubkey, accounts []runtime.AccountInfo, data []byte) error {
	if len(accounts) < RequiredAccounts {
		return fmt.Errorf("%w: got %d accounts, need %d", ErrMissingAccount, len(accounts), RequiredAccounts)
	}
	payer := accounts[0]
	target := accounts[1]

	derived, proof, err := deriveWith(p.derive, UserSeeds(payer.Key), programID)
	if err != nil {
		return err
	}

	p.log.Info().
		Str("pda", derived.Address.Base58()).
		Uint8("bump", derived.Bump).
		Str("user", payer.Key.Base58()).
		Msg("derived user account address")

	req, err := BuildCreationRequest(payer.Key, target.Key, programID)
	if err != nil {
		return err
	}
	return Invoke(ctx, host, req, accounts, proof)
}
