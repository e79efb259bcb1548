// Package localnet is an in-process stand-in for a validator: it holds
// account state, dispatches instructions to deployed programs, and serves
// their signed cross-program invocations into the system program.
package localnet

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Abdullah1738/user-pda/offchain/solana"
	"github.com/Abdullah1738/user-pda/offchain/solanafees"
	"github.com/Abdullah1738/user-pda/program/runtime"
	"github.com/Abdullah1738/user-pda/program/system"
)

var (
	ErrProgramNotFound         = errors.New("program not found")
	ErrMissingAccountInfo      = errors.New("instruction references an account not passed to the program")
	ErrPrivilegeEscalation     = errors.New("writable privilege escalated")
	ErrUnsupportedProgram      = errors.New("cross-program invocation target not supported")
	ErrInsufficientFundsForFee = errors.New("insufficient funds for fee")
	ErrAlreadyProcessed        = errors.New("transaction already processed")
	ErrOverflow                = errors.New("lamports overflow")
)

type Bank struct {
	mu        sync.Mutex
	accounts  map[solana.Pubkey]system.Account
	programs  map[solana.Pubkey]runtime.Entrypoint
	processed map[[64]byte]struct{}

	lamportsPerSignature uint64
	log                  zerolog.Logger
	metrics              *Metrics
}

type Option func(*Bank)

func WithLogger(l zerolog.Logger) Option {
	return func(b *Bank) { b.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(b *Bank) {
		if m != nil {
			b.metrics = m
		}
	}
}

func WithLamportsPerSignature(lamports uint64) Option {
	return func(b *Bank) { b.lamportsPerSignature = lamports }
}

func New(opts ...Option) *Bank {
	b := &Bank{
		accounts:             make(map[solana.Pubkey]system.Account),
		programs:             make(map[solana.Pubkey]runtime.Entrypoint),
		processed:            make(map[[64]byte]struct{}),
		lamportsPerSignature: solanafees.DefaultLamportsPerSignature,
		log:                  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = NewMetrics(nil)
	}
	return b
}

func (b *Bank) Deploy(programID solana.Pubkey, entry runtime.Entrypoint) error {
	if entry == nil {
		return errors.New("nil entrypoint")
	}
	if programID == solana.SystemProgramID {
		return errors.New("cannot replace the system program")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.programs[programID] = entry
	return nil
}

func (b *Bank) Airdrop(pk solana.Pubkey, lamports uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.accounts[pk]
	sum, carry := bits.Add64(a.Lamports, lamports, 0)
	if carry != 0 {
		return ErrOverflow
	}
	a.Lamports = sum
	b.accounts[pk] = a
	return nil
}

func (b *Bank) Account(pk solana.Pubkey) (system.Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[pk]
	return a.Clone(), ok
}

func (b *Bank) Balance(pk solana.Pubkey) uint64 {
	a, _ := b.Account(pk)
	return a.Lamports
}

// Execute runs one top-level instruction. Signer flags on its account metas
// are trusted as given. Either every write of the execution lands or none.
func (b *Bank) Execute(ctx context.Context, ix solana.Instruction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	state := newOverlay(b.accounts)
	if err := b.executeLocked(ctx, state, ix); err != nil {
		return err
	}
	b.commitLocked(state)
	return nil
}

// ProcessTransaction verifies and executes a signed legacy transaction and
// returns its base58 signature. The fee is charged even if an instruction
// fails; instruction effects are all-or-nothing across the transaction.
func (b *Bank) ProcessTransaction(ctx context.Context, raw []byte) (string, error) {
	tx, err := solana.ParseLegacyTransaction(raw)
	if err != nil {
		return "", err
	}
	if len(tx.Signatures) == 0 {
		return "", fmt.Errorf("%w: no signatures", solana.ErrInvalidSignature)
	}
	if err := tx.VerifySignatures(); err != nil {
		return "", err
	}
	sig := solana.Signature(tx.Signatures[0])

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.processed[tx.Signatures[0]]; ok {
		return sig.String(), ErrAlreadyProcessed
	}

	fee, err := solanafees.BaseFeeLamports(b.lamportsPerSignature, uint64(len(tx.Signatures)))
	if err != nil {
		return "", err
	}
	payer := tx.FeePayer()
	payerAcct := b.accounts[payer]
	if payerAcct.Lamports < fee {
		return "", fmt.Errorf("%w: need %d, have %d", ErrInsufficientFundsForFee, fee, payerAcct.Lamports)
	}
	payerAcct.Lamports -= fee
	b.accounts[payer] = payerAcct
	b.processed[tx.Signatures[0]] = struct{}{}
	b.metrics.FeesCollected.Add(float64(fee))

	state := newOverlay(b.accounts)
	for i := range tx.Instructions {
		if err := b.executeLocked(ctx, state, tx.Instruction(i)); err != nil {
			return sig.String(), fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	b.commitLocked(state)
	return sig.String(), nil
}

func (b *Bank) commitLocked(state *overlay) {
	state.commit()
	for _, p := range state.created {
		b.metrics.AccountsCreated.Inc()
		b.metrics.LamportsAllocated.Add(float64(p.Lamports))
	}
}

func (b *Bank) executeLocked(ctx context.Context, state *overlay, ix solana.Instruction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Compute budget limits and prices are not metered here.
	if ix.ProgramID == solana.ComputeBudgetProgramID {
		return nil
	}
	if ix.ProgramID == solana.SystemProgramID {
		signers := make(map[solana.Pubkey]bool, len(ix.Accounts))
		for _, m := range ix.Accounts {
			if m.IsSigner {
				signers[m.Pubkey] = true
			}
		}
		return b.runSystem(state, ix, signers)
	}

	entry, ok := b.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, ix.ProgramID)
	}

	inv := &invocation{bank: b, state: state, programID: ix.ProgramID}
	err := entry(ctx, inv, ix.ProgramID, runtime.Infos(ix.Accounts), ix.Data)
	result := resultOK
	if err != nil {
		result = resultError
	}
	b.metrics.Executions.WithLabelValues(ix.ProgramID.Base58(), result).Inc()
	if err != nil {
		b.log.Debug().Err(err).Str("program", ix.ProgramID.Base58()).Msg("program execution failed")
		return err
	}
	return nil
}

func (b *Bank) runSystem(state *overlay, ix solana.Instruction, signers map[solana.Pubkey]bool) error {
	res, err := system.Process(state, ix, signers)
	if err != nil {
		return err
	}
	state.created = append(state.created, res.Params)
	b.log.Debug().
		Str("account", res.Params.New.Base58()).
		Str("owner", res.Params.Owner.Base58()).
		Uint64("lamports", res.Params.Lamports).
		Uint64("space", res.Params.Space).
		Msg("account created")
	return nil
}

// invocation is the runtime.Host handed to a program for one execution.
type invocation struct {
	bank      *Bank
	state     *overlay
	programID solana.Pubkey
}

func (inv *invocation) InvokeSigned(ctx context.Context, ix solana.Instruction, accounts []runtime.AccountInfo, signerSeeds [][][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	privs := make(map[solana.Pubkey]runtime.AccountInfo, len(accounts))
	for _, a := range accounts {
		p := privs[a.Key]
		p.Key = a.Key
		p.IsSigner = p.IsSigner || a.IsSigner
		p.IsWritable = p.IsWritable || a.IsWritable
		privs[a.Key] = p
	}

	if _, ok := privs[ix.ProgramID]; !ok {
		return fmt.Errorf("%w: program %s", ErrMissingAccountInfo, ix.ProgramID)
	}
	if ix.ProgramID != solana.SystemProgramID {
		return fmt.Errorf("%w: %s", ErrUnsupportedProgram, ix.ProgramID)
	}

	signers := make(map[solana.Pubkey]bool, len(privs)+len(signerSeeds))
	for pk, a := range privs {
		if a.IsSigner {
			signers[pk] = true
		}
	}
	for _, seeds := range signerSeeds {
		pda, err := solana.CreateProgramAddress(seeds, inv.programID)
		if err != nil {
			return fmt.Errorf("%w: signer seeds: %v", system.ErrAuthorityMismatch, err)
		}
		signers[pda] = true
	}

	for _, m := range ix.Accounts {
		a, ok := privs[m.Pubkey]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingAccountInfo, m.Pubkey)
		}
		if m.IsWritable && !a.IsWritable {
			return fmt.Errorf("%w: %s", ErrPrivilegeEscalation, m.Pubkey)
		}
	}

	return inv.bank.runSystem(inv.state, ix, signers)
}
