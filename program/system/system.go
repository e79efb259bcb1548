// Package system implements the account-creation service that user-pda
// delegates to. It follows the validator's system program rules for
// CreateAccount.
package system

import (
	"errors"
	"fmt"

	"github.com/Abdullah1738/user-pda/offchain/solana"
)

// MaxPermittedDataLength caps the space a single CreateAccount may allocate.
const MaxPermittedDataLength = 10 * 1024 * 1024

var (
	ErrInvalidInstruction       = errors.New("invalid system instruction")
	ErrMissingRequiredSignature = errors.New("missing required signature")
	ErrAuthorityMismatch        = errors.New("new account authority mismatch")
	ErrAccountAlreadyExists     = errors.New("account already in use")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrInvalidAccountDataLength = errors.New("invalid account data length")
)

type Account struct {
	Lamports uint64
	Data     []byte
	Owner    solana.Pubkey
}

// InUse reports whether the account holds lamports or data or has been
// assigned away from the system program.
func (a Account) InUse() bool {
	return a.Lamports > 0 || len(a.Data) > 0 || a.Owner != solana.SystemProgramID
}

func (a Account) Clone() Account {
	out := a
	if a.Data != nil {
		out.Data = append([]byte{}, a.Data...)
	}
	return out
}

// Store is the account state the service reads and writes. A missing account
// reads as the zero Account with ok=false.
type Store interface {
	Account(pk solana.Pubkey) (Account, bool)
	SetAccount(pk solana.Pubkey, a Account)
}

// Result describes the effect of a successful CreateAccount.
type Result struct {
	Params solana.CreateAccountParams
}

// Process executes a system instruction. signers holds every key that signed
// the enclosing invocation, including program-derived addresses vouched for by
// seeds.
func Process(store Store, ix solana.Instruction, signers map[solana.Pubkey]bool) (Result, error) {
	p, err := solana.DecodeSystemCreateAccount(ix)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	if !signers[p.From] {
		return Result{}, fmt.Errorf("%w: funding account %s", ErrMissingRequiredSignature, p.From)
	}
	if !signers[p.New] {
		return Result{}, fmt.Errorf("%w: %s did not sign and no seeds derive it", ErrAuthorityMismatch, p.New)
	}
	if p.From == p.New {
		return Result{}, fmt.Errorf("%w: funding account cannot be the new account", ErrInvalidInstruction)
	}

	to, _ := store.Account(p.New)
	if to.InUse() {
		return Result{}, fmt.Errorf("%w: %s", ErrAccountAlreadyExists, p.New)
	}
	if p.Space > MaxPermittedDataLength {
		return Result{}, fmt.Errorf("%w: %d > %d", ErrInvalidAccountDataLength, p.Space, MaxPermittedDataLength)
	}

	from, _ := store.Account(p.From)
	if len(from.Data) > 0 {
		return Result{}, fmt.Errorf("%w: funding account %s carries data", ErrInvalidInstruction, p.From)
	}
	if from.Lamports < p.Lamports {
		return Result{}, fmt.Errorf("%w: need %d lamports, have %d", ErrInsufficientFunds, p.Lamports, from.Lamports)
	}

	from.Lamports -= p.Lamports
	store.SetAccount(p.From, from)
	store.SetAccount(p.New, Account{
		Lamports: p.Lamports,
		Data:     make([]byte, p.Space),
		Owner:    p.Owner,
	})
	return Result{Params: p}, nil
}
