package userpda

import (
	"errors"
	"fmt"

	"github.com/Abdullah1738/user-pda/offchain/solana"
)

const (
	// AccountLamports funds every created account with 1 SOL.
	AccountLamports uint64 = 1_000_000_000
	// AccountSpace is the data size allocated for every created account.
	AccountSpace uint64 = 8
)

var ErrInvalidParameters = errors.New("invalid account creation parameters")

type AccountCreationRequest struct {
	Payer      solana.Pubkey
	NewAccount solana.Pubkey
	Lamports   uint64
	Space      uint64
	Owner      solana.Pubkey
}

// BuildCreationRequest fills the fixed policy amounts around the three keys.
func BuildCreationRequest(payer, newAccount, owner solana.Pubkey) (AccountCreationRequest, error) {
	return NewCreationRequest(payer, newAccount, AccountLamports, AccountSpace, owner)
}

func NewCreationRequest(payer, newAccount solana.Pubkey, lamports, space uint64, owner solana.Pubkey) (AccountCreationRequest, error) {
	switch {
	case payer.IsZero():
		return AccountCreationRequest{}, fmt.Errorf("%w: payer required", ErrInvalidParameters)
	case newAccount.IsZero():
		return AccountCreationRequest{}, fmt.Errorf("%w: new account required", ErrInvalidParameters)
	case owner.IsZero():
		return AccountCreationRequest{}, fmt.Errorf("%w: owner required", ErrInvalidParameters)
	}
	return AccountCreationRequest{
		Payer:      payer,
		NewAccount: newAccount,
		Lamports:   lamports,
		Space:      space,
		Owner:      owner,
	}, nil
}

func (r AccountCreationRequest) Instruction() solana.Instruction {
	return solana.SystemCreateAccount(solana.CreateAccountParams{
		From:     r.Payer,
		New:      r.NewAccount,
		Lamports: r.Lamports,
		Space:    r.Space,
		Owner:    r.Owner,
	})
}
