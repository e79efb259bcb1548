package main

import (
	"crypto/ed25519"

	"github.com/Abdullah1738/user-pda/offchain/solana"
	"github.com/Abdullah1738/user-pda/program/userpda"
)

type computeBudget struct {
	Limit         uint32
	MicroLamports uint64
}

func (c computeBudget) instructions() []solana.Instruction {
	var out []solana.Instruction
	if c.Limit > 0 {
		out = append(out, solana.ComputeBudgetSetComputeUnitLimit(c.Limit))
	}
	if c.MicroLamports > 0 {
		out = append(out, solana.ComputeBudgetSetComputeUnitPrice(c.MicroLamports))
	}
	return out
}

// createUserAccountInstruction invokes the program for payer. The program
// reads [payer, target, system program] and ignores instruction data.
func createUserAccountInstruction(programID, payer, target solana.Pubkey) solana.Instruction {
	return solana.Instruction{
		ProgramID: programID,
		Accounts: []solana.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: target, IsWritable: true},
			{Pubkey: solana.SystemProgramID},
		},
	}
}

// buildCreateTransaction derives payer's account address and returns the
// signed transaction creating it.
func buildCreateTransaction(
	programID solana.Pubkey,
	priv ed25519.PrivateKey,
	blockhash [32]byte,
	budget computeBudget,
) ([]byte, userpda.DerivedAddress, error) {
	var payer solana.Pubkey
	copy(payer[:], priv.Public().(ed25519.PublicKey))

	derived, _, err := userpda.DeriveUserAddress(payer, programID)
	if err != nil {
		return nil, userpda.DerivedAddress{}, err
	}

	ixs := budget.instructions()
	ixs = append(ixs, createUserAccountInstruction(programID, payer, derived.Address))
	raw, err := solana.BuildAndSignLegacyTransaction(
		blockhash,
		payer,
		map[solana.Pubkey]ed25519.PrivateKey{payer: priv},
		ixs,
	)
	if err != nil {
		return nil, userpda.DerivedAddress{}, err
	}
	return raw, derived, nil
}
