// Package userpda is the on-chain program that creates one account per user
// at a program-derived address.
//
// The address for a user is derived from the seeds [user pubkey, "user"] and
// the program id. Because no private key exists for it, the program proves
// authority over the address by handing the derivation seeds, bump included,
// to the system program instead of a signature.
package userpda

import (
	"github.com/Abdullah1738/user-pda/offchain/solana"
)

// SeedTag is the literal seed that follows the user key.
const SeedTag = "user"

// DerivedAddress is a program-derived address and the bump that produced it.
type DerivedAddress struct {
	Address solana.Pubkey
	Bump    uint8
}

// ProofOfDerivation is the capability handed to the account-creation service
// in place of a signature from the derived address.
type ProofOfDerivation struct {
	Seeds [][]byte
	Bump  uint8
}

// SignerSeeds returns the seed list with the bump appended, in the form the
// host recomputes the address from.
func (p ProofOfDerivation) SignerSeeds() [][]byte {
	out := make([][]byte, 0, len(p.Seeds)+1)
	for _, s := range p.Seeds {
		out = append(out, append([]byte{}, s...))
	}
	return append(out, []byte{p.Bump})
}

// DeriveFunc matches solana.FindProgramAddress.
type DeriveFunc func(seeds [][]byte, programID solana.Pubkey) (solana.Pubkey, uint8, error)

// UserSeeds returns the seed list for user. Order is part of the address.
func UserSeeds(user solana.Pubkey) [][]byte {
	return [][]byte{append([]byte{}, user[:]...), []byte(SeedTag)}
}

// DeriveAddress derives the program-derived address for seeds and issues the
// proof that reproduces it.
func DeriveAddress(seeds [][]byte, programID solana.Pubkey) (DerivedAddress, ProofOfDerivation, error) {
	return deriveWith(solana.FindProgramAddress, seeds, programID)
}

// DeriveUserAddress derives the account address for user under programID.
func DeriveUserAddress(user, programID solana.Pubkey) (DerivedAddress, ProofOfDerivation, error) {
	return DeriveAddress(UserSeeds(user), programID)
}

func deriveWith(find DeriveFunc, seeds [][]byte, programID solana.Pubkey) (DerivedAddress, ProofOfDerivation, error) {
	addr, bump, err := find(seeds, programID)
	if err != nil {
		return DerivedAddress{}, ProofOfDerivation{}, err
	}
	proof := ProofOfDerivation{Seeds: make([][]byte, 0, len(seeds)), Bump: bump}
	for _, s := range seeds {
		proof.Seeds = append(proof.Seeds, append([]byte{}, s...))
	}
	return DerivedAddress{Address: addr, Bump: bump}, proof, nil
}
