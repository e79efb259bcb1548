package solana

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
)

const (
	MaxSeeds        = 16
	MaxSeedLen      = 32
	pdaDomainMarker = "ProgramDerivedAddress"
)

var (
	ErrInvalidSeeds               = errors.New("invalid seeds")
	ErrOnCurve                    = errors.New("derived address is on-curve")
	ErrAddressDerivationExhausted = errors.New("no viable program address found")
)

// FindProgramAddress walks bump seeds from 255 down to 0 and returns the first
// off-curve address. The search order fixes the address for existing seeds.
func FindProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, uint8, error) {
	return findProgramAddress(seeds, programID, CreateProgramAddress)
}

func findProgramAddress(
	seeds [][]byte,
	programID Pubkey,
	create func([][]byte, Pubkey) (Pubkey, error),
) (Pubkey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Pubkey{}, 0, ErrInvalidSeeds
	}
	candidate := make([][]byte, len(seeds)+1)
	copy(candidate, seeds)
	for bump := uint8(255); ; bump-- {
		candidate[len(seeds)] = []byte{bump}
		pda, err := create(candidate, programID)
		if err == nil {
			return pda, bump, nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return Pubkey{}, 0, err
		}
		if bump == 0 {
			return Pubkey{}, 0, ErrAddressDerivationExhausted
		}
	}
}

func CreateProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return Pubkey{}, ErrInvalidSeeds
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Pubkey{}, ErrInvalidSeeds
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaDomainMarker))

	var out Pubkey
	copy(out[:], h.Sum(nil))
	if IsOnCurve(out) {
		return Pubkey{}, ErrOnCurve
	}
	return out, nil
}

// IsOnCurve reports whether pk decompresses to an edwards25519 point, i.e.
// whether a private key could exist for it.
func IsOnCurve(pk Pubkey) bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}
