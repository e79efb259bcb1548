package solana

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/mr-tron/base58"
)

type Pubkey [32]byte

var (
	ErrInvalidPubkey = errors.New("invalid pubkey")
)

func ParsePubkey(s string) (Pubkey, error) {
	var out Pubkey
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return out, ErrInvalidPubkey
	}

	if len(s) == 64 {
		b, err := hex.DecodeString(s)
		if err != nil || len(b) != 32 {
			return out, ErrInvalidPubkey
		}
		copy(out[:], b)
		return out, nil
	}

	b, err := base58.Decode(s)
	if err != nil || len(b) != 32 {
		return out, ErrInvalidPubkey
	}
	copy(out[:], b)
	return out, nil
}

func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var out Pubkey
	if len(b) != 32 {
		return out, ErrInvalidPubkey
	}
	copy(out[:], b)
	return out, nil
}

func (k Pubkey) Base58() string {
	return base58.Encode(k[:])
}

func (k Pubkey) Hex() string {
	return hex.EncodeToString(k[:])
}

func (k Pubkey) String() string {
	return k.Base58()
}

// IsZero reports whether k is the all-zero key. The system program id is the
// zero key, so callers treating zero as "unset" must not accept it as an owner.
func (k Pubkey) IsZero() bool {
	return k == Pubkey{}
}
