package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/Abdullah1738/user-pda/offchain/solana"
)

var errInvalidKeypair = errors.New("invalid keypair file")

// loadKeypair reads a Solana CLI keypair file: a JSON array of 64 bytes,
// secret seed followed by the public key.
func loadKeypair(path string) (ed25519.PrivateKey, solana.Pubkey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, solana.Pubkey{}, fmt.Errorf("read keypair: %w", err)
	}
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, solana.Pubkey{}, fmt.Errorf("%w: %v", errInvalidKeypair, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, solana.Pubkey{}, fmt.Errorf("%w: expected %d bytes, got %d", errInvalidKeypair, ed25519.PrivateKeySize, len(ints))
	}
	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, solana.Pubkey{}, fmt.Errorf("%w: byte %d out of range", errInvalidKeypair, i)
		}
		b[i] = byte(v)
	}

	priv := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
	pub := priv.Public().(ed25519.PublicKey)
	if !bytes.Equal(pub, b[ed25519.SeedSize:]) {
		return nil, solana.Pubkey{}, fmt.Errorf("%w: public key does not match secret", errInvalidKeypair)
	}
	var pk solana.Pubkey
	copy(pk[:], pub)
	return priv, pk, nil
}

func writeKeypair(path string, priv ed25519.PrivateKey) error {
	ints := make([]int, len(priv))
	for i, v := range priv {
		ints[i] = int(v)
	}
	b, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
