// Package runtime defines the boundary between an on-chain program and the
// host that executes it.
package runtime

//go:generate mockgen -source=runtime.go -destination=mocks/mocks.go -package=mocks Host

import (
	"context"

	"github.com/Abdullah1738/user-pda/offchain/solana"
)

// AccountInfo is one entry of the account list a host hands to a program.
type AccountInfo struct {
	Key        solana.Pubkey
	IsSigner   bool
	IsWritable bool
}

// Host is what a running program can call back into.
type Host interface {
	// InvokeSigned runs ix as a cross-program invocation. Each element of
	// signerSeeds is a full seed list (bump included) whose program-derived
	// address, under the calling program's id, is treated as a signer.
	InvokeSigned(ctx context.Context, ix solana.Instruction, accounts []AccountInfo, signerSeeds [][][]byte) error
}

// Entrypoint is the single function a host dispatches to for a program.
type Entrypoint func(ctx context.Context, host Host, programID solana.Pubkey, accounts []AccountInfo, data []byte) error

// Metas converts account infos back into instruction account metas.
func Metas(accounts []AccountInfo) []solana.AccountMeta {
	out := make([]solana.AccountMeta, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, solana.AccountMeta{Pubkey: a.Key, IsSigner: a.IsSigner, IsWritable: a.IsWritable})
	}
	return out
}

// Infos converts instruction account metas into account infos.
func Infos(metas []solana.AccountMeta) []AccountInfo {
	out := make([]AccountInfo, 0, len(metas))
	for _, m := range metas {
		out = append(out, AccountInfo{Key: m.Pubkey, IsSigner: m.IsSigner, IsWritable: m.IsWritable})
	}
	return out
}
