package solana

import (
	"encoding/binary"
	"errors"
)

var (
	SystemProgramID        = mustParsePubkey("11111111111111111111111111111111")
	ComputeBudgetProgramID = mustParsePubkey("ComputeBudget111111111111111111111111111111")
)

var ErrInvalidSystemInstruction = errors.New("invalid system instruction")

const (
	systemIxCreateAccount uint32 = 0
	createAccountDataLen         = 4 + 8 + 8 + 32
)

func mustParsePubkey(s string) Pubkey {
	pk, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

func ComputeBudgetSetComputeUnitLimit(limit uint32) Instruction {
	var data [5]byte
	data[0] = 2
	binary.LittleEndian.PutUint32(data[1:], limit)
	return Instruction{
		ProgramID: ComputeBudgetProgramID,
		Accounts:  nil,
		Data:      data[:],
	}
}

func ComputeBudgetSetComputeUnitPrice(microLamports uint64) Instruction {
	var data [9]byte
	data[0] = 3
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return Instruction{
		ProgramID: ComputeBudgetProgramID,
		Accounts:  nil,
		Data:      data[:],
	}
}

type CreateAccountParams struct {
	From     Pubkey
	New      Pubkey
	Lamports uint64
	Space    uint64
	Owner    Pubkey
}

func SystemCreateAccount(p CreateAccountParams) Instruction {
	// Layout:
	//   u32_le instruction = 0
	//   u64_le lamports
	//   u64_le space
	//   [32]   owner
	data := make([]byte, createAccountDataLen)
	binary.LittleEndian.PutUint32(data[0:4], systemIxCreateAccount)
	binary.LittleEndian.PutUint64(data[4:12], p.Lamports)
	binary.LittleEndian.PutUint64(data[12:20], p.Space)
	copy(data[20:52], p.Owner[:])
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: p.From, IsSigner: true, IsWritable: true},
			{Pubkey: p.New, IsSigner: true, IsWritable: true},
		},
		Data: data,
	}
}

func DecodeSystemCreateAccount(ix Instruction) (CreateAccountParams, error) {
	var out CreateAccountParams
	if ix.ProgramID != SystemProgramID {
		return out, ErrInvalidSystemInstruction
	}
	if len(ix.Data) != createAccountDataLen || len(ix.Accounts) < 2 {
		return out, ErrInvalidSystemInstruction
	}
	if binary.LittleEndian.Uint32(ix.Data[0:4]) != systemIxCreateAccount {
		return out, ErrInvalidSystemInstruction
	}
	out.From = ix.Accounts[0].Pubkey
	out.New = ix.Accounts[1].Pubkey
	out.Lamports = binary.LittleEndian.Uint64(ix.Data[4:12])
	out.Space = binary.LittleEndian.Uint64(ix.Data[12:20])
	copy(out.Owner[:], ix.Data[20:52])
	return out, nil
}
