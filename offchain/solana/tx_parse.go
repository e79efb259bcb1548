package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"
)

var ErrInvalidSignature = errors.New("invalid transaction signature")

type ParsedInstruction struct {
	ProgramID Pubkey
	Accounts  []uint8
	Data      []byte
}

type ParsedLegacyTransaction struct {
	Signatures      [][64]byte
	Header          MessageHeader
	AccountKeys     []Pubkey
	RecentBlockhash [32]byte
	Instructions    []ParsedInstruction

	// Message is the signed message bytes.
	Message []byte
}

func ParseLegacyTransaction(tx []byte) (ParsedLegacyTransaction, error) {
	var out ParsedLegacyTransaction
	if len(tx) == 0 {
		return out, errors.New("empty tx")
	}

	off := 0
	sigCount, newOff, err := decodeShortVecLenAt(tx, off)
	if err != nil {
		return out, fmt.Errorf("decode signature count: %w", err)
	}
	off = newOff
	sigBytes := sigCount * 64
	if sigCount < 0 || sigBytes < 0 || off+sigBytes > len(tx) {
		return out, errors.New("invalid signature section")
	}
	out.Signatures = make([][64]byte, sigCount)
	for i := range out.Signatures {
		copy(out.Signatures[i][:], tx[off:off+64])
		off += 64
	}
	out.Message = tx[off:]

	if off+3 > len(tx) {
		return out, errors.New("message header truncated")
	}
	out.Header = MessageHeader{
		NumRequiredSignatures:       tx[off],
		NumReadonlySignedAccounts:   tx[off+1],
		NumReadonlyUnsignedAccounts: tx[off+2],
	}
	off += 3
	if int(out.Header.NumRequiredSignatures) != sigCount {
		return out, errors.New("signature count does not match header")
	}

	nKeys, newOff, err := decodeShortVecLenAt(tx, off)
	if err != nil {
		return out, fmt.Errorf("decode account keys count: %w", err)
	}
	off = newOff
	if nKeys < 0 || off+(nKeys*32) > len(tx) {
		return out, errors.New("account keys truncated")
	}
	if nKeys < sigCount || nKeys < sigCount+int(out.Header.NumReadonlyUnsignedAccounts) ||
		int(out.Header.NumReadonlySignedAccounts) > sigCount {
		return out, errors.New("invalid message header")
	}
	out.AccountKeys = make([]Pubkey, 0, nKeys)
	for i := 0; i < nKeys; i++ {
		var pk Pubkey
		copy(pk[:], tx[off:off+32])
		out.AccountKeys = append(out.AccountKeys, pk)
		off += 32
	}

	if off+32 > len(tx) {
		return out, errors.New("recent blockhash truncated")
	}
	copy(out.RecentBlockhash[:], tx[off:off+32])
	off += 32

	nIxs, newOff, err := decodeShortVecLenAt(tx, off)
	if err != nil {
		return out, fmt.Errorf("decode instruction count: %w", err)
	}
	off = newOff
	if nIxs < 0 {
		return out, errors.New("negative instruction count")
	}

	out.Instructions = make([]ParsedInstruction, 0, nIxs)
	for i := 0; i < nIxs; i++ {
		if off >= len(tx) {
			return out, errors.New("instruction truncated")
		}
		pidIndex := int(tx[off])
		off++
		if pidIndex < 0 || pidIndex >= len(out.AccountKeys) {
			return out, errors.New("invalid program id index")
		}

		acctCount, newOff, err := decodeShortVecLenAt(tx, off)
		if err != nil {
			return out, fmt.Errorf("decode instruction accounts count: %w", err)
		}
		off = newOff
		if acctCount < 0 || off+acctCount > len(tx) {
			return out, errors.New("instruction accounts truncated")
		}
		accounts := make([]uint8, acctCount)
		copy(accounts, tx[off:off+acctCount])
		off += acctCount
		for _, idx := range accounts {
			if int(idx) >= len(out.AccountKeys) {
				return out, errors.New("invalid account index")
			}
		}

		dataLen, newOff, err := decodeShortVecLenAt(tx, off)
		if err != nil {
			return out, fmt.Errorf("decode instruction data len: %w", err)
		}
		off = newOff
		if dataLen < 0 || off+dataLen > len(tx) {
			return out, errors.New("instruction data truncated")
		}
		data := make([]byte, dataLen)
		copy(data, tx[off:off+dataLen])
		off += dataLen

		out.Instructions = append(out.Instructions, ParsedInstruction{
			ProgramID: out.AccountKeys[pidIndex],
			Accounts:  accounts,
			Data:      data,
		})
	}
	if off != len(tx) {
		return out, errors.New("trailing bytes after message")
	}

	return out, nil
}

func (t ParsedLegacyTransaction) FeePayer() Pubkey {
	if len(t.AccountKeys) == 0 {
		return Pubkey{}
	}
	return t.AccountKeys[0]
}

func (t ParsedLegacyTransaction) IsSigner(i int) bool {
	return i >= 0 && i < int(t.Header.NumRequiredSignatures)
}

func (t ParsedLegacyTransaction) IsWritable(i int) bool {
	numSigned := int(t.Header.NumRequiredSignatures)
	if i < 0 || i >= len(t.AccountKeys) {
		return false
	}
	if i < numSigned {
		return i < numSigned-int(t.Header.NumReadonlySignedAccounts)
	}
	return i < len(t.AccountKeys)-int(t.Header.NumReadonlyUnsignedAccounts)
}

// VerifySignatures checks every required signature against its account key.
func (t ParsedLegacyTransaction) VerifySignatures() error {
	for i, sig := range t.Signatures {
		pk := t.AccountKeys[i]
		if !ed25519.Verify(ed25519.PublicKey(pk[:]), t.Message, sig[:]) {
			return fmt.Errorf("%w: signer %s", ErrInvalidSignature, pk)
		}
	}
	return nil
}

// Instruction expands a parsed instruction back into account metas.
func (t ParsedLegacyTransaction) Instruction(i int) Instruction {
	pix := t.Instructions[i]
	metas := make([]AccountMeta, 0, len(pix.Accounts))
	for _, idx := range pix.Accounts {
		metas = append(metas, AccountMeta{
			Pubkey:     t.AccountKeys[idx],
			IsSigner:   t.IsSigner(int(idx)),
			IsWritable: t.IsWritable(int(idx)),
		})
	}
	return Instruction{
		ProgramID: pix.ProgramID,
		Accounts:  metas,
		Data:      append([]byte{}, pix.Data...),
	}
}
