package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/Abdullah1738/user-pda/offchain/solana"
	"github.com/Abdullah1738/user-pda/program/userpda"
)

func cmdPDA(argv []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("pda", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		programIDStr string
		userStr      string
		printField   string
	)
	fs.StringVar(&programIDStr, "program-id", "", "Program id (base58 or 32-byte hex)")
	fs.StringVar(&userStr, "user", "", "User pubkey (base58 or 32-byte hex)")
	fs.StringVar(&printField, "print", "address", "What to print: address|bump|hex|json")
	if err := fs.Parse(argv); err != nil {
		return err
	}
	if len(fs.Args()) != 0 {
		return fmt.Errorf("unexpected args: %v", fs.Args())
	}
	if programIDStr == "" {
		return fmt.Errorf("--program-id is required")
	}
	if userStr == "" {
		return fmt.Errorf("--user is required")
	}

	programID, err := solana.ParsePubkey(programIDStr)
	if err != nil {
		return fmt.Errorf("parse --program-id: %w", err)
	}
	user, err := solana.ParsePubkey(userStr)
	if err != nil {
		return fmt.Errorf("parse --user: %w", err)
	}

	derived, _, err := userpda.DeriveUserAddress(user, programID)
	if err != nil {
		return fmt.Errorf("derive user pda: %w", err)
	}

	switch printField {
	case "address":
		fmt.Fprintln(stdout, derived.Address.Base58())
	case "bump":
		fmt.Fprintln(stdout, derived.Bump)
	case "hex":
		fmt.Fprintln(stdout, derived.Address.Hex())
	case "json":
		enc := json.NewEncoder(stdout)
		return enc.Encode(struct {
			Address   string   `json:"address"`
			Bump      uint8    `json:"bump"`
			User      string   `json:"user"`
			ProgramID string   `json:"program_id"`
			Seeds     []string `json:"seeds"`
		}{
			Address:   derived.Address.Base58(),
			Bump:      derived.Bump,
			User:      user.Base58(),
			ProgramID: programID.Base58(),
			Seeds:     []string{user.Base58(), userpda.SeedTag},
		})
	default:
		return fmt.Errorf("invalid --print: %s", printField)
	}
	return nil
}
