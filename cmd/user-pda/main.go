package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(argv []string, stdout io.Writer) error {
	if len(argv) == 0 || argv[0] == "-h" || argv[0] == "--help" || argv[0] == "help" {
		printUsage(stdout)
		return nil
	}

	switch argv[0] {
	case "pda":
		return cmdPDA(argv[1:], stdout)
	case "create":
		return cmdCreate(argv[1:], stdout)
	case "verify":
		return cmdVerify(argv[1:], stdout)
	case "simulate":
		return cmdSimulate(argv[1:], stdout)
	default:
		return fmt.Errorf("unknown command: %s", argv[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "user-pda: per-user program-derived account tooling")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  user-pda pda --program-id <pubkey> --user <pubkey> [--print address|bump|hex|json]")
	fmt.Fprintln(w, "  user-pda create --config <path> [--cu-limit N] [--cu-price microLamports|auto] [--skip-balance-check]")
	fmt.Fprintln(w, "  user-pda verify --config <path> [--user <pubkey>]")
	fmt.Fprintln(w, "  user-pda simulate [--users N] [--concurrency N] [--program-id <pubkey>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  pda       Derive a user's account address offline.")
	fmt.Fprintln(w, "  create    Send the create-account instruction for the configured payer and wait for confirmation.")
	fmt.Fprintln(w, "  verify    Check that a user's account exists, is owned by the program and holds 8 bytes.")
	fmt.Fprintln(w, "  simulate  Run the program against an in-process bank for random users, twice each.")
}
