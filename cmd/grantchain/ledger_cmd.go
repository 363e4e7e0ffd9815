package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"grantchain/cmd/internal/confirm"
	"grantchain/core"
	"grantchain/storage"
)

func runGrantCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "Usage: grantchain grant <role> <user>")
		return 2
	}
	role := strings.TrimSpace(args[0])
	user := strings.TrimSpace(args[1])
	if role == "" || user == "" {
		fmt.Fprintln(stderr, "Error: role and user must not be empty")
		return 2
	}

	cfg := loadConfig(stderr)
	if cfg == nil {
		return 1
	}
	ledger, lock, ok := openLedger(cfg, true, stderr)
	if !ok {
		return 1
	}
	defer lock.Release()

	block, err := ledger.Add(role, user)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Mined: %s\n", block.Hash)
	return 0
}

func runVerifyCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "Usage: grantchain verify <role> <user>")
		return 2
	}
	role := strings.TrimSpace(args[0])
	user := strings.TrimSpace(args[1])
	if role == "" || user == "" {
		fmt.Fprintln(stderr, "Error: role and user must not be empty")
		return 2
	}

	cfg := loadConfig(stderr)
	if cfg == nil {
		return 1
	}
	ledger, lock, ok := openLedger(cfg, false, stderr)
	if !ok {
		return 1
	}
	defer lock.Release()

	if ledger.Verify(role, user) {
		fmt.Fprintln(stdout, "ACCESS GRANTED")
		return 0
	}
	fmt.Fprintln(stdout, "DENIED")
	return 1
}

func runAuditCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) != 0 {
		fmt.Fprintln(stderr, "Usage: grantchain audit")
		return 2
	}

	cfg := loadConfig(stderr)
	if cfg == nil {
		return 1
	}
	ledger, lock, ok := openLedger(cfg, false, stderr)
	if !ok {
		return 1
	}
	defer lock.Release()

	if err := ledger.Validate(); err != nil {
		fmt.Fprintf(stderr, "Audit failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Chain OK: %d blocks\n", ledger.Len())
	return 0
}

func runResetCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var yes bool
	fs.BoolVar(&yes, "yes", false, "skip the interactive confirmation")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 2
	}

	if !yes {
		ok, err := confirm.Ask("Discard the whole chain and start over at genesis?", "--yes")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if !ok {
			fmt.Fprintln(stdout, "Aborted.")
			return 1
		}
	}

	cfg := loadConfig(stderr)
	if cfg == nil {
		return 1
	}
	lock, err := storage.AcquireExclusive(cfg.Ledger.DataDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer lock.Release()

	// Reset recovers regardless of AutoRecover: a corrupt snapshot must not
	// block the one command that exists to replace it.
	ledger, err := core.Open(storage.NewFileStore(cfg.Ledger.DataDir), core.Options{
		Difficulty:  cfg.Ledger.Difficulty,
		MaxAttempts: cfg.Ledger.MaxAttempts,
		AutoRecover: true,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	genesis, err := ledger.Reset()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Ledger reset. Genesis: %s\n", genesis.Hash)
	return 0
}
