package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"grantchain/cmd/internal/confirm"
	"grantchain/scaffold"
)

func runScaffoldCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		return runScaffoldApply(nil, stdout, stderr)
	}
	switch args[0] {
	case "apply":
		return runScaffoldApply(args[1:], stdout, stderr)
	case "ingest":
		return runScaffoldIngest(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown scaffold subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, scaffoldUsage())
		return 2
	}
}

func runScaffoldApply(args []string, stdout, stderr io.Writer) int {
	if len(args) != 0 {
		fmt.Fprintln(stderr, scaffoldUsage())
		return 2
	}

	cfg := loadConfig(stderr)
	if cfg == nil {
		return 1
	}

	result, err := scaffold.Apply(cfg.Scaffold.Root)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if !result.Changed() {
		fmt.Fprintln(stdout, "Scaffold already in place; nothing to do.")
		return 0
	}
	for _, dir := range result.CreatedDirs {
		fmt.Fprintf(stdout, "Created %s\n", dir)
	}
	for _, entry := range result.GitignoreAdded {
		fmt.Fprintf(stdout, "Added %s to .gitignore\n", entry)
	}
	if result.WroteDump {
		fmt.Fprintf(stdout, "Wrote %s template\n", scaffold.DumpFile)
	}
	if result.WroteBlueprint {
		fmt.Fprintf(stdout, "Wrote %s\n", scaffold.BlueprintFile)
	}
	return 0
}

func runScaffoldIngest(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("scaffold ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var purge bool
	fs.BoolVar(&purge, "purge", false, "delete the dump file after merging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 2
	}

	cfg := loadConfig(stderr)
	if cfg == nil {
		return 1
	}

	if !purge {
		// Offer deletion only when a terminal is attached; batch runs keep
		// the dump file.
		if ok, err := confirm.Ask(fmt.Sprintf("Delete %s after merging?", scaffold.DumpFile), "--purge"); err == nil {
			purge = ok
		}
	}

	result, err := scaffold.Ingest(cfg.Scaffold.Root, purge)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Merged %d secrets into %s\n", result.Merged, scaffold.EnvFile)
	if result.Purged {
		fmt.Fprintf(stdout, "Deleted %s\n", scaffold.DumpFile)
	}
	return 0
}

func scaffoldUsage() string {
	return strings.TrimSpace(`Usage:
  grantchain scaffold [command]

Commands:
  apply   Create the directory skeleton, .gitignore entries and deploy.yaml (default)
  ingest  Merge secrets_dump.txt into .env (--purge deletes the dump afterwards)
`)
}
