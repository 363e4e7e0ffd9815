package main

import (
	"fmt"
	"io"
	"strings"

	"grantchain/config"
	"grantchain/secrets"
)

func runSecretsCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, secretsUsage())
		return 2
	}
	switch args[0] {
	case "ensure":
		return runSecretsEnsure(args[1:], stdout, stderr)
	case "rotate":
		return runSecretsRotate(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown secrets subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, secretsUsage())
		return 2
	}
}

func runSecretsEnsure(args []string, stdout, stderr io.Writer) int {
	if len(args) != 0 {
		fmt.Fprintln(stderr, secretsUsage())
		return 2
	}

	cfg := loadConfig(stderr)
	if cfg == nil {
		return 1
	}

	added, err := secrets.Ensure(cfg.Secrets.EnvFile, specsFromConfig(cfg))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(added) == 0 {
		fmt.Fprintf(stdout, "All secrets present in %s\n", cfg.Secrets.EnvFile)
		return 0
	}
	fmt.Fprintf(stdout, "Added %d secrets to %s: %s\n", len(added), cfg.Secrets.EnvFile, strings.Join(added, ", "))
	return 0
}

func runSecretsRotate(args []string, stdout, stderr io.Writer) int {
	if len(args) != 0 {
		fmt.Fprintln(stderr, secretsUsage())
		return 2
	}

	cfg := loadConfig(stderr)
	if cfg == nil {
		return 1
	}

	rotated, backup, err := secrets.Rotate(cfg.Secrets.EnvFile, specsFromConfig(cfg))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Rotated %d secrets in %s: %s\n", len(rotated), cfg.Secrets.EnvFile, strings.Join(rotated, ", "))
	fmt.Fprintf(stdout, "Previous values backed up to %s\n", backup)
	return 0
}

func specsFromConfig(cfg *config.Config) []secrets.Spec {
	specs := make([]secrets.Spec, 0, len(cfg.Secrets.Keys))
	for _, key := range cfg.Secrets.Keys {
		specs = append(specs, secrets.Spec{Name: key.Name, Length: key.Length, Rotate: key.Rotate})
	}
	return specs
}

func secretsUsage() string {
	return strings.TrimSpace(`Usage:
  grantchain secrets <command>

Commands:
  ensure  Generate and append any managed secrets missing from the env file
  rotate  Replace every rotatable secret in place, backing the file up first
`)
}
