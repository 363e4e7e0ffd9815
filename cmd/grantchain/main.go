package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"grantchain/config"
	"grantchain/core"
	"grantchain/observability/logging"
	"grantchain/storage"
)

var configPath = config.DefaultPath // Overridden via the --config global flag

func main() {
	args := os.Args[1:]
	var err error
	configPath = config.DefaultPath
	args, err = applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if len(args) < 1 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	command := args[0]
	var code int
	switch command {
	case "grant":
		code = runGrantCommand(args[1:], os.Stdout, os.Stderr)
	case "verify":
		code = runVerifyCommand(args[1:], os.Stdout, os.Stderr)
	case "audit":
		code = runAuditCommand(args[1:], os.Stdout, os.Stderr)
	case "reset":
		code = runResetCommand(args[1:], os.Stdout, os.Stderr)
	case "doctor":
		code = runDoctorCommand(args[1:], os.Stdout, os.Stderr)
	case "report":
		code = runReportCommand(args[1:], os.Stdout, os.Stderr)
	case "scaffold":
		code = runScaffoldCommand(args[1:], os.Stdout, os.Stderr)
	case "secrets":
		code = runSecretsCommand(args[1:], os.Stdout, os.Stderr)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if code != 0 {
		os.Exit(code)
	}
}

// applyGlobalFlags strips --config from the argument list, wherever it
// appears, and returns the remaining arguments.
func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --config")
			}
			configPath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			configPath = strings.TrimPrefix(arg, "--config=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func envName() string {
	if v := strings.TrimSpace(os.Getenv("GRANTCHAIN_ENV")); v != "" {
		return v
	}
	return "dev"
}

// loadConfig reads and validates the config file, creating it with defaults
// on first run, and installs the logger it describes. A nil return means the
// failure was already reported on stderr.
func loadConfig(stderr io.Writer) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: load config %s: %v\n", configPath, err)
		return nil
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "Error: invalid config %s: %v\n", configPath, err)
		return nil
	}
	logging.Setup("grantchain", envName(), logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	return cfg
}

// openLedger takes the data-directory lock and loads the chain snapshot.
// Mutating commands pass exclusive; read-only commands share the lock with
// each other. The caller releases the lock when done with the ledger.
func openLedger(cfg *config.Config, exclusive bool, stderr io.Writer) (*core.Ledger, *storage.FileLock, bool) {
	acquire := storage.AcquireShared
	if exclusive {
		acquire = storage.AcquireExclusive
	}
	lock, err := acquire(cfg.Ledger.DataDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, nil, false
	}
	ledger, err := core.Open(storage.NewFileStore(cfg.Ledger.DataDir), core.Options{
		Difficulty:  cfg.Ledger.Difficulty,
		MaxAttempts: cfg.Ledger.MaxAttempts,
		AutoRecover: cfg.Ledger.AutoRecover,
	})
	if err != nil {
		lock.Release()
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, nil, false
	}
	return ledger, lock, true
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: grantchain [--config <path>] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The first run writes a default config.toml into the working directory; pass")
	fmt.Fprintln(w, "--config to keep it elsewhere.")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  grant <role> <user>   - Mines a block granting <role> to <user>")
	fmt.Fprintln(w, "  verify <role> <user>  - Checks whether a matching grant is on the chain")
	fmt.Fprintln(w, "  audit                 - Recomputes every hash and link on the chain")
	fmt.Fprintln(w, "  reset [--yes]         - Discards the chain and restarts at genesis")
	fmt.Fprintln(w, "  doctor                - Dials the configured services and health endpoint")
	fmt.Fprintln(w, "  report [--dir <path>] - Writes a Markdown status report for a git repository")
	fmt.Fprintln(w, "  scaffold              - Prepares the project checkout (dirs, .gitignore, deploy.yaml)")
	fmt.Fprintln(w, "  scaffold ingest       - Merges secrets_dump.txt into .env")
	fmt.Fprintln(w, "  secrets ensure        - Generates any managed secrets missing from the env file")
	fmt.Fprintln(w, "  secrets rotate        - Replaces every rotatable secret, backing up first")
}
