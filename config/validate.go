package config

import (
	"fmt"
	"strings"
)

// MaxDifficulty caps the proof-of-work target; a 64 hex digit SHA-256 hash
// cannot carry more leading zeros than digits.
const MaxDifficulty = 64

// Validate rejects configurations no command could run with.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Ledger.DataDir) == "" {
		return fmt.Errorf("ledger: DataDir empty")
	}
	if cfg.Ledger.Difficulty < 0 || cfg.Ledger.Difficulty > MaxDifficulty {
		return fmt.Errorf("ledger: Difficulty outside 0..%d", MaxDifficulty)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log: unknown Level %q", cfg.Log.Level)
	}
	if cfg.Log.File != "" {
		if cfg.Log.MaxSizeMB <= 0 {
			return fmt.Errorf("log: MaxSizeMB <= 0")
		}
		if cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
			return fmt.Errorf("log: negative retention")
		}
	}
	if cfg.Probe.TimeoutSeconds <= 0 {
		return fmt.Errorf("probe: TimeoutSeconds <= 0")
	}
	for _, svc := range cfg.Probe.Services {
		if strings.TrimSpace(svc.Name) == "" || strings.TrimSpace(svc.Host) == "" {
			return fmt.Errorf("probe: service with empty Name or Host")
		}
		if svc.Port < 1 || svc.Port > 65535 {
			return fmt.Errorf("probe: service %s port outside 1..65535", svc.Name)
		}
	}
	if strings.TrimSpace(cfg.Secrets.EnvFile) == "" {
		return fmt.Errorf("secrets: EnvFile empty")
	}
	for _, key := range cfg.Secrets.Keys {
		if strings.TrimSpace(key.Name) == "" {
			return fmt.Errorf("secrets: key with empty Name")
		}
		if key.Length < 1 {
			return fmt.Errorf("secrets: key %s Length < 1", key.Name)
		}
	}
	if strings.TrimSpace(cfg.Report.OutputDir) == "" {
		return fmt.Errorf("report: OutputDir empty")
	}
	if strings.TrimSpace(cfg.Scaffold.Root) == "" {
		return fmt.Errorf("scaffold: Root empty")
	}
	return nil
}
