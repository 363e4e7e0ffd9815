package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where commands look for the config file unless --config
// points elsewhere.
const DefaultPath = "./config.toml"

// Load reads the configuration from the given path. A missing file is not
// an error: the defaults are written there and returned, so a first run
// leaves a file the operator can edit. The PORT environment variable, when
// set, overrides the ide-backend probe port after decoding; it is never
// persisted.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err = createDefault(path)
		if err != nil {
			return nil, err
		}
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyDefaults fills sections the file left empty so a partial config
// still behaves like the shipped default.
func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Ledger.DataDir == "" {
		cfg.Ledger.DataDir = def.Ledger.DataDir
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = def.Log.MaxBackups
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = def.Log.MaxAgeDays
	}
	if cfg.Probe.TimeoutSeconds == 0 {
		cfg.Probe.TimeoutSeconds = def.Probe.TimeoutSeconds
	}
	if len(cfg.Probe.Services) == 0 {
		cfg.Probe.Services = def.Probe.Services
	}
	if cfg.Probe.HealthURL == "" {
		cfg.Probe.HealthURL = def.Probe.HealthURL
	}
	if cfg.Secrets.EnvFile == "" {
		cfg.Secrets.EnvFile = def.Secrets.EnvFile
	}
	if len(cfg.Secrets.Keys) == 0 {
		cfg.Secrets.Keys = def.Secrets.Keys
	}
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = def.Report.OutputDir
	}
	if cfg.Scaffold.Root == "" {
		cfg.Scaffold.Root = def.Scaffold.Root
	}
}

// applyEnvOverrides resolves the PORT variable the way the deployment
// environment expects: it moves the ide-backend probe target and, when the
// health URL was left at its default, the health check follows the port.
func applyEnvOverrides(cfg *Config) {
	raw := os.Getenv("PORT")
	if raw == "" {
		return
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return
	}
	def := defaultConfig()
	for i := range cfg.Probe.Services {
		if cfg.Probe.Services[i].Name == "ide-backend" {
			cfg.Probe.Services[i].Port = port
		}
	}
	if cfg.Probe.HealthURL == def.Probe.HealthURL {
		cfg.Probe.HealthURL = "http://localhost:" + raw + "/api/health"
	}
}

func defaultConfig() *Config {
	return &Config{
		Ledger: Ledger{
			DataDir:     "./grantchain-data",
			Difficulty:  2,
			MaxAttempts: 0,
			AutoRecover: false,
		},
		Log: Log{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Probe: Probe{
			TimeoutSeconds: 2,
			HealthURL:      "http://localhost:4100/api/health",
			Services: []ProbeService{
				{Name: "postgres", Host: "localhost", Port: 5432},
				{Name: "redis", Host: "localhost", Port: 6379},
				{Name: "ide-backend", Host: "localhost", Port: 4100},
			},
		},
		Secrets: Secrets{
			EnvFile: ".env.local",
			Keys: []SecretKey{
				{Name: "JWT_SECRET_KEY", Length: 64, Rotate: true},
				{Name: "GRANTCHAIN_AUTH_TOKEN", Length: 32, Rotate: true},
				{Name: "WEBHOOK_SIGNATURE_SECRET", Length: 32, Rotate: true},
				{Name: "ENCRYPTION_KEY", Length: 32, Rotate: false},
				{Name: "POSTGRES_PASSWORD", Length: 16, Rotate: false},
				{Name: "REDIS_PASSWORD", Length: 16, Rotate: false},
			},
		},
		Report: Report{
			OutputDir: "./reports",
		},
		Scaffold: Scaffold{
			Root: ".",
		},
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
