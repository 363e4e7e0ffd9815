package config

// Ledger controls where the chain snapshot lives and how blocks are mined.
type Ledger struct {
	// DataDir holds chain_head.json and the advisory lock file.
	DataDir string `toml:"DataDir"`
	// Difficulty is the number of leading zero hex digits a mined hash
	// must carry. Mining cost grows as 16^Difficulty.
	Difficulty int `toml:"Difficulty"`
	// MaxAttempts bounds one mining run; 0 disables the bound.
	MaxAttempts uint64 `toml:"MaxAttempts"`
	// AutoRecover silently resets a corrupt snapshot to genesis instead
	// of failing. The reset is logged at WARN.
	AutoRecover bool `toml:"AutoRecover"`
}

// Log controls the slog output. File enables the rotating sink; with an
// empty File logs go to stderr only.
type Log struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// ProbeService is one TCP endpoint the doctor command dials.
type ProbeService struct {
	Name string `toml:"Name"`
	Host string `toml:"Host"`
	Port int    `toml:"Port"`
}

// Probe configures the doctor command.
type Probe struct {
	TimeoutSeconds int            `toml:"TimeoutSeconds"`
	HealthURL      string         `toml:"HealthURL"`
	Services       []ProbeService `toml:"Services"`
}

// SecretKey names one managed secret. Length is the random byte count
// before URL-safe encoding. Rotate marks keys replaced by `secrets rotate`;
// non-rotatable keys (database passwords, the encryption key) are only ever
// created by `secrets ensure`.
type SecretKey struct {
	Name   string `toml:"Name"`
	Length int    `toml:"Length"`
	Rotate bool   `toml:"Rotate"`
}

// Secrets configures the dotenv file the secrets command manages.
type Secrets struct {
	EnvFile string      `toml:"EnvFile"`
	Keys    []SecretKey `toml:"Keys"`
}

// Report configures where status reports are written.
type Report struct {
	OutputDir string `toml:"OutputDir"`
}

// Scaffold configures the project root the scaffold command prepares.
type Scaffold struct {
	Root string `toml:"Root"`
}

// Config bundles every section of the config file.
type Config struct {
	Ledger   Ledger   `toml:"Ledger"`
	Log      Log      `toml:"Log"`
	Probe    Probe    `toml:"Probe"`
	Secrets  Secrets  `toml:"Secrets"`
	Report   Report   `toml:"Report"`
	Scaffold Scaffold `toml:"Scaffold"`
}
