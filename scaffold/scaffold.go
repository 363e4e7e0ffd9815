// Package scaffold prepares a project checkout for deployment: directory
// skeleton, ignore rules for secret-bearing files, a deployment blueprint,
// and ingestion of pasted secrets into the env file. Every operation is
// idempotent.
package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DumpFile is where operators paste secrets before ingestion.
	DumpFile = "secrets_dump.txt"
	// BlueprintFile is the rendered deployment blueprint.
	BlueprintFile = "deploy.yaml"
	// EnvFile is the target of ingestion.
	EnvFile = ".env"
)

// skeletonDirs are created relative to the project root.
var skeletonDirs = []string{"src", "public", filepath.Join(".github", "workflows"), "docs"}

// gitignoreEntries keep secret-bearing files out of version control.
var gitignoreEntries = []string{".env", ".venv", DumpFile}

const dumpTemplate = `# Paste secrets below as KEY=VALUE or KEY: value lines.
# Run "grantchain scaffold ingest" to merge them into ` + EnvFile + ` and purge this file.
`

type blueprintEnvVar struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

type blueprintService struct {
	Type            string            `yaml:"type"`
	Name            string            `yaml:"name"`
	Env             string            `yaml:"env"`
	Plan            string            `yaml:"plan"`
	HealthCheckPath string            `yaml:"healthCheckPath,omitempty"`
	EnvVars         []blueprintEnvVar `yaml:"envVars,omitempty"`
}

type blueprintDatabase struct {
	Name string `yaml:"name"`
	Plan string `yaml:"plan"`
}

type blueprint struct {
	Services  []blueprintService  `yaml:"services"`
	Databases []blueprintDatabase `yaml:"databases"`
}

func defaultBlueprint() blueprint {
	return blueprint{
		Services: []blueprintService{
			{
				Type:            "web",
				Name:            "grantchain-backend",
				Env:             "docker",
				Plan:            "starter",
				HealthCheckPath: "/api/health",
				EnvVars: []blueprintEnvVar{
					{Key: "PORT", Value: "4100"},
				},
			},
		},
		Databases: []blueprintDatabase{
			{Name: "grantchain-db", Plan: "starter"},
		},
	}
}

// Result lists what Apply changed. A second run on the same tree reports
// nothing.
type Result struct {
	CreatedDirs    []string
	GitignoreAdded []string
	WroteDump      bool
	WroteBlueprint bool
}

// Changed reports whether Apply touched anything.
func (r *Result) Changed() bool {
	return len(r.CreatedDirs) > 0 || len(r.GitignoreAdded) > 0 || r.WroteDump || r.WroteBlueprint
}

// Apply prepares the project root.
func Apply(root string) (*Result, error) {
	res := &Result{}

	for _, dir := range skeletonDirs {
		path := filepath.Join(root, dir)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		res.CreatedDirs = append(res.CreatedDirs, dir)
	}

	added, err := ensureGitignore(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil, err
	}
	res.GitignoreAdded = added

	dumpPath := filepath.Join(root, DumpFile)
	if _, err := os.Stat(dumpPath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(dumpPath, []byte(dumpTemplate), 0o600); err != nil {
			return nil, fmt.Errorf("write %s: %w", dumpPath, err)
		}
		res.WroteDump = true
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dumpPath, err)
	}

	blueprintPath := filepath.Join(root, BlueprintFile)
	if _, err := os.Stat(blueprintPath); errors.Is(err, fs.ErrNotExist) {
		rendered, err := yaml.Marshal(defaultBlueprint())
		if err != nil {
			return nil, fmt.Errorf("render blueprint: %w", err)
		}
		if err := os.WriteFile(blueprintPath, rendered, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", blueprintPath, err)
		}
		res.WroteBlueprint = true
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", blueprintPath, err)
	}

	return res, nil
}

// ensureGitignore appends the managed entries missing from the file,
// creating it when absent. Entries already present, with or without
// surrounding whitespace, are left alone.
func ensureGitignore(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	present := make(map[string]struct{})
	for _, line := range strings.Split(string(raw), "\n") {
		present[strings.TrimSpace(line)] = struct{}{}
	}

	var missing []string
	for _, entry := range gitignoreEntries {
		if _, ok := present[entry]; !ok {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	var out strings.Builder
	out.Write(raw)
	if len(raw) > 0 && raw[len(raw)-1] != '\n' {
		out.WriteByte('\n')
	}
	for _, entry := range missing {
		out.WriteString(entry)
		out.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(out.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return missing, nil
}

// IngestResult summarises one ingestion run.
type IngestResult struct {
	// Merged is the number of keys written into the env file.
	Merged int
	// Purged reports whether the dump file was deleted afterwards.
	Purged bool
}

// Ingest merges KEY=VALUE and KEY: value lines from the dump file into the
// project's env file, updating keys in place and appending new ones. With
// purge set the dump file is removed after a successful merge.
func Ingest(root string, purge bool) (*IngestResult, error) {
	dumpPath := filepath.Join(root, DumpFile)
	raw, err := os.ReadFile(dumpPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s not found, run scaffold first", dumpPath)
		}
		return nil, fmt.Errorf("read %s: %w", dumpPath, err)
	}

	pairs := parseDump(string(raw))
	if len(pairs) == 0 {
		return &IngestResult{}, nil
	}

	envPath := filepath.Join(root, EnvFile)
	if err := mergeEnv(envPath, pairs); err != nil {
		return nil, err
	}

	res := &IngestResult{Merged: len(pairs)}
	if purge {
		if err := os.Remove(dumpPath); err != nil {
			return nil, fmt.Errorf("purge %s: %w", dumpPath, err)
		}
		res.Purged = true
	}
	return res, nil
}

type pair struct {
	key   string
	value string
}

// parseDump accepts both assignment styles and ignores comments and blank
// lines. The last assignment of a repeated key wins.
func parseDump(raw string) []pair {
	index := make(map[string]int)
	var pairs []pair
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		var key, value string
		if eq := strings.Index(trimmed, "="); eq > 0 {
			key, value = trimmed[:eq], trimmed[eq+1:]
		} else if colon := strings.Index(trimmed, ":"); colon > 0 {
			key, value = trimmed[:colon], trimmed[colon+1:]
		} else {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		if at, ok := index[key]; ok {
			pairs[at].value = value
			continue
		}
		index[key] = len(pairs)
		pairs = append(pairs, pair{key: key, value: value})
	}
	return pairs
}

// mergeEnv rewrites assignments for known keys and appends the rest,
// preserving every other line of the env file.
func mergeEnv(path string, pairs []pair) error {
	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	lines := strings.Split(string(raw), "\n")
	for _, p := range pairs {
		assignment := p.key + "=" + p.value
		replaced := false
		for i, line := range lines {
			trimmed := strings.TrimSpace(line)
			trimmed = strings.TrimPrefix(trimmed, "export ")
			if strings.HasPrefix(strings.TrimSpace(trimmed), p.key+"=") {
				lines[i] = assignment
				replaced = true
				break
			}
		}
		if replaced {
			continue
		}
		if n := len(lines); n > 0 && lines[n-1] == "" {
			lines = append(lines[:n-1], assignment, "")
		} else {
			lines = append(lines, assignment)
		}
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
