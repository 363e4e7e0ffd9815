// Package secrets creates and rotates the random credentials a deployment
// keeps in its dotenv file. Values are URL-safe random strings; they are
// written to the file and never logged in the clear.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"grantchain/observability/logging"
)

// ErrNoEnvFile is returned by Rotate when the dotenv file does not exist
// yet; rotation replaces values, it does not bootstrap the file.
var ErrNoEnvFile = errors.New("secrets: env file does not exist, run ensure first")

// Spec names one managed secret. Length is the number of random bytes
// drawn before encoding, so the written value is about a third longer.
type Spec struct {
	Name   string
	Length int
	Rotate bool
}

// Ensure appends a freshly generated value for every spec missing from the
// dotenv file, creating the file when absent. Existing values are never
// touched. It returns the names that were added, in spec order.
func Ensure(path string, specs []Spec) ([]string, error) {
	existing, err := readEnv(path)
	if err != nil {
		return nil, err
	}

	var added []string
	var pending strings.Builder
	for _, spec := range specs {
		if _, ok := existing[spec.Name]; ok {
			continue
		}
		value, err := generate(spec.Length)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&pending, "%s=%s\n", spec.Name, value)
		added = append(added, spec.Name)
		slog.Debug("generated secret", "key", spec.Name, logging.MaskField("value", value))
	}
	if len(added) == 0 {
		return nil, nil
	}
	if err := appendLines(path, pending.String()); err != nil {
		return nil, err
	}
	return added, nil
}

// Rotate replaces the value of every rotatable spec in place, appending the
// ones the file does not carry yet. Comments and unmanaged lines survive
// untouched. The previous file is copied to <path>.<timestamp>.bak before
// anything is rewritten; the backup path is returned alongside the rotated
// names.
func Rotate(path string, specs []Spec) ([]string, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrNoEnvFile
		}
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}

	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().UTC().Format("20060102-150405"))
	if err := os.WriteFile(backup, raw, 0o600); err != nil {
		return nil, "", fmt.Errorf("write backup %s: %w", backup, err)
	}

	lines := strings.Split(string(raw), "\n")
	var rotated []string
	for _, spec := range specs {
		if !spec.Rotate {
			continue
		}
		value, err := generate(spec.Length)
		if err != nil {
			return nil, "", err
		}
		replaced := false
		for i, line := range lines {
			if lineSetsKey(line, spec.Name) {
				lines[i] = spec.Name + "=" + value
				replaced = true
				break
			}
		}
		if !replaced {
			lines = appendLine(lines, spec.Name+"="+value)
		}
		rotated = append(rotated, spec.Name)
		slog.Debug("rotated secret", "key", spec.Name, logging.MaskField("value", value))
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600); err != nil {
		return nil, "", fmt.Errorf("write %s: %w", path, err)
	}
	return rotated, backup, nil
}

// readEnv parses the dotenv file into a key set, treating a missing file as
// empty.
func readEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return env, nil
}

// generate draws length random bytes and encodes them URL-safe without
// padding, the same alphabet the original deployment tooling used.
func generate(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("draw randomness: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// lineSetsKey reports whether the line assigns the given key, tolerating
// leading whitespace and the optional export prefix.
func lineSetsKey(line, key string) bool {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "export ")
	trimmed = strings.TrimSpace(trimmed)
	return strings.HasPrefix(trimmed, key+"=")
}

// appendLine adds an assignment before any trailing empty line so the file
// keeps ending in a newline.
func appendLine(lines []string, assignment string) []string {
	if n := len(lines); n > 0 && lines[n-1] == "" {
		return append(lines[:n-1], assignment, "")
	}
	return append(lines, assignment)
}

// appendLines appends raw content, inserting a separating newline when the
// file does not end with one.
func appendLines(path, content string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		content = "\n" + content
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return nil
}
