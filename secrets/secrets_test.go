package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
)

func testSpecs() []Spec {
	return []Spec{
		{Name: "JWT_SECRET_KEY", Length: 64, Rotate: true},
		{Name: "POSTGRES_PASSWORD", Length: 16, Rotate: false},
	}
}

func TestEnsureCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")

	added, err := Ensure(path, testSpecs())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(added) != 2 || added[0] != "JWT_SECRET_KEY" || added[1] != "POSTGRES_PASSWORD" {
		t.Fatalf("unexpected added keys: %v", added)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("parse written file: %v", err)
	}
	if len(env["JWT_SECRET_KEY"]) != 86 {
		t.Fatalf("64 random bytes should encode to 86 characters, got %d", len(env["JWT_SECRET_KEY"]))
	}
	if len(env["POSTGRES_PASSWORD"]) != 22 {
		t.Fatalf("16 random bytes should encode to 22 characters, got %d", len(env["POSTGRES_PASSWORD"]))
	}
}

func TestEnsureLeavesExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")
	if err := os.WriteFile(path, []byte("JWT_SECRET_KEY=keepme\n"), 0o600); err != nil {
		t.Fatalf("seed env file: %v", err)
	}

	added, err := Ensure(path, testSpecs())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(added) != 1 || added[0] != "POSTGRES_PASSWORD" {
		t.Fatalf("unexpected added keys: %v", added)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("parse written file: %v", err)
	}
	if env["JWT_SECRET_KEY"] != "keepme" {
		t.Fatalf("existing value overwritten: %s", env["JWT_SECRET_KEY"])
	}
	if env["POSTGRES_PASSWORD"] == "" {
		t.Fatal("missing key not added")
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")

	if _, err := Ensure(path, testSpecs()); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	added, err := Ensure(path, testSpecs())
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("second ensure added keys: %v", added)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("second ensure rewrote the file")
	}
}

func TestEnsureAppendsAfterUnterminatedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")
	if err := os.WriteFile(path, []byte("EXISTING=1"), 0o600); err != nil {
		t.Fatalf("seed env file: %v", err)
	}

	if _, err := Ensure(path, testSpecs()); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("parse written file: %v", err)
	}
	if env["EXISTING"] != "1" {
		t.Fatalf("unterminated existing line damaged: %q", env["EXISTING"])
	}
	if env["JWT_SECRET_KEY"] == "" {
		t.Fatal("appended key lost")
	}
}

func TestRotateReplacesValuesInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")
	seed := "# managed by ops\nJWT_SECRET_KEY=old-secret\nUNRELATED=keep\nPOSTGRES_PASSWORD=db-pass\n"
	if err := os.WriteFile(path, []byte(seed), 0o600); err != nil {
		t.Fatalf("seed env file: %v", err)
	}

	rotated, backup, err := Rotate(path, testSpecs())
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if len(rotated) != 1 || rotated[0] != "JWT_SECRET_KEY" {
		t.Fatalf("unexpected rotated keys: %v", rotated)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rotated file: %v", err)
	}
	content := string(raw)
	if !strings.HasPrefix(content, "# managed by ops\n") {
		t.Fatalf("comment line lost: %q", content)
	}
	if strings.Contains(content, "old-secret") {
		t.Fatal("old secret still present after rotation")
	}
	if !strings.Contains(content, "UNRELATED=keep") {
		t.Fatal("unmanaged line lost")
	}
	if !strings.Contains(content, "POSTGRES_PASSWORD=db-pass") {
		t.Fatal("non-rotatable key was rotated")
	}

	backupRaw, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(backupRaw) != seed {
		t.Fatalf("backup does not preserve the original file: %q", string(backupRaw))
	}
	if !strings.HasSuffix(backup, ".bak") {
		t.Fatalf("unexpected backup name: %s", backup)
	}
}

func TestRotateAppendsMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")
	if err := os.WriteFile(path, []byte("UNRELATED=keep\n"), 0o600); err != nil {
		t.Fatalf("seed env file: %v", err)
	}

	rotated, _, err := Rotate(path, testSpecs())
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if len(rotated) != 1 || rotated[0] != "JWT_SECRET_KEY" {
		t.Fatalf("unexpected rotated keys: %v", rotated)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("parse rotated file: %v", err)
	}
	if env["JWT_SECRET_KEY"] == "" {
		t.Fatal("missing rotatable key not appended")
	}
}

func TestRotateHandlesExportPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.local")
	if err := os.WriteFile(path, []byte("export JWT_SECRET_KEY=old\n"), 0o600); err != nil {
		t.Fatalf("seed env file: %v", err)
	}

	if _, _, err := Rotate(path, testSpecs()); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if strings.Contains(string(raw), "=old") {
		t.Fatal("exported assignment not rotated")
	}
	if count := strings.Count(string(raw), "JWT_SECRET_KEY"); count != 1 {
		t.Fatalf("rotation duplicated the key %d times", count)
	}
}

func TestRotateRequiresFile(t *testing.T) {
	_, _, err := Rotate(filepath.Join(t.TempDir(), ".env.local"), testSpecs())
	if !errors.Is(err, ErrNoEnvFile) {
		t.Fatalf("rotate on missing file returned %v, want ErrNoEnvFile", err)
	}
}

func TestGenerateAlphabet(t *testing.T) {
	value, err := generate(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(value) != 43 {
		t.Fatalf("32 random bytes should encode to 43 characters, got %d", len(value))
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			t.Fatalf("value contains non URL-safe rune %q", r)
		}
	}
}
