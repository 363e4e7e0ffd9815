// Package report collects git metadata for a checkout and renders it as a
// timestamped Markdown status report.
package report

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// now feeds run timestamps and report filenames. Tests replace it.
var now = time.Now

// Status is everything one report run learned about a repository.
type Status struct {
	RunID         string
	Generated     string
	Dir           string
	Branch        string
	Clean         bool
	ChangedFiles  int
	Remotes       []string
	Branches      []string
	RecentCommits []string
}

// git runs one git subcommand against the repository directory and returns
// its trimmed stdout. Stderr rides along in the error for diagnostics.
func git(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// nonEmptyLines splits command output into lines, dropping blanks.
func nonEmptyLines(out string) []string {
	if out == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// Collect inspects the repository at dir. A directory that is not a git
// worktree is an error; a repository without commits yet is not.
func Collect(dir string) (*Status, error) {
	if _, err := git(dir, "rev-parse", "--is-inside-work-tree"); err != nil {
		return nil, fmt.Errorf("%s is not a git repository: %w", dir, err)
	}

	status := &Status{
		RunID:     uuid.NewString(),
		Generated: now().UTC().Format(time.RFC3339),
		Dir:       dir,
	}

	branch, err := git(dir, "branch", "--show-current")
	if err != nil {
		return nil, err
	}
	if branch == "" {
		branch = "(detached HEAD)"
	}
	status.Branch = branch

	porcelain, err := git(dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	changed := nonEmptyLines(porcelain)
	status.Clean = len(changed) == 0
	status.ChangedFiles = len(changed)

	remotes, err := git(dir, "remote")
	if err != nil {
		return nil, err
	}
	status.Remotes = nonEmptyLines(remotes)

	branches, err := git(dir, "branch", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	status.Branches = nonEmptyLines(branches)

	// A repository without commits has no log; that is not a failure.
	if log, err := git(dir, "log", "--oneline", "-n", "5"); err == nil {
		status.RecentCommits = nonEmptyLines(log)
	}

	return status, nil
}

// Render formats the status as Markdown.
func Render(s *Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Repository status\n\n")
	fmt.Fprintf(&b, "- Run ID: %s\n", s.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", s.Generated)
	fmt.Fprintf(&b, "- Directory: %s\n\n", s.Dir)

	fmt.Fprintf(&b, "## Branch\n\n`%s`\n\n", s.Branch)

	fmt.Fprintf(&b, "## Worktree\n\n")
	if s.Clean {
		fmt.Fprintf(&b, "clean\n\n")
	} else {
		fmt.Fprintf(&b, "%d file(s) changed\n\n", s.ChangedFiles)
	}

	writeList := func(title string, items []string) {
		fmt.Fprintf(&b, "## %s\n\n", title)
		if len(items) == 0 {
			fmt.Fprintf(&b, "_none_\n\n")
			return
		}
		for _, item := range items {
			fmt.Fprintf(&b, "- %s\n", item)
		}
		fmt.Fprintf(&b, "\n")
	}
	writeList("Remotes", s.Remotes)
	writeList("Local branches", s.Branches)
	writeList("Recent commits", s.RecentCommits)

	return b.String()
}

// Write renders the status into <outDir>/repo_status_<timestamp>.md and
// returns the file path.
func Write(s *Status, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	name := fmt.Sprintf("repo_status_%s.md", now().UTC().Format("20060102-150405"))
	path := filepath.Join(outDir, name)
	if err := os.WriteFile(path, []byte(Render(s)), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}
