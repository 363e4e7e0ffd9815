// Package confirm guards destructive commands behind an interactive y/n
// prompt. Non-interactive sessions must pass the bypass flag instead of
// getting a silent default.
package confirm

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Ask prints the question on stderr and reads one line from stdin. It
// answers true only for an explicit yes. When stdin is not a terminal it
// returns an error naming the flag that skips the prompt.
func Ask(question, bypassFlag string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("confirmation required; re-run interactively or pass %s", bypassFlag)
	}

	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
