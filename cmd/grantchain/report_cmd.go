package main

import (
	"flag"
	"fmt"
	"io"

	"grantchain/report"
)

func runReportCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var dir string
	fs.StringVar(&dir, "dir", ".", "repository to inspect")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 2
	}

	cfg := loadConfig(stderr)
	if cfg == nil {
		return 1
	}

	status, err := report.Collect(dir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	path, err := report.Write(status, cfg.Report.OutputDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if !status.Clean {
		fmt.Fprintf(stdout, "Worktree dirty: %d changed files\n", status.ChangedFiles)
	}
	fmt.Fprintf(stdout, "Report written: %s\n", path)
	return 0
}
