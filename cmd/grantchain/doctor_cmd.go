package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"

	"grantchain/config"
	"grantchain/probe"
)

func runDoctorCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) != 0 {
		fmt.Fprintln(stderr, "Usage: grantchain doctor")
		return 2
	}

	cfg := loadConfig(stderr)
	if cfg == nil {
		return 1
	}

	success := pterm.Success.WithWriter(stdout)
	failure := pterm.Error.WithWriter(stdout)
	warning := pterm.Warning.WithWriter(stdout)
	info := pterm.Info.WithWriter(stdout)

	prober := probe.New(time.Duration(cfg.Probe.TimeoutSeconds) * time.Second)
	ctx := context.Background()

	results := prober.CheckPorts(ctx, targetsFromConfig(cfg))
	for _, r := range results {
		if r.Err != nil {
			failure.Printfln("%s: %v", r.Target.Name, r.Err)
			continue
		}
		success.Printfln("%s reachable at %s", r.Target.Name, r.Target.Addr())
	}

	// The health endpoint is advisory: a backend still booting behind open
	// ports downgrades to a warning, not a failure.
	health := prober.CheckHealth(ctx, cfg.Probe.HealthURL)
	switch {
	case health.OK():
		success.Printfln("health endpoint %s answered 200", health.URL)
	case health.Err != nil:
		warning.Printfln("health endpoint %s unreachable: %v", health.URL, health.Err)
	default:
		warning.Printfln("health endpoint %s answered %d", health.URL, health.Status)
	}

	if !probe.Healthy(results) {
		failure.Printfln("Some services are down.")
		return 1
	}
	info.Printfln("All services reachable.")
	return 0
}

func targetsFromConfig(cfg *config.Config) []probe.Target {
	targets := make([]probe.Target, 0, len(cfg.Probe.Services))
	for _, svc := range cfg.Probe.Services {
		targets = append(targets, probe.Target{Name: svc.Name, Host: svc.Host, Port: svc.Port})
	}
	return targets
}
