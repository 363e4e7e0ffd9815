// Package probe dials the services a grantchain deployment depends on and
// reports which of them answer. It never touches ledger state.
package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Target is one TCP endpoint to check.
type Target struct {
	Name string
	Host string
	Port int
}

// Addr returns the host:port dial string.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, fmt.Sprintf("%d", t.Port))
}

// Result is the outcome of one port check. Err is nil when the dial
// succeeded within the timeout.
type Result struct {
	Target Target
	Err    error
}

// HealthResult is the outcome of the HTTP health check. Status is only
// meaningful when Err is nil.
type HealthResult struct {
	URL    string
	Status int
	Err    error
}

// OK reports whether the endpoint answered with status 200.
func (h HealthResult) OK() bool {
	return h.Err == nil && h.Status == http.StatusOK
}

// Prober runs the checks with one shared timeout per attempt.
type Prober struct {
	timeout time.Duration
	client  *http.Client
}

// New returns a prober whose dials and HTTP requests each give up after
// timeout.
func New(timeout time.Duration) *Prober {
	return &Prober{
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// CheckPort dials the target once.
func (p *Prober) CheckPort(ctx context.Context, target Target) Result {
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", target.Addr())
	if err != nil {
		return Result{Target: target, Err: fmt.Errorf("dial %s: %w", target.Addr(), err)}
	}
	conn.Close()
	return Result{Target: target}
}

// CheckPorts dials every target in order.
func (p *Prober) CheckPorts(ctx context.Context, targets []Target) []Result {
	results := make([]Result, 0, len(targets))
	for _, target := range targets {
		results = append(results, p.CheckPort(ctx, target))
	}
	return results
}

// CheckHealth GETs the health endpoint. A reachable endpoint with any
// non-200 status is reported through Status, not Err.
func (p *Prober) CheckHealth(ctx context.Context, url string) HealthResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return HealthResult{URL: url, Err: err}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return HealthResult{URL: url, Err: err}
	}
	defer resp.Body.Close()
	return HealthResult{URL: url, Status: resp.StatusCode}
}

// Healthy reports whether every port check passed. The HTTP health check
// does not participate: a booting backend with open ports is still treated
// as reachable.
func Healthy(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return false
		}
	}
	return true
}
