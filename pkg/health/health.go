// Package health provides a concurrent preflight-check framework. External
// corpus and reporting dependencies (Postgres, Redis, Kafka) register Check
// functions, and the Checker runs them in parallel before a clustering run
// starts so a run never fails halfway through on a dead dependency.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Status represents the health state of a component or the system overall.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check is a function that probes a single dependency and returns its status.
type Check func(ctx context.Context) ComponentHealth

// ComponentHealth holds the result of a single component check.
type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Report is the aggregated result of all component checks.
type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Checker manages registered preflight checks and runs them concurrently.
type Checker struct {
	checks map[string]Check
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewChecker creates an empty Checker.
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]Check),
		logger: slog.Default().With("component", "health"),
	}
}

// Register adds a named preflight check.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run executes all registered checks concurrently and aggregates the results.
// The overall status is down if any component is down, up only when all
// components are up.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]ComponentHealth, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			start := time.Now()
			health := check(ctx)
			health.Latency = time.Since(start).String()
			mu.Lock()
			results[name] = health
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	overall := StatusUp
	for name, health := range results {
		if health.Status == StatusDown {
			overall = StatusDown
			c.logger.Warn("preflight check failed", "component", name, "message", health.Message)
		} else if health.Status == StatusDegraded && overall == StatusUp {
			overall = StatusDegraded
		}
	}

	return Report{
		Status:     overall,
		Components: results,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// PingCheck wraps a plain ping function into a Check.
func PingCheck(ping func(ctx context.Context) error) Check {
	return func(ctx context.Context) ComponentHealth {
		if err := ping(ctx); err != nil {
			return ComponentHealth{Status: StatusDown, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}
