// Package llm provides pluggable large-language-model providers behind a
// common interface, plus a manager that routes generation requests to
// named provider instances.
package llm

import (
	"context"
	"time"
)

// Status is the outcome classification of a provider operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// Result is the structured outcome of a generation or connectivity test.
// Failures are reported here rather than as Go errors so that callers can
// log and persist diagnostics uniformly.
type Result struct {
	Status           Status
	Response         string
	ErrorDetails     string
	ProviderResponse map[string]any
	GenerationTime   time.Duration
	TokenCount       int
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Failed builds a failed Result with the given diagnostic detail.
func Failed(details string) Result {
	return Result{Status: StatusFailed, ErrorDetails: details}
}

// Options tunes a single generation call. Zero values mean provider
// defaults.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Provider is one configured LLM backend.
type Provider interface {
	// Generate produces text for the prompts. It never returns a Go
	// error; failures come back as a failed Result.
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) Result
	// IsConfigured reports whether required settings look present and
	// plausible, without any network or filesystem access beyond cheap
	// local checks.
	IsConfigured() bool
	// TestConnection performs a live round trip against the backend.
	TestConnection(ctx context.Context) Result
	// Name returns the display name, including the instance name.
	Name() string
	// Cleanup releases lazily acquired backend resources. Safe to call
	// repeatedly.
	Cleanup()
}

// loadState tracks lazy backend initialization. A failed load is cached
// so the provider does not retry on every call.
type loadState int

const (
	loadPending loadState = iota
	loadReady
	loadFailed
)
