// Package tts provides pluggable text-to-speech providers behind a
// common interface, plus a manager that routes synthesis requests to
// named provider instances.
package tts

import (
	"context"
	"strings"
	"time"
)

// Status is the outcome classification of a provider operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// Result is the structured outcome of a synthesis or connectivity test.
type Result struct {
	Status           Status
	OutputFile       string
	AudioDuration    time.Duration
	ErrorDetails     string
	ProviderResponse map[string]any
	GenerationTime   time.Duration
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Failed builds a failed Result with the given diagnostic detail.
func Failed(details string) Result {
	return Result{Status: StatusFailed, ErrorDetails: details}
}

// Provider is one configured TTS backend.
type Provider interface {
	// Synthesize renders text to an audio file at outputPath. Failures
	// come back as a failed Result, never a Go error.
	Synthesize(ctx context.Context, text, outputPath string) Result
	// IsConfigured reports whether required settings look present,
	// using only cheap local checks.
	IsConfigured() bool
	// TestConnection performs a live round trip against the backend.
	TestConnection(ctx context.Context) Result
	// Name returns the display name, including the instance name.
	Name() string
	// Cleanup releases lazily acquired backend resources.
	Cleanup()
}

// loadState tracks lazy backend initialization; a failed load is cached.
type loadState int

const (
	loadPending loadState = iota
	loadReady
	loadFailed
)

// EstimateSpokenMinutes estimates audio length from word count at a
// typical speaking rate of about 150 words per minute.
func EstimateSpokenMinutes(text string) int {
	return len(strings.Fields(text)) / 150
}
