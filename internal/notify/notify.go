// Package notify provides pluggable notification providers behind a
// common interface, plus a manager that routes deliveries to named
// provider instances.
package notify

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

// Result is the structured outcome of a delivery or connectivity test.
type Result struct {
	Status           Status
	Message          string
	ErrorDetails     string
	ProviderResponse map[string]any
	DeliveryTime     time.Duration
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Failed builds a failed Result with the given diagnostic detail.
func Failed(details string) Result {
	return Result{Status: StatusFailed, ErrorDetails: details}
}

// Provider is one configured notification backend.
type Provider interface {
	// Send delivers a message, optionally attaching the audio file at
	// audioPath when the backend supports attachments. Providers that
	// cannot attach files send the message alone.
	Send(ctx context.Context, message, audioPath string) Result
	// IsConfigured reports whether required settings look present,
	// using only cheap local checks.
	IsConfigured() bool
	// TestConnection performs a live round trip against the backend.
	TestConnection(ctx context.Context) Result
	// Name returns the display name, including the instance name.
	Name() string
	// Cleanup releases backend resources.
	Cleanup()
}
