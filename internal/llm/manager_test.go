package llm

import (
	"context"
	"testing"

	"reclaim/internal/config"
	"reclaim/internal/provider"
)

// stubProvider is a scriptable provider for manager tests.
type stubProvider struct {
	name       string
	configured bool
	generated  int
	response   string
}

func (s *stubProvider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) Result {
	s.generated++
	if !s.configured {
		return Failed("stub not configured")
	}
	return Result{Status: StatusSuccess, Response: s.response}
}

func (s *stubProvider) IsConfigured() bool                        { return s.configured }
func (s *stubProvider) TestConnection(ctx context.Context) Result { return s.Generate(ctx, "", "ping", Options{}) }
func (s *stubProvider) Name() string                              { return s.name }
func (s *stubProvider) Cleanup()                                  {}

// registerStubs installs a "stub" factory whose configured state comes
// from the instance settings, and returns the created providers by name.
func registerStubs(t *testing.T) map[string]*stubProvider {
	t.Helper()
	created := make(map[string]*stubProvider)
	Register("stub", func(instanceName string, cfg provider.Settings) Provider {
		p := &stubProvider{
			name:       instanceName,
			configured: cfg.Bool("configured", false),
			response:   cfg.String("response", "stub response"),
		}
		created[instanceName] = p
		return p
	})
	return created
}

func instance(name string, configured bool) config.ProviderInstance {
	return config.ProviderInstance{
		Name:    name,
		Type:    "stub",
		Enabled: true,
		Config:  map[string]any{"configured": configured},
	}
}

func TestManagerAutoSelectsFirstConfigured(t *testing.T) {
	stubs := registerStubs(t)

	m := NewManager([]config.ProviderInstance{
		instance("alpha", false),
		instance("beta", true),
		instance("gamma", true),
	})

	for i := 0; i < 3; i++ {
		result := m.Generate(context.Background(), "summarize this", "", "", Options{})
		if !result.OK() {
			t.Fatalf("Generate failed: %s", result.ErrorDetails)
		}
	}

	if stubs["alpha"].generated != 0 {
		t.Errorf("unconfigured alpha was called %d times", stubs["alpha"].generated)
	}
	if stubs["beta"].generated != 3 {
		t.Errorf("expected beta to take all 3 calls, got %d", stubs["beta"].generated)
	}
	if stubs["gamma"].generated != 0 {
		t.Errorf("gamma should never be auto-selected, got %d calls", stubs["gamma"].generated)
	}
}

func TestManagerExplicitInstance(t *testing.T) {
	stubs := registerStubs(t)

	m := NewManager([]config.ProviderInstance{
		instance("alpha", true),
		instance("beta", true),
	})

	result := m.Generate(context.Background(), "prompt", "beta", "", Options{})
	if !result.OK() {
		t.Fatalf("Generate failed: %s", result.ErrorDetails)
	}
	if stubs["beta"].generated != 1 || stubs["alpha"].generated != 0 {
		t.Errorf("expected only beta to be called: alpha=%d beta=%d",
			stubs["alpha"].generated, stubs["beta"].generated)
	}
}

func TestManagerUnknownInstance(t *testing.T) {
	registerStubs(t)

	m := NewManager([]config.ProviderInstance{instance("alpha", true)})

	result := m.Generate(context.Background(), "prompt", "missing", "", Options{})
	if result.Status != StatusFailed {
		t.Errorf("expected failure for unknown instance, got %v", result.Status)
	}
}

func TestManagerEmptyPrompt(t *testing.T) {
	stubs := registerStubs(t)

	m := NewManager([]config.ProviderInstance{instance("alpha", true)})

	result := m.Generate(context.Background(), "   ", "alpha", "", Options{})
	if result.Status != StatusFailed {
		t.Errorf("expected failure for empty prompt, got %v", result.Status)
	}
	if stubs["alpha"].generated != 0 {
		t.Error("provider was called despite empty prompt")
	}
}

func TestManagerNoConfiguredInstances(t *testing.T) {
	registerStubs(t)

	m := NewManager([]config.ProviderInstance{instance("alpha", false)})

	result := m.Generate(context.Background(), "prompt", "", "", Options{})
	if result.Status != StatusFailed {
		t.Errorf("expected failure with no configured instances, got %v", result.Status)
	}
}

func TestManagerDuplicateNameKeepsFirst(t *testing.T) {
	stubs := registerStubs(t)

	first := instance("alpha", true)
	first.Config["response"] = "first"
	second := instance("alpha", true)
	second.Config["response"] = "second"

	m := NewManager([]config.ProviderInstance{first, second})

	if got := len(m.Status()); got != 1 {
		t.Fatalf("expected 1 instance after duplicate skip, got %d", got)
	}
	result := m.Generate(context.Background(), "prompt", "alpha", "", Options{})
	if result.Response != "first" {
		t.Errorf("expected first registration to win, got %q", result.Response)
	}
	_ = stubs
}

func TestManagerSkipsUnknownTypeAndDisabled(t *testing.T) {
	registerStubs(t)

	m := NewManager([]config.ProviderInstance{
		{Name: "weird", Type: "no-such-type", Enabled: true},
		{Name: "off", Type: "stub", Enabled: false},
		instance("alpha", true),
	})

	statuses := m.Status()
	if len(statuses) != 1 {
		t.Fatalf("expected only alpha to register, got %d instances", len(statuses))
	}
	if statuses[0].Name != "alpha" {
		t.Errorf("unexpected instance %q", statuses[0].Name)
	}
}

func TestManagerTestProvidersUnknownName(t *testing.T) {
	registerStubs(t)

	m := NewManager([]config.ProviderInstance{instance("alpha", true)})

	results := m.TestProviders(context.Background(), "ghost")
	if len(results) != 1 {
		t.Fatalf("expected 1 synthesized result, got %d", len(results))
	}
	if results["ghost"].Status != StatusFailed {
		t.Errorf("expected synthesized failure for unknown instance, got %v", results["ghost"].Status)
	}
}

func TestManagerTestProvidersAll(t *testing.T) {
	registerStubs(t)

	m := NewManager([]config.ProviderInstance{
		instance("alpha", true),
		instance("beta", false),
	})

	results := m.TestProviders(context.Background(), "")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results["alpha"].Status != StatusSuccess {
		t.Errorf("alpha test should succeed, got %v", results["alpha"].Status)
	}
	if results["beta"].Status != StatusFailed {
		t.Errorf("beta test should fail, got %v", results["beta"].Status)
	}
}

func TestManagerStatusOrderAndAvailability(t *testing.T) {
	registerStubs(t)

	m := NewManager([]config.ProviderInstance{
		instance("zeta", true),
		instance("alpha", false),
	})

	statuses := m.Status()
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	// Configuration order, not alphabetical.
	if statuses[0].Name != "zeta" || statuses[1].Name != "alpha" {
		t.Errorf("statuses out of order: %+v", statuses)
	}
	if !statuses[0].Configured || statuses[1].Configured {
		t.Errorf("unexpected configured flags: %+v", statuses)
	}
	if !statuses[0].Available || statuses[1].Available {
		t.Errorf("unexpected available flags: %+v", statuses)
	}

	available := m.AvailableInstances()
	if len(available) != 1 || available[0] != "zeta" {
		t.Errorf("unexpected available instances: %v", available)
	}
}
