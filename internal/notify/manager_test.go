package notify

import (
	"context"
	"testing"

	"reclaim/internal/config"
	"reclaim/internal/provider"
)

type stubNotifier struct {
	name       string
	configured bool
	sent       []string
}

func (s *stubNotifier) Send(ctx context.Context, message, audioPath string) Result {
	s.sent = append(s.sent, message)
	if !s.configured {
		return Failed("stub not configured")
	}
	return Result{Status: StatusSuccess, Message: message}
}

func (s *stubNotifier) IsConfigured() bool                        { return s.configured }
func (s *stubNotifier) TestConnection(ctx context.Context) Result { return Result{Status: StatusSuccess} }
func (s *stubNotifier) Name() string                              { return s.name }
func (s *stubNotifier) Cleanup()                                  {}

func registerNotifierStubs(t *testing.T) map[string]*stubNotifier {
	t.Helper()
	created := make(map[string]*stubNotifier)
	Register("stub", func(instanceName string, cfg provider.Settings) Provider {
		p := &stubNotifier{name: instanceName, configured: cfg.Bool("configured", false)}
		created[instanceName] = p
		return p
	})
	return created
}

func notifierInstance(name string, configured bool) config.ProviderInstance {
	return config.ProviderInstance{
		Name:    name,
		Type:    "stub",
		Enabled: true,
		Config:  map[string]any{"configured": configured},
	}
}

func TestManagerAutoSelect(t *testing.T) {
	stubs := registerNotifierStubs(t)

	m := NewManager([]config.ProviderInstance{
		notifierInstance("first", false),
		notifierInstance("second", true),
	})

	result := m.Send(context.Background(), "new summary", "", "")
	if !result.OK() {
		t.Fatalf("Send failed: %s", result.ErrorDetails)
	}
	if len(stubs["first"].sent) != 0 {
		t.Error("unconfigured instance received the message")
	}
	if len(stubs["second"].sent) != 1 || stubs["second"].sent[0] != "new summary" {
		t.Errorf("unexpected deliveries: %v", stubs["second"].sent)
	}
}

func TestManagerEmptyMessageAndUnknownInstance(t *testing.T) {
	stubs := registerNotifierStubs(t)

	m := NewManager([]config.ProviderInstance{notifierInstance("first", true)})

	if result := m.Send(context.Background(), " ", "", "first"); result.Status != StatusFailed {
		t.Errorf("expected failure for empty message, got %v", result.Status)
	}
	if len(stubs["first"].sent) != 0 {
		t.Error("provider was called despite empty message")
	}
	if result := m.Send(context.Background(), "hi", "", "ghost"); result.Status != StatusFailed {
		t.Errorf("expected failure for unknown instance, got %v", result.Status)
	}
}
