package notify

import (
	"context"
	"fmt"
	"strings"

	"reclaim/internal/config"
	"reclaim/internal/logger"
	"reclaim/internal/provider"
)

// Factory constructs a provider from its instance name and settings block.
type Factory func(instanceName string, cfg provider.Settings) Provider

var factories = map[string]Factory{}

// Register makes a provider type available to NewManager.
func Register(typeName string, f Factory) {
	factories[strings.ToLower(typeName)] = f
}

// InstanceStatus is a point-in-time snapshot of one managed instance.
// Available holds for instances that are configured and backed by a
// registered provider.
type InstanceStatus struct {
	Name       string
	Type       string
	Configured bool
	Available  bool
}

// Manager owns the configured notification provider instances.
// Instances keep their configuration order, which drives auto-selection.
type Manager struct {
	providers map[string]Provider
	order     []string
	types     map[string]string
}

// NewManager builds providers from the configured instance list.
// Disabled, duplicate-name, and unknown-type entries are skipped with a
// log line.
func NewManager(instances []config.ProviderInstance) *Manager {
	m := &Manager{
		providers: make(map[string]Provider),
		types:     make(map[string]string),
	}

	for _, inst := range instances {
		name := strings.TrimSpace(inst.Name)
		typeName := strings.ToLower(strings.TrimSpace(inst.Type))
		if name == "" {
			logger.Warn("Skipping notification provider with empty name", "type", typeName)
			continue
		}
		if !inst.Enabled {
			logger.Debug("Skipping disabled notification provider", "instance", name)
			continue
		}
		if _, dup := m.providers[name]; dup {
			logger.Error("Duplicate notification provider name, keeping first", nil, "instance", name)
			continue
		}
		factory, ok := factories[typeName]
		if !ok {
			logger.Warn("Unknown notification provider type", "instance", name, "type", typeName)
			continue
		}

		p := factory(name, provider.Settings(inst.Config))
		m.providers[name] = p
		m.order = append(m.order, name)
		m.types[name] = typeName
		logger.Info("Registered notification provider", "instance", name, "type", typeName, "configured", p.IsConfigured())
	}

	return m
}

// AvailableInstances returns the names of configured instances in
// configuration order.
func (m *Manager) AvailableInstances() []string {
	var names []string
	for _, name := range m.order {
		if m.providers[name].IsConfigured() {
			names = append(names, name)
		}
	}
	return names
}

// Instance returns the named provider, or nil.
func (m *Manager) Instance(name string) Provider {
	return m.providers[name]
}

// Send routes a delivery to the named instance, or to the first
// configured instance when instanceName is empty.
func (m *Manager) Send(ctx context.Context, message, audioPath, instanceName string) Result {
	if strings.TrimSpace(message) == "" {
		return Failed("message cannot be empty")
	}

	if instanceName == "" {
		available := m.AvailableInstances()
		if len(available) == 0 {
			return Failed("no notification provider instances are configured")
		}
		instanceName = available[0]
		logger.Debug("Auto-selected notification provider", "instance", instanceName)
	}

	p, ok := m.providers[instanceName]
	if !ok {
		return Failed(fmt.Sprintf("notification provider instance %q is not available", instanceName))
	}
	if !p.IsConfigured() {
		return Failed(fmt.Sprintf("notification provider instance %q is not properly configured", instanceName))
	}

	result := p.Send(ctx, message, audioPath)
	if result.OK() {
		logger.Debug("Notification delivered", "instance", instanceName, "duration", result.DeliveryTime)
	} else {
		logger.Warn("Notification delivery failed", "instance", instanceName, "error", result.ErrorDetails)
	}
	return result
}

// TestProviders runs connectivity tests. With an instance name it tests
// only that instance, synthesizing a failure when the name is unknown.
func (m *Manager) TestProviders(ctx context.Context, instanceName string) map[string]Result {
	results := make(map[string]Result)

	if instanceName != "" {
		p, ok := m.providers[instanceName]
		if !ok {
			results[instanceName] = Failed(fmt.Sprintf("notification provider instance %q is not available", instanceName))
			return results
		}
		results[instanceName] = p.TestConnection(ctx)
		return results
	}

	for _, name := range m.order {
		results[name] = m.providers[name].TestConnection(ctx)
	}
	return results
}

// Status reports each instance with its configuration state recomputed
// live, in configuration order.
func (m *Manager) Status() []InstanceStatus {
	statuses := make([]InstanceStatus, 0, len(m.order))
	for _, name := range m.order {
		configured := m.providers[name].IsConfigured()
		statuses = append(statuses, InstanceStatus{
			Name:       name,
			Type:       m.types[name],
			Configured: configured,
			Available:  configured,
		})
	}
	return statuses
}

// CleanupAll releases backend resources on every instance.
func (m *Manager) CleanupAll() {
	for _, name := range m.order {
		m.providers[name].Cleanup()
	}
	logger.Debug("Cleaned up notification providers", "count", len(m.order))
}
