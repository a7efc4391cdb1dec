package router

import (
	"fmt"
	"sync"

	"github.com/voroninsergei/oneflow-ai-sub000/internal/config"
	"github.com/voroninsergei/oneflow-ai-sub000/internal/router/adapters"
)

// Registry manages provider adapters keyed by provider name.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]adapters.ProviderAdapter
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]adapters.ProviderAdapter),
	}
}

func (r *Registry) Register(name string, adapter adapters.ProviderAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = adapter
}

func (r *Registry) Get(name string) (adapters.ProviderAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Replace swaps in the adapter set from another registry. Used on config
// reload; safe against concurrent Resolve calls.
func (r *Registry) Replace(next *Registry) {
	next.mu.RLock()
	swapped := make(map[string]adapters.ProviderAdapter, len(next.adapters))
	for name, adapter := range next.adapters {
		swapped[name] = adapter
	}
	next.mu.RUnlock()

	r.mu.Lock()
	r.adapters = swapped
	r.mu.Unlock()
}

// Resolve returns the adapter for a provider or an error naming it.
func (r *Registry) Resolve(name string) (adapters.ProviderAdapter, error) {
	if a, ok := r.Get(name); ok {
		return a, nil
	}
	return nil, fmt.Errorf("no adapter registered for provider %s", name)
}

// BuildFromConfig builds provider adapters from the providers config. The
// adapter only shapes requests; transport policy lives in the resilient client.
func BuildFromConfig(provCfg *config.ProvidersConfig) *Registry {
	registry := NewRegistry()
	for name, cfg := range provCfg.Providers {
		var adapter adapters.ProviderAdapter
		switch cfg.Type {
		case "anthropic":
			adapter = adapters.NewAnthropicAdapter(name, cfg)
		case "openai":
			adapter = adapters.NewOpenAIAdapter(name, cfg)
		default:
			// Fall back to OpenAI-compatible for unknown types
			adapter = adapters.NewOpenAIAdapter(name, cfg)
		}
		registry.Register(name, adapter)
	}
	return registry
}
