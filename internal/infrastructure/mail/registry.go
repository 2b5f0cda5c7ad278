package mail

import (
	"fmt"

	"DigestMailer/internal/ports"
)

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]ports.EmailProvider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]ports.EmailProvider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(provider ports.EmailProvider) {
	if r.providers == nil {
		r.providers = map[string]ports.EmailProvider{}
	}
	r.providers[provider.Name()] = provider
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.EmailProvider, error) {
	if provider, ok := r.providers[name]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("provider %s is not registered", name)
}

// ResolveOrder maps the configured failover order onto provider
// implementations, preserving order.
func (r *Registry) ResolveOrder(names []string) ([]ports.EmailProvider, error) {
	ordered := make([]ports.EmailProvider, 0, len(names))
	for _, name := range names {
		provider, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, provider)
	}
	return ordered, nil
}
