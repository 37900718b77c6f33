package auth

import (
	"context"
	"fmt"
	"sort"
)

// Profile is the normalized identity returned by an external provider.
// Providers return identity facts only; creating or linking local
// identities is the caller's job.
type Profile struct {
	Provider       string
	ProviderUserID string
	Email          string
	Nickname       string
}

// AuthCodeParams carries the per-request values bound to one authorization
// round trip. They are generated when the login starts and replayed from
// the transient auth request when the callback arrives.
type AuthCodeParams struct {
	Nonce        string
	CodeVerifier string
}

// ProfileExchanger is the contract every external identity provider implements.
type ProfileExchanger interface {
	// Name returns the provider identifier used in routes (e.g. "google").
	Name() string

	// AuthCodeURL returns the provider authorization URL for state.
	AuthCodeURL(state string, params AuthCodeParams) string

	// ExchangeProfile redeems the authorization code and returns the
	// caller's profile. The HTTP client is taken from ctx (oauth2.HTTPClient).
	ExchangeProfile(ctx context.Context, code string, params AuthCodeParams) (*Profile, error)
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[string]ProfileExchanger
}

// NewRegistry registers the given providers. Later entries replace earlier
// ones with the same name.
func NewRegistry(list ...ProfileExchanger) *Registry {
	m := make(map[string]ProfileExchanger, len(list))
	for _, p := range list {
		if p == nil {
			continue
		}
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider by name or ErrUnknownProvider.
func (r *Registry) Get(name string) (ProfileExchanger, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.providers)
}
