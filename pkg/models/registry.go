package models

import (
	"errors"
	"fmt"
	"sync"
)

// ErrModelNotFound is returned when no client is registered for a model identifier.
var ErrModelNotFound = errors.New("model not found")

// Registry resolves model identifiers to live chat clients. Clients are
// registered once at startup; lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]ChatClient
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]ChatClient),
	}
}

// Register makes client available under the given model identifier,
// replacing any previous registration.
func (r *Registry) Register(model string, client ChatClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[model] = client
}

// GetClient returns the client registered for the model identifier. The
// identifier is matched exactly, no normalization or fallback.
func (r *Registry) GetClient(model string) (ChatClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	return client, nil
}

// Models lists the registered model identifiers.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	return ids
}
