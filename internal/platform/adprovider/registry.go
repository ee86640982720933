package adprovider

import (
	"fmt"
	"sync"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/domain/ads"
)

// Registry dispatches a platform to its client.
type Registry struct {
	mu      sync.RWMutex
	clients map[ads.Platform]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: map[ads.Platform]Client{}}
}

func (r *Registry) Register(p ads.Platform, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[p] = c
}

func (r *Registry) Get(p ads.Platform) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[p]
	if !ok || c == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, p)
	}
	return c, nil
}

func (r *Registry) Platforms() []ads.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ads.Platform, 0, len(r.clients))
	for _, p := range ads.SupportedPlatforms() {
		if _, ok := r.clients[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
