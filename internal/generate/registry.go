package generate

import (
	"sync"

	"photostyler/internal/cache"
	"photostyler/internal/domain"
	"photostyler/internal/infra"
	"photostyler/internal/providers/image"
	"photostyler/internal/style"
)

// Registry hands out one Controller per user, creating it on first use.
type Registry struct {
	styles    *style.Catalog
	providers map[domain.Model]image.Generator
	store     cache.Store
	logger    infra.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewRegistry builds a registry sharing the catalog, providers and cache
// store across all controllers.
func NewRegistry(styles *style.Catalog, providers map[domain.Model]image.Generator, store cache.Store, logger infra.Logger) *Registry {
	return &Registry{
		styles:      styles,
		providers:   providers,
		store:       store,
		logger:      logger,
		controllers: make(map[string]*Controller),
	}
}

// Controller returns the controller owning userID's generation state.
func (r *Registry) Controller(userID string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.controllers[userID]; ok {
		return c
	}
	c := NewController(userID, r.styles, r.providers, r.store, r.logger)
	r.controllers[userID] = c
	return c
}
