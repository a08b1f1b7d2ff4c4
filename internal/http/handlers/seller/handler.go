package seller

import "github.com/chogo-next/internal/provider"

// Handler seller workbench API handlers
type Handler struct {
	*provider.Container
}

// New creates the seller handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
