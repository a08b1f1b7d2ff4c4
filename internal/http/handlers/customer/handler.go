package customer

import "github.com/chogo-next/internal/provider"

// Handler buyer-side API handlers
type Handler struct {
	*provider.Container
}

// New creates the buyer handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
