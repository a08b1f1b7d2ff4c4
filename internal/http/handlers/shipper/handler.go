package shipper

import "github.com/chogo-next/internal/provider"

// Handler shipper API handlers
type Handler struct {
	*provider.Container
}

// New creates the shipper handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
