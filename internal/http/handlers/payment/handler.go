package payment

import "github.com/chogo-next/internal/provider"

// Handler gateway callback handlers. These routes are unauthenticated;
// every request is verified against the gateway's signature instead.
type Handler struct {
	*provider.Container
}

// New creates the callback handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
