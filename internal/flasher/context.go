package flasher

import (
	"context"
	"net/http"

	"github.com/matheus3301/flasher/internal/flash"
)

type registryKey struct{}

// WithRegistry returns a copy of ctx carrying reg.
func WithRegistry(ctx context.Context, reg *flash.Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, reg)
}

// FromContext returns the request's registry, or nil outside the middleware.
func FromContext(ctx context.Context) *flash.Registry {
	reg, _ := ctx.Value(registryKey{}).(*flash.Registry)
	return reg
}

// Flash returns the request's flash map for group, or the default group
// when none is given. It panics if the request did not go through a
// Flasher, which is a wiring bug.
func Flash(r *http.Request, group ...string) *flash.Map {
	reg := FromContext(r.Context())
	if reg == nil {
		panic("flasher: request did not pass through the flasher middleware")
	}
	if len(group) > 0 && group[0] != "" {
		return reg.Group(group[0])
	}
	return reg.Default()
}
