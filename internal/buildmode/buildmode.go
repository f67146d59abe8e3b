// Package buildmode carries the resolved build mode to tools invoked after
// the configuration is composed, in place of a process wide NODE_ENV.
package buildmode

import (
	"context"

	"github.com/wolfeidau/stackup/internal/config"
)

type modeKey struct{}

// NewContext returns a copy of ctx carrying mode
func NewContext(ctx context.Context, mode config.Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, mode)
}

// FromContext returns the build mode stored in ctx
func FromContext(ctx context.Context) (config.Mode, bool) {
	mode, ok := ctx.Value(modeKey{}).(config.Mode)
	return mode, ok
}

// NodeEnv returns the NODE_ENV value for ctx, defaulting to development
func NodeEnv(ctx context.Context) string {
	if mode, ok := FromContext(ctx); ok && mode != "" {
		return string(mode)
	}
	return string(config.Development)
}
