// Package pipeline folds an ordered list of hooks into a bundler configuration.
package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/stackup/internal/buildmode"
	"github.com/wolfeidau/stackup/internal/config"
	"github.com/wolfeidau/stackup/internal/hooks"
)

// Env describes the build environment
type Env struct {
	// Production selects production mode when Mode is empty
	Production bool
	// Mode names the mode explicitly, overriding Production
	Mode config.Mode
}

// ResolveMode returns the active build mode for env
func ResolveMode(env Env) config.Mode {
	if env.Mode != "" {
		return env.Mode
	}
	if env.Production {
		return config.Production
	}
	return config.Development
}

// ParseEnv builds an Env from a NODE_ENV style value. Any production
// indicator selects production, everything else development.
func ParseEnv(value string) Env {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "production", "prod", "true", "1":
		return Env{Production: true}
	}
	return Env{}
}

// Factory builds a configuration for env. The returned context carries the
// resolved build mode for tools run later in the same build.
type Factory func(ctx context.Context, env Env) (context.Context, config.Configuration)

// New creates a configuration factory from hooks applied in order
func New(hs ...hooks.Hook) Factory {
	// copy so later changes to the caller's slice don't alter the pipeline
	ordered := append([]hooks.Hook(nil), hs...)

	return func(ctx context.Context, env Env) (context.Context, config.Configuration) {
		mode := ResolveMode(env)

		// set once per invocation, before any hook runs
		ctx = buildmode.NewContext(ctx, mode)

		cfg := config.Configuration{"mode": mode}
		for _, h := range ordered {
			cfg = h(cfg)
		}

		zerolog.Ctx(ctx).Debug().
			Str("mode", string(mode)).
			Int("hooks", len(ordered)).
			Msg("Configuration composed")

		return ctx, cfg
	}
}
