package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/stackup/internal/config"
	"github.com/wolfeidau/stackup/internal/logger"
	"github.com/wolfeidau/stackup/internal/pipeline"
	"github.com/wolfeidau/stackup/internal/recipe"
)

type Globals struct {
	Debug   bool
	Version string
}

// RecipeFlags select the recipe and the mode it is composed in
type RecipeFlags struct {
	Recipe     string `help:"Recipe file, yaml or toml" default:"stackup.yaml" env:"STACKUP_RECIPE"`
	Production bool   `help:"Compose for production" env:"STACKUP_PRODUCTION"`
	Mode       string `help:"Build mode (development, production or a custom mode name)" env:"NODE_ENV"`
}

// Env maps the flags onto a pipeline environment. --production wins over a
// mode inherited from NODE_ENV.
func (f RecipeFlags) Env() pipeline.Env {
	if f.Production {
		return pipeline.Env{Production: true}
	}
	if f.Mode == "" {
		return pipeline.Env{}
	}
	if env := pipeline.ParseEnv(f.Mode); env.Production {
		return env
	}
	return pipeline.Env{Mode: config.Mode(strings.ToLower(strings.TrimSpace(f.Mode)))}
}

// composed is a recipe folded into a configuration
type composed struct {
	ctx    context.Context
	cfg    config.Configuration
	recipe *recipe.Recipe
}

func compose(ctx context.Context, recipePath string, env pipeline.Env) (*composed, error) {
	r, err := recipe.Load(recipePath)
	if err != nil {
		return nil, err
	}

	hs, err := r.Hooks()
	if err != nil {
		return nil, fmt.Errorf("failed to build hooks from %s: %w", recipePath, err)
	}

	ctx, cfg := pipeline.New(hs...)(ctx, env)

	return &composed{ctx: ctx, cfg: cfg, recipe: r}, nil
}

func setupLogger(ctx context.Context, globals *Globals) (context.Context, *zerolog.Logger) {
	log := logger.Setup(globals.Debug)
	return log.WithContext(ctx), &log
}
