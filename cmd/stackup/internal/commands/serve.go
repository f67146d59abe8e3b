package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/wolfeidau/stackup/internal/bundle"
	"github.com/wolfeidau/stackup/internal/pipeline"
)

type ServeCmd struct {
	Recipe string `help:"Recipe file, yaml or toml" default:"stackup.yaml" env:"STACKUP_RECIPE"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, log := setupLogger(ctx, globals)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	composed, err := compose(ctx, c.Recipe, pipeline.Env{})
	if err != nil {
		return err
	}

	b, err := bundle.New(composed.cfg, bundle.Options{WorkingDir: composed.recipe.Dir})
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}

	log.Info().Str("version", globals.Version).Str("recipe", c.Recipe).Msg("Starting dev server")

	if err := b.Serve(composed.ctx); err != nil {
		return err
	}

	log.Info().Msg("Dev server stopped")
	return nil
}
