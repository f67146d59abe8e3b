package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/stackup/internal/config"
	"gopkg.in/yaml.v3"
)

type ConfigCmd struct {
	RecipeFlags `embed:""`
	Format      string `help:"Output format" enum:"json,yaml" default:"json"`
}

func (c *ConfigCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, _ = setupLogger(ctx, globals)
	return c.run(ctx, os.Stdout)
}

func (c *ConfigCmd) run(ctx context.Context, w io.Writer) error {
	composed, err := compose(ctx, c.Recipe, c.Env())
	if err != nil {
		return err
	}
	return writeConfig(w, composed.cfg, c.Format)
}

func writeConfig(w io.Writer, cfg config.Configuration, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported format %q", format)
}
