package bundle

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
)

// ServeConfig is the dev server setup derived from the devServer section
type ServeConfig struct {
	Port     int
	Servedir string
	Fallback string
}

// ServeConfig reads the devServer section, falling back to the default port
// and the output directory
func (b *Builder) ServeConfig() ServeConfig {
	sc := ServeConfig{
		Port:     b.opts.DefaultPort,
		Servedir: b.outdir,
	}

	if port, ok := b.cfg.Lookup("devServer", "port"); ok {
		if p := int(number(port, 0)); p > 0 {
			sc.Port = p
		}
	}
	if base := b.cfg.LookupString("devServer", "contentBase"); base != "" {
		sc.Servedir = resolve(b.workingDir, base)
	}
	if _, ok := b.cfg.Lookup("devServer", "historyApiFallback"); ok {
		sc.Fallback = filepath.Join(sc.Servedir, "index.html")
	}

	return sc
}

// Serve builds once, then serves the output with esbuild rebuilding on each
// request until ctx is cancelled
func (b *Builder) Serve(ctx context.Context) error {
	log := zerolog.Ctx(ctx)

	if _, err := b.Build(ctx); err != nil {
		return err
	}

	opts, err := b.BuildOptions(ctx)
	if err != nil {
		return err
	}

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		for _, msg := range ctxErr.Errors {
			log.Error().Str("error", msg.Text).Msg("Build error")
		}
		return ErrBuildFailed
	}
	defer buildCtx.Dispose()

	sc := b.ServeConfig()
	result, err := buildCtx.Serve(api.ServeOptions{
		Port:     sc.Port,
		Servedir: sc.Servedir,
		Fallback: sc.Fallback,
	})
	if err != nil {
		return fmt.Errorf("failed to start dev server: %w", err)
	}

	log.Info().
		Uint16("port", result.Port).
		Str("servedir", sc.Servedir).
		Msg("Serving assets")

	<-ctx.Done()

	log.Info().Msg("Stopping dev server")

	return nil
}
