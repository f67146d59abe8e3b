package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/wolfeidau/stackup/cmd/stackup/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Config     commands.ConfigCmd     `cmd:"" help:"Print the composed bundler configuration"`
		Build      commands.BuildCmd      `cmd:"" help:"Compose the configuration and build assets"`
		Serve      commands.ServeCmd      `cmd:"" help:"Build and serve assets in development mode"`
		VendorName commands.VendorNameCmd `cmd:"" help:"Print the vendor chunk name for module paths"`
		Debug      bool                   `help:"Enable debug mode." env:"STACKUP_DEBUG"`
		Version    kong.VersionFlag
	}
)

func main() {
	// a .env file in the working directory can set NODE_ENV and STACKUP_* flags
	_ = godotenv.Load()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("stackup"),
		kong.Description("Composable bundler configuration built from ordered hooks."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
