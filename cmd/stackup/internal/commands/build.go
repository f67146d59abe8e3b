package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/wolfeidau/stackup/internal/bundle"
)

type BuildCmd struct {
	RecipeFlags `embed:""`
	Report      bool `help:"Print third-party input sizes grouped by vendor chunk"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, _ = setupLogger(ctx, globals)
	return c.run(ctx, os.Stdout)
}

func (c *BuildCmd) run(ctx context.Context, w io.Writer) error {
	composed, err := compose(ctx, c.Recipe, c.Env())
	if err != nil {
		return err
	}

	b, err := bundle.New(composed.cfg, bundle.Options{WorkingDir: composed.recipe.Dir})
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}

	result, err := b.Build(composed.ctx)
	if err != nil {
		return err
	}

	for _, file := range result.Files {
		fmt.Fprintln(w, file)
	}

	if c.Report {
		return printReport(w, bundle.VendorReport(result.Metadata))
	}
	return nil
}

func printReport(w io.Writer, report []bundle.VendorChunk) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHUNK\tMODULES\tBYTES")
	for _, chunk := range report {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", chunk.Name, chunk.Modules, chunk.Bytes)
	}
	return tw.Flush()
}
