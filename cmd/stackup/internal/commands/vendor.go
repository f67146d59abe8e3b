package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/stackup/internal/vendor"
)

type VendorNameCmd struct {
	Paths []string `arg:"" help:"Module file paths"`
}

func (c *VendorNameCmd) Run(ctx context.Context) error {
	return c.run(os.Stdout)
}

func (c *VendorNameCmd) run(w io.Writer) error {
	for _, p := range c.Paths {
		name, err := vendor.Name(p)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, name)
	}
	return nil
}
