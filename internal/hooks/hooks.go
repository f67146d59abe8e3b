// Package hooks provides composable configuration hooks. Each factory returns
// a Hook, a pure function that takes the configuration built so far and
// returns the next one.
package hooks

import (
	"errors"
	"fmt"
	"slices"

	"github.com/wolfeidau/stackup/internal/config"
)

// Hook transforms a configuration
type Hook func(config.Configuration) config.Configuration

// ErrMissingOption indicates a hook factory was called without a required option
var ErrMissingOption = errors.New("missing required option")

// OptionError describes a hook factory called with invalid options
type OptionError struct {
	Hook   string
	Option string
	Err    error
}

func (e *OptionError) Error() string {
	if errors.Is(e.Err, ErrMissingOption) {
		return fmt.Sprintf("%s expects a %s option", e.Hook, e.Option)
	}
	return fmt.Sprintf("%s has an invalid %s option: %v", e.Hook, e.Option, e.Err)
}

func (e *OptionError) Unwrap() error {
	return e.Err
}

func missing(hook, option string) error {
	return &OptionError{Hook: hook, Option: option, Err: ErrMissingOption}
}

// Must panics if err is non-nil, for hook lists declared at package level
func Must(h Hook, err error) Hook {
	if err != nil {
		panic(err)
	}
	return h
}

// Compose applies hooks left to right
func Compose(hooks ...Hook) Hook {
	return func(cfg config.Configuration) config.Configuration {
		for _, h := range hooks {
			cfg = h(cfg)
		}
		return cfg
	}
}

// Merge deep-merges patch into the configuration
func Merge(patch config.Configuration) Hook {
	return func(cfg config.Configuration) config.Configuration {
		return config.Merge(cfg, patch)
	}
}

// ModeOptions selects hooks by build mode. Default runs first in every mode,
// then the hook for the active mode if there is one.
type ModeOptions struct {
	Default     Hook
	Development Hook
	Production  Hook
	Named       map[config.Mode]Hook
}

func (o ModeOptions) forMode(mode config.Mode) Hook {
	switch mode {
	case config.Development:
		if o.Development != nil {
			return o.Development
		}
	case config.Production:
		if o.Production != nil {
			return o.Production
		}
	}
	return o.Named[mode]
}

// Mode applies hooks based on the configuration's mode
func Mode(options ModeOptions) Hook {
	return func(cfg config.Configuration) config.Configuration {
		var selected []Hook
		if options.Default != nil {
			selected = append(selected, options.Default)
		}
		if h := options.forMode(cfg.Mode()); h != nil {
			selected = append(selected, h)
		}
		return Compose(selected...)(cfg)
	}
}

// Entry sets the entry points from one or more paths
func Entry(paths ...string) (Hook, error) {
	if len(paths) == 0 || slices.Contains(paths, "") {
		return nil, missing("entry", "path")
	}

	if len(paths) == 1 {
		return Merge(config.Configuration{"entry": paths[0]}), nil
	}

	entries := make([]any, len(paths))
	for i, p := range paths {
		entries[i] = p
	}
	return Merge(config.Configuration{"entry": entries}), nil
}

// NamedEntry sets the entry points from a name to path mapping
func NamedEntry(entries map[string]string) Hook {
	named := make(map[string]any, len(entries))
	for name, p := range entries {
		named[name] = p
	}
	return Merge(config.Configuration{"entry": named})
}

// Rule appends a module rule
func Rule(rule config.Rule) Hook {
	return Merge(config.Configuration{
		"module": map[string]any{"rules": []any{rule}},
	})
}

// Plugin appends a build plugin
func Plugin(plugin config.Plugin) Hook {
	return Merge(config.Configuration{"plugins": []any{plugin}})
}

func production(h Hook) Hook {
	return Mode(ModeOptions{Production: h})
}
