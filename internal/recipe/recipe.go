// Package recipe loads declarative build recipes. A recipe lists hooks in the
// order they are applied, one single key table per hook:
//
//	hooks:
//	  - entry: ./src/index.tsx
//	  - output: {path: dist, publicPath: /}
//	  - babel: {}
//	  - mode:
//	      development:
//	        - devServer: {port: 3000}
package recipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/pelletier/go-toml/v2"
	"github.com/wolfeidau/stackup/internal/hooks"
	"gopkg.in/yaml.v3"
)

// Format is a recipe file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var (
	// ErrUnknownHook indicates a recipe item names a hook that does not exist
	ErrUnknownHook = errors.New("unknown hook")
	// ErrMalformedItem indicates a recipe item is not a single key table
	ErrMalformedItem = errors.New("recipe item must have exactly one key")
	// ErrUnsupportedFormat indicates the recipe file extension is not recognised
	ErrUnsupportedFormat = errors.New("unsupported recipe format")
)

// Error reports a recipe item that could not be turned into a hook
type Error struct {
	Index int
	Hook  string
	Err   error
}

func (e *Error) Error() string {
	if e.Hook == "" {
		return fmt.Sprintf("recipe item %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("recipe item %d (%s): %v", e.Index, e.Hook, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recipe is a parsed recipe file
type Recipe struct {
	// Dir is the directory the recipe was loaded from, relative paths in the
	// recipe resolve against it
	Dir   string           `yaml:"-" toml:"-"`
	Items []map[string]any `yaml:"hooks" toml:"hooks"`
}

// FormatFor returns the recipe format implied by a file name
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Load reads and parses the recipe at path
func Load(path string) (*Recipe, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}

	r, err := Parse(data, format)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipe path: %w", err)
	}
	r.Dir = filepath.Dir(abs)

	return r, nil
}

// Parse decodes a recipe
func Parse(data []byte, format Format) (*Recipe, error) {
	var r Recipe

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse yaml recipe: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("failed to parse toml recipe: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return &r, nil
}

// Hooks builds the recipe's hooks in order
func (r *Recipe) Hooks() ([]hooks.Hook, error) {
	return build(r.Items)
}

func build(items []map[string]any) ([]hooks.Hook, error) {
	out := make([]hooks.Hook, 0, len(items))

	for i, item := range items {
		if len(item) != 1 {
			return nil, &Error{Index: i, Err: fmt.Errorf("%w, got %s", ErrMalformedItem, keys(item))}
		}

		for name, raw := range item {
			b, ok := builders[name]
			if !ok {
				err := error(ErrUnknownHook)
				if s := suggest(name); s != "" {
					err = fmt.Errorf("%w, did you mean %q?", ErrUnknownHook, s)
				}
				return nil, &Error{Index: i, Hook: name, Err: err}
			}

			h, err := b(raw)
			if err != nil {
				return nil, &Error{Index: i, Hook: name, Err: err}
			}
			out = append(out, h)
		}
	}

	return out, nil
}

// suggest returns the closest known hook name when it is a likely typo
func suggest(name string) string {
	best, bestDistance := "", 3
	for known := range builders {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(known))
		if d < bestDistance || (d == bestDistance && best != "" && known < best) {
			best, bestDistance = known, d
		}
	}
	return best
}

func keys(m map[string]any) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return "[" + strings.Join(names, ", ") + "]"
}
