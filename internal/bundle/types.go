package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"path/filepath"
	"sort"
	"sync"

	"github.com/wolfeidau/stackup/internal/config"
)

var (
	// ErrBuildFailed indicates esbuild reported errors
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNoEntryPoints indicates the configuration has no usable entry
	ErrNoEntryPoints = errors.New("no entry points configured")
	// ErrNotBuilt indicates metadata was requested before a build ran
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
)

type Metadata struct {
	Inputs  map[string]InputInfo  `json:"inputs"`
	Outputs map[string]OutputInfo `json:"outputs"`
}

type InputInfo struct {
	Bytes int `json:"bytes"`
}

type OutputInfo struct {
	Bytes      int          `json:"bytes"`
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// EntryPoints returns the entry point inputs that produced outputs, sorted
func (m *Metadata) EntryPoints() []string {
	var entries []string
	for _, info := range m.Outputs {
		if info.EntryPoint != "" {
			entries = append(entries, info.EntryPoint)
		}
	}
	sort.Strings(entries)
	return entries
}

// Result describes a finished build
type Result struct {
	// Absolute output directory
	Outdir string
	// Files written by esbuild and the post-build steps, relative to Outdir
	Files    []string
	Metadata *Metadata
}

// Builder runs builds for a composed configuration
type Builder struct {
	cfg  config.Configuration
	opts Options
	// absolute directories resolved from opts and cfg
	workingDir string
	outdir     string
	metadata   *Metadata
	mu         sync.RWMutex
}

// New creates a builder for cfg
func New(cfg config.Configuration, opts Options) (*Builder, error) {
	defaults := DefaultOptions()
	if opts.DefaultOutdir == "" {
		opts.DefaultOutdir = defaults.DefaultOutdir
	}
	if opts.MetafileName == "" {
		opts.MetafileName = defaults.MetafileName
	}
	if opts.DefaultPort == 0 {
		opts.DefaultPort = defaults.DefaultPort
	}

	workingDir, err := filepath.Abs(opts.WorkingDir)
	if err != nil {
		return nil, err
	}

	outdir := cfg.LookupString("output", "path")
	if outdir == "" {
		outdir = opts.DefaultOutdir
	}

	return &Builder{
		cfg:        cfg,
		opts:       opts,
		workingDir: workingDir,
		outdir:     resolve(workingDir, outdir),
	}, nil
}

// Outdir returns the absolute output directory
func (b *Builder) Outdir() string {
	return b.outdir
}

// Metadata returns the metadata of the last build
func (b *Builder) Metadata() (*Metadata, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.metadata == nil {
		return nil, ErrNotBuilt
	}
	return b.metadata, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}
}
