package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/stackup/internal/config"
)

// plugins handled after esbuild finishes, css-extract needs no work since
// esbuild always writes CSS to separate files
var postBuildPlugins = map[string]bool{
	config.PluginHTML:        true,
	config.PluginFavicons:    true,
	config.PluginCompression: true,
	config.PluginCSSExtract:  true,
}

// Build runs esbuild with the composed configuration, loads the metadata and
// runs the post-build steps for the configured plugins
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	logger := zerolog.Ctx(ctx).With().Str("build_id", uuid.NewString()).Logger()
	ctx = logger.WithContext(ctx)
	log := &logger

	opts, err := b.BuildOptions(ctx)
	if err != nil {
		return nil, err
	}

	log.Info().
		Strs("entrypoints", opts.EntryPoints).
		Int("named_entrypoints", len(opts.EntryPointsAdvanced)).
		Str("outdir", b.outdir).
		Msg("Building assets")

	result := api.Build(opts)

	for _, msg := range result.Warnings {
		log.Warn().Str("warning", msg.Text).Msg("Build warning")
	}

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			event := log.Error().Str("error", msg.Text)
			if msg.Location != nil {
				event = event.Str("file", msg.Location.File).Int("line", msg.Location.Line)
			}
			event.Msg("Build error")
		}
		return nil, ErrBuildFailed
	}

	// Write metafile
	if err := os.WriteFile(filepath.Join(b.outdir, b.opts.MetafileName), []byte(result.Metafile), 0600); err != nil {
		return nil, fmt.Errorf("failed to write metafile: %w", err)
	}

	// Parse and cache metadata
	var metadata Metadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	b.metadata = &metadata

	var outputs []string
	for outputPath := range metadata.Outputs {
		rel, err := filepath.Rel(b.outdir, resolve(b.workingDir, outputPath))
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", rel).Msg("Built file")
		outputs = append(outputs, filepath.ToSlash(rel))
	}

	written, err := b.postBuild(ctx, outputs)
	if err != nil {
		return nil, err
	}

	files := append([]string{b.opts.MetafileName}, outputs...)
	files = append(files, written...)
	sort.Strings(files)

	return &Result{Outdir: b.outdir, Files: files, Metadata: &metadata}, nil
}

// postBuild runs the steps for plugins esbuild has no equivalent for. Icons
// come first so the HTML document can link them, compression runs last so it
// covers this build's outputs and everything written before it.
func (b *Builder) postBuild(ctx context.Context, outputs []string) ([]string, error) {
	var written []string

	var icons *iconSet
	if p, ok := b.cfg.FindPlugin(config.PluginFavicons); ok {
		set, err := b.writeFavicons(ctx, p)
		if err != nil {
			return nil, err
		}
		icons = set
		written = append(written, set.Files...)
	}

	for _, p := range b.cfg.Plugins() {
		if p.Name != config.PluginHTML {
			continue
		}
		file, err := b.writeHTML(ctx, p, icons)
		if err != nil {
			return nil, err
		}
		written = append(written, file)
	}

	if p, ok := b.cfg.FindPlugin(config.PluginCompression); ok {
		compressed, err := b.compressOutputs(ctx, p, append(slices.Clone(outputs), written...))
		if err != nil {
			return nil, err
		}
		written = append(written, compressed...)
	}

	return written, nil
}

// LoadScripts returns the ordered list of output paths needed for the given
// entrypoint, the entrypoint's own output first
func (b *Builder) LoadScripts(entryPointPath string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.metadata == nil {
		return nil, ErrNotBuilt
	}
	return loadScripts(b.metadata, entryPointPath)
}

func loadScripts(metadata *Metadata, entryPointPath string) ([]string, error) {
	// sorted so entries with several outputs resolve the same way every time
	outputs := make([]string, 0, len(metadata.Outputs))
	for outputPath := range metadata.Outputs {
		outputs = append(outputs, outputPath)
	}
	sort.Strings(outputs)

	for _, outputPath := range outputs {
		info := metadata.Outputs[outputPath]
		if info.EntryPoint != entryPointPath || filepath.Ext(outputPath) != ".js" {
			continue
		}

		scripts := []string{outputPath}
		visited := map[string]bool{outputPath: true}
		addDependencies(metadata, info, &scripts, visited)
		return scripts, nil
	}

	return nil, fmt.Errorf("entrypoint %s not found in metadata", entryPointPath)
}

func addDependencies(metadata *Metadata, output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		// dynamic imports load on demand
		if imp.Kind == "dynamic-import" || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true

		if chunkInfo, exists := metadata.Outputs[imp.Path]; exists {
			*scripts = append(*scripts, imp.Path)
			addDependencies(metadata, chunkInfo, scripts, visited)
		}
	}
}
