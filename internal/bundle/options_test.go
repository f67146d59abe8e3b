package bundle

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/stackup/internal/config"
	"github.com/wolfeidau/stackup/internal/hooks"
	"github.com/wolfeidau/stackup/internal/pipeline"
)

func TestNamePattern(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected string
	}{
		{
			name:     "plain name",
			pattern:  "assets/js/[name].js",
			expected: "assets/js/[name]",
		},
		{
			name:     "content hash",
			pattern:  "assets/js/[name].[contenthash:8].js",
			expected: "assets/js/[name].[hash]",
		},
		{
			name:     "chunk pattern keeps inner suffix",
			pattern:  "assets/js/[name].[contenthash:8].chunk.js",
			expected: "assets/js/[name].[hash].chunk",
		},
		{
			name:     "ext token",
			pattern:  "assets/media/[name].[hash:8].[ext]",
			expected: "assets/media/[name].[hash]",
		},
		{
			name:     "no extension",
			pattern:  "[name]",
			expected: "[name]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, namePattern(tt.pattern))
		})
	}
}

func TestSourceMap(t *testing.T) {
	assert.Equal(t, api.SourceMapNone, sourceMap(nil))
	assert.Equal(t, api.SourceMapNone, sourceMap("false"))
	assert.Equal(t, api.SourceMapInline, sourceMap("inline-source-map"))
	assert.Equal(t, api.SourceMapLinked, sourceMap("source-map"))
}

func compose(t *testing.T, env pipeline.Env, hs ...hooks.Hook) (context.Context, config.Configuration) {
	t.Helper()
	return pipeline.New(hs...)(context.Background(), env)
}

func appHooks() []hooks.Hook {
	return []hooks.Hook{
		hooks.Must(hooks.Entry("./src/index.tsx")),
		hooks.Must(hooks.Output(hooks.OutputOptions{Path: "build", PublicPath: "/"})),
		hooks.Babel(),
		hooks.PostCSS(),
		hooks.SVG(),
		hooks.Must(hooks.Files(hooks.FilesOptions{Test: `\.(jpg|png)$`})),
		hooks.Vendor(),
		hooks.Minify(),
	}
}

func TestBuildOptions_Production(t *testing.T) {
	dir := t.TempDir()
	ctx, cfg := compose(t, pipeline.Env{Production: true}, appHooks()...)

	b, err := New(cfg, Options{WorkingDir: dir})
	require.NoError(t, err)

	opts, err := b.BuildOptions(ctx)
	require.NoError(t, err)

	assert.Equal(t, dir, opts.AbsWorkingDir)
	assert.Equal(t, filepath.Join(dir, "build"), opts.Outdir)
	assert.Equal(t, []string{"./src/index.tsx"}, opts.EntryPoints)
	assert.Equal(t, "/", opts.PublicPath)
	assert.Equal(t, "assets/js/[name].[hash]", opts.EntryNames)
	assert.Equal(t, "assets/js/[name].[hash].chunk", opts.ChunkNames)
	assert.Equal(t, "assets/media/[name].[hash]", opts.AssetNames)
	assert.Equal(t, `"production"`, opts.Define["process.env.NODE_ENV"])
	assert.False(t, opts.JSXDev)
	assert.True(t, opts.MinifyWhitespace)
	assert.True(t, opts.MinifyIdentifiers)
	assert.True(t, opts.MinifySyntax)
	assert.True(t, opts.Splitting)
	assert.Equal(t, api.FormatESModule, opts.Format)
	assert.Equal(t, []string{".tsx", ".ts", ".mjs", ".js"}, opts.ResolveExtensions)

	assert.Equal(t, api.LoaderJS, opts.Loader[".js"])
	assert.Equal(t, api.LoaderJSX, opts.Loader[".jsx"])
	assert.Equal(t, api.LoaderTS, opts.Loader[".ts"])
	assert.Equal(t, api.LoaderTSX, opts.Loader[".tsx"])
	assert.Equal(t, api.LoaderCSS, opts.Loader[".css"])
	assert.Equal(t, api.LoaderFile, opts.Loader[".svg"])
	assert.Equal(t, api.LoaderFile, opts.Loader[".png"])
	assert.Equal(t, api.LoaderFile, opts.Loader[".jpg"])
	assert.NotContains(t, opts.Loader, ".gif")
}

func TestBuildOptions_Development(t *testing.T) {
	dir := t.TempDir()
	ctx, cfg := compose(t, pipeline.Env{}, appHooks()...)

	b, err := New(cfg, Options{WorkingDir: dir})
	require.NoError(t, err)

	opts, err := b.BuildOptions(ctx)
	require.NoError(t, err)

	// development leaves output.path unset
	assert.Equal(t, filepath.Join(dir, "dist"), opts.Outdir)
	assert.Equal(t, "assets/js/[name]", opts.EntryNames)
	assert.Equal(t, "assets/js/[name].chunk-[hash]", opts.ChunkNames)
	assert.Equal(t, `"development"`, opts.Define["process.env.NODE_ENV"])
	assert.True(t, opts.JSXDev)
	assert.False(t, opts.MinifyWhitespace)
	assert.False(t, opts.Splitting)
	assert.Equal(t, api.LoaderCSS, opts.Loader[".css"])
}

func TestBuildOptions_VendorChunks(t *testing.T) {
	tests := []struct {
		name   string
		vendor hooks.Hook
	}{
		{name: "single vendor chunk", vendor: hooks.Vendor()},
		{name: "chunk per module", vendor: hooks.VendorEachModule()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cfg := compose(t, pipeline.Env{Production: true}, hooks.Must(hooks.Entry("./src/index.js")), tt.vendor)

			var buf bytes.Buffer
			ctx = zerolog.New(&buf).WithContext(ctx)

			b, err := New(cfg, Options{WorkingDir: t.TempDir()})
			require.NoError(t, err)

			opts, err := b.BuildOptions(ctx)
			require.NoError(t, err)

			// both only turn on esbuild splitting
			assert.True(t, opts.Splitting)
			assert.Contains(t, buf.String(), `"cache_group":"vendor","message":"Cache group has no esbuild equivalent, skipping"`)
			assert.Contains(t, buf.String(), `"runtime_chunk":"single","message":"Runtime chunk has no esbuild equivalent, skipping"`)
		})
	}
}

func TestBuildOptions_Entries(t *testing.T) {
	tests := []struct {
		name     string
		entry    any
		plain    []string
		advanced []api.EntryPoint
		err      error
	}{
		{
			name:  "single path",
			entry: "./a.js",
			plain: []string{"./a.js"},
		},
		{
			name:  "list",
			entry: []any{"./a.js", "./b.js"},
			plain: []string{"./a.js", "./b.js"},
		},
		{
			name:  "named entries sorted by name",
			entry: map[string]any{"vendor": "./v.js", "app": "./a.js"},
			advanced: []api.EntryPoint{
				{InputPath: "./a.js", OutputPath: "app"},
				{InputPath: "./v.js", OutputPath: "vendor"},
			},
		},
		{
			name:  "missing",
			entry: nil,
			err:   ErrNoEntryPoints,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Configuration{"mode": config.Production}
			if tt.entry != nil {
				cfg["entry"] = tt.entry
			}

			b, err := New(cfg, Options{WorkingDir: t.TempDir()})
			require.NoError(t, err)

			opts, err := b.BuildOptions(context.Background())
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.plain, opts.EntryPoints)
			assert.Equal(t, tt.advanced, opts.EntryPointsAdvanced)
		})
	}
}

func TestBuildOptions_InvalidRule(t *testing.T) {
	cfg := config.Configuration{
		"entry":  "./a.js",
		"module": map[string]any{"rules": []any{config.Rule{Test: "(", Use: []config.Use{{Loader: config.LoaderFile}}}}},
	}

	b, err := New(cfg, Options{WorkingDir: t.TempDir()})
	require.NoError(t, err)

	_, err = b.BuildOptions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rule test")
}

func TestBuildOptions_LastRuleWins(t *testing.T) {
	cfg := config.Configuration{
		"entry": "./a.js",
		"module": map[string]any{"rules": []any{
			config.Rule{Test: `\.png$`, Use: []config.Use{{Loader: config.LoaderFile}}},
			config.Rule{Test: `\.png$`, Use: []config.Use{{Loader: config.LoaderURL}}},
		}},
	}

	b, err := New(cfg, Options{WorkingDir: t.TempDir()})
	require.NoError(t, err)

	opts, err := b.BuildOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.LoaderDataURL, opts.Loader[".png"])
}

func TestCompileRule(t *testing.T) {
	first, err := compileRule(`\.woff2?$`)
	require.NoError(t, err)
	second, err := compileRule(`\.woff2?$`)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = compileRule("(")
	require.Error(t, err)
}
