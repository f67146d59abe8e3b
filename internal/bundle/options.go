package bundle

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/stackup/internal/buildmode"
	"github.com/wolfeidau/stackup/internal/config"
)

// extensions probed against each rule's test pattern
var knownExtensions = []string{
	".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx",
	".css", ".json", ".txt", ".svg",
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".avif", ".ico", ".bmp",
	".woff", ".woff2", ".ttf", ".otf", ".eot",
	".mp4", ".webm", ".mp3", ".wav",
}

var hashToken = regexp.MustCompile(`\[(contenthash|chunkhash|fullhash|hash)(:\d+)?\]`)

// compiled rule tests, shared across builds in the process
var rulePatterns = func() *lru.Cache[string, *regexp.Regexp] {
	cache, err := lru.New[string, *regexp.Regexp](256)
	if err != nil {
		panic(err)
	}
	return cache
}()

func compileRule(test string) (*regexp.Regexp, error) {
	if re, ok := rulePatterns.Get(test); ok {
		return re, nil
	}

	re, err := regexp.Compile(test)
	if err != nil {
		return nil, err
	}
	rulePatterns.Add(test, re)
	return re, nil
}

// BuildOptions translates a composed configuration into esbuild options
func (b *Builder) BuildOptions(ctx context.Context) (api.BuildOptions, error) {
	log := zerolog.Ctx(ctx)

	opts := api.BuildOptions{
		AbsWorkingDir: b.workingDir,
		Outdir:        b.outdir,
		Bundle:        true,
		Write:         true,
		Metafile:      true,
		Format:        api.FormatESModule,
		TreeShaking:   api.TreeShakingTrue,
		JSX:           api.JSXAutomatic,
		LogLevel:      api.LogLevelSilent,
		PublicPath:    b.cfg.LookupString("output", "publicPath"),
		Define: map[string]string{
			"process.env.NODE_ENV": strconv.Quote(buildmode.NodeEnv(ctx)),
		},
	}

	mode, _ := buildmode.FromContext(ctx)
	opts.JSXDev = mode == config.Development

	if err := b.entryPoints(&opts); err != nil {
		return api.BuildOptions{}, err
	}

	if pattern := b.cfg.LookupString("output", "filename"); pattern != "" {
		opts.EntryNames = namePattern(pattern)
	}
	if pattern := b.cfg.LookupString("output", "chunkFilename"); pattern != "" {
		opts.ChunkNames = namePattern(pattern)
		if !strings.Contains(opts.ChunkNames, "[hash]") {
			// every chunk is named "chunk", only the hash tells them apart
			opts.ChunkNames += "-[hash]"
		}
	}

	loaders, assetNames, err := b.loaders(ctx)
	if err != nil {
		return api.BuildOptions{}, err
	}
	opts.Loader = loaders
	if assetNames != "" {
		opts.AssetNames = assetNames
	}

	for _, ext := range b.cfg.LookupSlice("resolve", "extensions") {
		if s, ok := ext.(string); ok {
			opts.ResolveExtensions = append(opts.ResolveExtensions, s)
		}
	}

	if minimize, _ := b.cfg.Lookup("optimization", "minimize"); minimize == true {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true

		for _, m := range b.cfg.Minimizers() {
			log.Debug().Str("minimizer", m.Name).Msg("Minimizer replaced by esbuild minification")
		}
	}

	// esbuild splitting only moves code shared between entries and dynamic
	// imports into chunks, it has no named runtime or cache group chunks
	if _, ok := b.cfg.Lookup("optimization", "splitChunks"); ok {
		opts.Splitting = true

		groups, _ := b.cfg.Lookup("optimization", "splitChunks", "cacheGroups")
		if groups, ok := groups.(map[string]any); ok {
			names := make([]string, 0, len(groups))
			for name := range groups {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				log.Info().Str("cache_group", name).Msg("Cache group has no esbuild equivalent, skipping")
			}
		}
	}

	if runtimeChunk, ok := b.cfg.Lookup("optimization", "runtimeChunk"); ok {
		log.Info().Interface("runtime_chunk", runtimeChunk).Msg("Runtime chunk has no esbuild equivalent, skipping")
	}

	opts.Sourcemap = sourceMap(b.cfg["devtool"])

	for _, p := range b.cfg.Plugins() {
		if !postBuildPlugins[p.Name] {
			log.Debug().Str("plugin", p.Name).Msg("Plugin has no esbuild equivalent, skipping")
		}
	}

	return opts, nil
}

func (b *Builder) entryPoints(opts *api.BuildOptions) error {
	switch entry := b.cfg["entry"].(type) {
	case string:
		opts.EntryPoints = []string{entry}
	case []any:
		for _, e := range entry {
			s, ok := e.(string)
			if !ok {
				return fmt.Errorf("entry list must contain paths, got %T", e)
			}
			opts.EntryPoints = append(opts.EntryPoints, s)
		}
	case map[string]any:
		names := make([]string, 0, len(entry))
		for name := range entry {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			s, ok := entry[name].(string)
			if !ok {
				return fmt.Errorf("entry %s must be a path, got %T", name, entry[name])
			}
			opts.EntryPointsAdvanced = append(opts.EntryPointsAdvanced, api.EntryPoint{InputPath: s, OutputPath: name})
		}
	}

	if len(opts.EntryPoints) == 0 && len(opts.EntryPointsAdvanced) == 0 {
		return ErrNoEntryPoints
	}
	return nil
}

// loaders maps each known extension matched by a rule to an esbuild loader.
// esbuild allows one loader per extension, so the last matching rule wins.
func (b *Builder) loaders(ctx context.Context) (map[string]api.Loader, string, error) {
	log := zerolog.Ctx(ctx)

	loaders := map[string]api.Loader{}
	var assetNames string

	for _, rule := range b.cfg.Rules() {
		test, err := compileRule(rule.Test)
		if err != nil {
			return nil, "", fmt.Errorf("invalid rule test %q: %w", rule.Test, err)
		}

		matched := false
		for _, ext := range knownExtensions {
			if !test.MatchString("module" + ext) {
				continue
			}
			if loader, ok := ruleLoader(rule, ext); ok {
				loaders[ext] = loader
				matched = true
			}
		}

		if !matched {
			log.Warn().Str("test", rule.Test).Strs("loaders", rule.Loaders()).Msg("Rule has no esbuild equivalent, skipping")
		}

		for _, u := range rule.Use {
			if name, ok := u.Options["name"].(string); ok && assetNames == "" {
				assetNames = namePattern(name)
			}
		}
	}

	return loaders, assetNames, nil
}

func ruleLoader(rule config.Rule, ext string) (api.Loader, bool) {
	switch {
	case rule.HasLoader(config.LoaderBabel):
		loader := sourceLoader(ext)
		return loader, loader != api.LoaderNone
	case rule.HasLoader(config.LoaderCSS):
		return api.LoaderCSS, true
	case rule.HasLoader(config.LoaderURL):
		return api.LoaderDataURL, true
	case rule.HasLoader(config.LoaderFile):
		return api.LoaderFile, true
	}
	return api.LoaderNone, false
}

func sourceLoader(ext string) api.Loader {
	switch ext {
	case ".js", ".mjs", ".cjs":
		return api.LoaderJS
	case ".jsx":
		return api.LoaderJSX
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	}
	return api.LoaderNone
}

// namePattern converts a filename pattern such as
// "assets/js/[name].[contenthash:8].js" into the esbuild form
// "assets/js/[name].[hash]". esbuild appends the extension itself.
func namePattern(pattern string) string {
	out := hashToken.ReplaceAllString(pattern, "[hash]")

	if trimmed, ok := strings.CutSuffix(out, ".[ext]"); ok {
		return trimmed
	}
	if ext := path.Ext(out); ext != "" && !strings.ContainsAny(ext, "[]") {
		out = strings.TrimSuffix(out, ext)
	}
	return out
}

func sourceMap(devtool any) api.SourceMap {
	s, ok := devtool.(string)
	if !ok || s == "" || s == "false" {
		return api.SourceMapNone
	}
	if strings.Contains(s, "inline") {
		return api.SourceMapInline
	}
	return api.SourceMapLinked
}
