package hooks

import (
	"cmp"
	"fmt"
	"regexp"

	"github.com/wolfeidau/stackup/internal/config"
	"github.com/wolfeidau/stackup/internal/vendor"
)

const mediaName = "assets/media/[name].[hash:8].[ext]"

// OutputOptions configures where bundles are written
type OutputOptions struct {
	// Path is the output directory used for production builds
	Path string
	// PublicPath is the URL prefix assets are served from
	PublicPath string
}

// Output sets output paths and filename patterns. Production filenames carry a
// content hash, development ones do not.
func Output(options OutputOptions) (Hook, error) {
	if options.Path == "" {
		return nil, missing("output", "path")
	}

	publicPath := optional(options.PublicPath)

	return Mode(ModeOptions{
		Development: Merge(config.Configuration{
			"output": map[string]any{
				"publicPath":    publicPath,
				"filename":      "assets/js/[name].js",
				"chunkFilename": "assets/js/[name].chunk.js",
			},
		}),
		Production: Merge(config.Configuration{
			"output": map[string]any{
				"path":          options.Path,
				"publicPath":    publicPath,
				"filename":      "assets/js/[name].[contenthash:8].js",
				"chunkFilename": "assets/js/[name].[contenthash:8].chunk.js",
			},
		}),
	}), nil
}

// Babel transpiles JavaScript and TypeScript sources
func Babel() Hook {
	return Merge(config.Configuration{
		"module": map[string]any{
			"rules": []any{config.Rule{
				Test:    `\.(js|mjs|jsx|ts|tsx)$`,
				Exclude: "node_modules",
				Use: []config.Use{
					{Loader: config.LoaderBabel, Options: map[string]any{"cacheDirectory": true}},
				},
			}},
		},
		"resolve": map[string]any{
			"extensions": []any{".tsx", ".ts", ".mjs", ".js"},
		},
	})
}

// PostCSS compiles stylesheets. Development injects styles at runtime while
// production extracts them into content hashed files.
func PostCSS() Hook {
	cssLoader := config.Use{Loader: config.LoaderCSS, Options: map[string]any{"importLoaders": 1}}
	postcssLoader := config.Use{Loader: config.LoaderPostCSS}

	return Mode(ModeOptions{
		Development: Rule(config.Rule{
			Test: `\.css$`,
			Use:  []config.Use{{Loader: config.LoaderStyle}, cssLoader, postcssLoader},
		}),
		Production: Compose(
			Rule(config.Rule{
				Test: `\.css$`,
				Use:  []config.Use{{Loader: config.LoaderCSSExtract}, cssLoader, postcssLoader},
			}),
			Plugin(config.Plugin{
				Name: config.PluginCSSExtract,
				Options: map[string]any{
					"filename":      "assets/css/[name].[contenthash:8].css",
					"chunkFilename": "assets/css/[name].[contenthash:8].chunk.css",
				},
			}),
		),
	})
}

// SVG loads SVG files as components backed by an emitted file
func SVG() Hook {
	return Rule(config.Rule{
		Test: `\.svg$`,
		Use: []config.Use{
			{Loader: config.LoaderSVGR},
			{Loader: config.LoaderFile, Options: map[string]any{"name": mediaName}},
		},
	})
}

// FilesOptions configures plain file loading
type FilesOptions struct {
	// Test is a regular expression matched against module paths
	Test string
}

// Files loads matching modules as URLs to emitted files
func Files(options FilesOptions) (Hook, error) {
	if options.Test == "" {
		return nil, missing("files", "test")
	}
	if _, err := regexp.Compile(options.Test); err != nil {
		return nil, &OptionError{Hook: "files", Option: "test", Err: err}
	}

	return Rule(config.Rule{
		Test: options.Test,
		Use: []config.Use{
			{Loader: config.LoaderFile, Options: map[string]any{"name": mediaName}},
		},
	}), nil
}

// HTMLOptions configures the generated HTML document
type HTMLOptions struct {
	Title    string
	Template string
	Filename string
}

// HTML emits an HTML document referencing the built bundles. Production builds
// also inline the small runtime chunk.
func HTML(options HTMLOptions) Hook {
	pluginOptions := map[string]any{}
	for key, value := range map[string]string{
		"title":    options.Title,
		"template": options.Template,
		"filename": options.Filename,
	} {
		if value != "" {
			pluginOptions[key] = value
		}
	}

	return Mode(ModeOptions{
		Default: Plugin(config.Plugin{Name: config.PluginHTML, Options: pluginOptions}),
		Production: func(cfg config.Configuration) config.Configuration {
			return withPluginOption(cfg, config.PluginHTML, "inlineChunks", []any{"runtime"})
		},
	})
}

// withPluginOption sets an option on the last plugin registered under name
func withPluginOption(cfg config.Configuration, name, key string, value any) config.Configuration {
	out := cfg.Clone()
	registered := out.LookupSlice("plugins")
	for i := len(registered) - 1; i >= 0; i-- {
		p, ok := registered[i].(config.Plugin)
		if !ok || p.Name != name {
			continue
		}
		options := make(map[string]any, len(p.Options)+1)
		for k, v := range p.Options {
			options[k] = v
		}
		options[key] = value
		p.Options = options
		registered[i] = p
		break
	}
	return out
}

// Vendor moves all third-party modules into a single vendor chunk in production
func Vendor() Hook {
	return vendorChunks(vendor.ChunkName)
}

// VendorEachModule gives every third-party package its own chunk in
// production. Combined with Vendor the hook applied last wins.
func VendorEachModule() Hook {
	return vendorChunks(vendor.Namer(vendor.Name))
}

func vendorChunks(name any) Hook {
	return production(Merge(config.Configuration{
		"optimization": map[string]any{
			"runtimeChunk": "single",
			"splitChunks": map[string]any{
				"cacheGroups": map[string]any{
					"vendor": map[string]any{
						"test":    vendor.Test,
						"name":    name,
						"enforce": true,
						"chunks":  "all",
					},
				},
			},
		},
	}))
}

// Minify minifies JavaScript and CSS in production
func Minify() Hook {
	return production(Merge(config.Configuration{
		"optimization": map[string]any{
			"minimize": true,
			"minimizer": []any{
				config.Plugin{Name: config.PluginTerser, Options: map[string]any{"extractComments": false}},
				config.Plugin{Name: config.PluginCSSMinimizer},
			},
		},
	}))
}

// Gzip emits gzip compressed copies of the output in production
func Gzip() Hook {
	return production(Plugin(config.Plugin{
		Name:    config.PluginCompression,
		Options: map[string]any{"algorithm": "gzip"},
	}))
}

// FaviconOptions describes the application icons and web manifest
type FaviconOptions struct {
	Name        string
	ShortName   string
	Description string
	// Logo is the source image icons are generated from
	Logo       string
	Background string
	ThemeColor string
}

// Favicons generates icon assets and a web app manifest from a logo
func Favicons(options FaviconOptions) (Hook, error) {
	if options.Name == "" {
		return nil, missing("favicons", "name")
	}
	if options.Logo == "" {
		return nil, missing("favicons", "logo")
	}

	favicons := map[string]any{
		"appName":      options.Name,
		"appShortName": cmp.Or(options.ShortName, options.Name),
		"background":   cmp.Or(options.Background, "#fff"),
		"theme_color":  cmp.Or(options.ThemeColor, "#fff"),
	}
	if options.Description != "" {
		favicons["appDescription"] = options.Description
	}

	return Plugin(config.Plugin{
		Name: config.PluginFavicons,
		Options: map[string]any{
			"logo":     options.Logo,
			"prefix":   "assets/icons/",
			"cache":    true,
			"favicons": favicons,
		},
	}), nil
}

// DevServerOptions configures the development server
type DevServerOptions struct {
	Port               int
	ContentBase        string
	HistoryAPIFallback bool
}

// DevServer configures the development server, ignored outside development
func DevServer(options DevServerOptions) (Hook, error) {
	if options.Port < 0 || options.Port > 65535 {
		return nil, &OptionError{Hook: "devServer", Option: "port", Err: fmt.Errorf("%d is out of range", options.Port)}
	}

	server := map[string]any{}
	if options.Port != 0 {
		server["port"] = options.Port
	}
	if options.ContentBase != "" {
		server["contentBase"] = options.ContentBase
	}
	if options.HistoryAPIFallback {
		server["historyApiFallback"] = map[string]any{"disableDotRule": true}
	}

	return Mode(ModeOptions{
		Development: Merge(config.Configuration{"devServer": server}),
	}), nil
}

// optional maps "" to nil so merging leaves the key unset
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
