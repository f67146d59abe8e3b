package recipe

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"regexp"

	"github.com/wolfeidau/stackup/internal/config"
	"github.com/wolfeidau/stackup/internal/hooks"
	"gopkg.in/yaml.v3"
)

type builder func(raw any) (hooks.Hook, error)

var builders map[string]builder

func init() {
	builders = map[string]builder{
		"merge":            buildMerge,
		"mode":             buildMode,
		"entry":            buildEntry,
		"output":           buildOutput,
		"rule":             buildRule,
		"plugin":           buildPlugin,
		"babel":            noOptions(hooks.Babel),
		"postcss":          noOptions(hooks.PostCSS),
		"svg":              noOptions(hooks.SVG),
		"files":            buildFiles,
		"html":             buildHTML,
		"vendor":           noOptions(hooks.Vendor),
		"vendorEachModule": noOptions(hooks.VendorEachModule),
		"minify":           noOptions(hooks.Minify),
		"gzip":             noOptions(hooks.Gzip),
		"favicons":         buildFavicons,
		"devServer":        buildDevServer,
	}
}

// decode converts raw recipe values into typed options, rejecting unknown keys
func decode(raw, out any) error {
	if raw == nil {
		return nil
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	return nil
}

func noOptions(factory func() hooks.Hook) builder {
	return func(raw any) (hooks.Hook, error) {
		if m, ok := raw.(map[string]any); raw != nil && (!ok || len(m) > 0) {
			return nil, errors.New("takes no options")
		}
		return factory(), nil
	}
}

func buildMerge(raw any) (hooks.Hook, error) {
	patch, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("expects a configuration table")
	}
	return hooks.Merge(config.Configuration(patch)), nil
}

func buildMode(raw any) (hooks.Hook, error) {
	modes, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("expects a table of hook lists keyed by mode")
	}

	var options hooks.ModeOptions
	for mode, value := range modes {
		list, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("%s expects a list of hooks", mode)
		}

		items := make([]map[string]any, 0, len(list))
		for _, v := range list {
			item, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: %w", mode, ErrMalformedItem)
			}
			items = append(items, item)
		}

		hs, err := build(items)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mode, err)
		}
		h := hooks.Compose(hs...)

		switch config.Mode(mode) {
		case "default":
			options.Default = h
		case config.Development:
			options.Development = h
		case config.Production:
			options.Production = h
		default:
			if options.Named == nil {
				options.Named = map[config.Mode]hooks.Hook{}
			}
			options.Named[config.Mode(mode)] = h
		}
	}

	return hooks.Mode(options), nil
}

func buildEntry(raw any) (hooks.Hook, error) {
	switch v := raw.(type) {
	case string:
		if v != "" {
			return hooks.Entry(v)
		}
	case []any:
		paths := make([]string, 0, len(v))
		for _, p := range v {
			s, ok := p.(string)
			if !ok || s == "" {
				return nil, errors.New("entry list must contain paths")
			}
			paths = append(paths, s)
		}
		if len(paths) > 0 {
			return hooks.Entry(paths...)
		}
	case map[string]any:
		named := make(map[string]string, len(v))
		for name, p := range v {
			s, ok := p.(string)
			if !ok || s == "" {
				return nil, fmt.Errorf("entry %s must be a path", name)
			}
			named[name] = s
		}
		if len(named) > 0 {
			return hooks.NamedEntry(named), nil
		}
	}
	return nil, errors.New("expects a path, a list of paths or a table of named paths")
}

func buildOutput(raw any) (hooks.Hook, error) {
	var opts struct {
		Path       string `yaml:"path"`
		PublicPath string `yaml:"publicPath"`
	}
	if err := decode(raw, &opts); err != nil {
		return nil, err
	}
	return hooks.Output(hooks.OutputOptions{Path: opts.Path, PublicPath: opts.PublicPath})
}

// useSpec accepts either a bare loader name or a {loader, options} table
type useSpec struct {
	Loader  string         `yaml:"loader"`
	Options map[string]any `yaml:"options"`
}

func (u *useSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		u.Loader = node.Value
		return nil
	}
	type plain useSpec
	return node.Decode((*plain)(u))
}

func buildRule(raw any) (hooks.Hook, error) {
	var spec struct {
		Test    string    `yaml:"test"`
		Exclude string    `yaml:"exclude"`
		Use     []useSpec `yaml:"use"`
	}
	if err := decode(raw, &spec); err != nil {
		return nil, err
	}

	if spec.Test == "" {
		return nil, &hooks.OptionError{Hook: "rule", Option: "test", Err: hooks.ErrMissingOption}
	}
	for option, pattern := range map[string]string{"test": spec.Test, "exclude": spec.Exclude} {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, &hooks.OptionError{Hook: "rule", Option: option, Err: err}
		}
	}
	if len(spec.Use) == 0 {
		return nil, &hooks.OptionError{Hook: "rule", Option: "use", Err: hooks.ErrMissingOption}
	}

	rule := config.Rule{Test: spec.Test, Exclude: spec.Exclude}
	for _, u := range spec.Use {
		rule.Use = append(rule.Use, config.Use{Loader: u.Loader, Options: u.Options})
	}
	return hooks.Rule(rule), nil
}

func buildPlugin(raw any) (hooks.Hook, error) {
	var spec struct {
		Name    string         `yaml:"name"`
		Options map[string]any `yaml:"options"`
	}
	if err := decode(raw, &spec); err != nil {
		return nil, err
	}
	if spec.Name == "" {
		return nil, &hooks.OptionError{Hook: "plugin", Option: "name", Err: hooks.ErrMissingOption}
	}
	return hooks.Plugin(config.Plugin{Name: spec.Name, Options: spec.Options}), nil
}

func buildFiles(raw any) (hooks.Hook, error) {
	var opts struct {
		Test string `yaml:"test"`
	}
	if err := decode(raw, &opts); err != nil {
		return nil, err
	}
	return hooks.Files(hooks.FilesOptions{Test: opts.Test})
}

func buildHTML(raw any) (hooks.Hook, error) {
	var opts struct {
		Title    string `yaml:"title"`
		Template string `yaml:"template"`
		Filename string `yaml:"filename"`
	}
	if err := decode(raw, &opts); err != nil {
		return nil, err
	}
	return hooks.HTML(hooks.HTMLOptions{Title: opts.Title, Template: opts.Template, Filename: opts.Filename}), nil
}

func buildFavicons(raw any) (hooks.Hook, error) {
	var opts struct {
		Name            string `yaml:"name"`
		ShortName       string `yaml:"shortName"`
		Description     string `yaml:"description"`
		Logo            string `yaml:"logo"`
		Background      string `yaml:"background"`
		BackgroundColor string `yaml:"backgroundColor"`
		ThemeColor      string `yaml:"themeColor"`
	}
	if err := decode(raw, &opts); err != nil {
		return nil, err
	}
	return hooks.Favicons(hooks.FaviconOptions{
		Name:        opts.Name,
		ShortName:   opts.ShortName,
		Description: opts.Description,
		Logo:        opts.Logo,
		Background:  cmp.Or(opts.Background, opts.BackgroundColor),
		ThemeColor:  opts.ThemeColor,
	})
}

func buildDevServer(raw any) (hooks.Hook, error) {
	var opts struct {
		Port               int    `yaml:"port"`
		ContentBase        string `yaml:"contentBase"`
		HistoryAPIFallback bool   `yaml:"historyApiFallback"`
	}
	if err := decode(raw, &opts); err != nil {
		return nil, err
	}
	return hooks.DevServer(hooks.DevServerOptions{
		Port:               opts.Port,
		ContentBase:        opts.ContentBase,
		HistoryAPIFallback: opts.HistoryAPIFallback,
	})
}
