package config

import "strings"

// Mode selects the build environment
type Mode string

const (
	Development Mode = "development"
	Production  Mode = "production"
)

// Configuration is an open bundler configuration tree keyed by option name
// (entry, output, module, plugins, optimization, resolve, devServer...).
type Configuration map[string]any

// Mode returns the build mode recorded in the configuration
func (c Configuration) Mode() Mode {
	switch v := c["mode"].(type) {
	case Mode:
		return v
	case string:
		return Mode(v)
	}
	return ""
}

// Lookup walks nested maps following path and returns the value found there
func (c Configuration) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(c)
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupString returns the string at path or "" when absent
func (c Configuration) LookupString(path ...string) string {
	v, ok := c.Lookup(path...)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// LookupSlice returns the list at path or nil when absent
func (c Configuration) LookupSlice(path ...string) []any {
	v, ok := c.Lookup(path...)
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}

// Rules returns the module rules
func (c Configuration) Rules() []Rule {
	var rules []Rule
	for _, v := range c.LookupSlice("module", "rules") {
		if r, ok := v.(Rule); ok {
			rules = append(rules, r)
		}
	}
	return rules
}

// Plugins returns the build plugins
func (c Configuration) Plugins() []Plugin {
	return plugins(c.LookupSlice("plugins"))
}

// Minimizers returns the optimization.minimizer plugins
func (c Configuration) Minimizers() []Plugin {
	return plugins(c.LookupSlice("optimization", "minimizer"))
}

// FindPlugin returns the first plugin registered under name
func (c Configuration) FindPlugin(name string) (Plugin, bool) {
	for _, p := range c.Plugins() {
		if p.Name == name {
			return p, true
		}
	}
	return Plugin{}, false
}

func plugins(values []any) []Plugin {
	var out []Plugin
	for _, v := range values {
		if p, ok := v.(Plugin); ok {
			out = append(out, p)
		}
	}
	return out
}

// Rule is a single module processing rule. Test and Exclude are regular
// expression sources matched against module paths.
type Rule struct {
	Test    string `json:"test" yaml:"test"`
	Exclude string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	Use     []Use  `json:"use" yaml:"use"`
}

// Loaders returns the loader identifiers of the rule in chain order
func (r Rule) Loaders() []string {
	loaders := make([]string, 0, len(r.Use))
	for _, u := range r.Use {
		loaders = append(loaders, u.Loader)
	}
	return loaders
}

// HasLoader reports whether the chain uses the named loader, either by name
// or by a resolved path inside the loader's package
func (r Rule) HasLoader(name string) bool {
	for _, u := range r.Use {
		loader := strings.ReplaceAll(u.Loader, `\`, "/")
		if loader == name || strings.HasSuffix(loader, "/"+name) || strings.Contains(loader, "/"+name+"/") {
			return true
		}
	}
	return false
}

// Use is one loader in a rule's chain
type Use struct {
	Loader  string         `json:"loader" yaml:"loader"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Plugin is an opaque build plugin referenced by name
type Plugin struct {
	Name    string         `json:"name" yaml:"name"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Option returns the named option or nil
func (p Plugin) Option(key string) any {
	if p.Options == nil {
		return nil
	}
	return p.Options[key]
}

// StringOption returns the named option as a string, or fallback when unset
func (p Plugin) StringOption(key, fallback string) string {
	if s, ok := p.Option(key).(string); ok && s != "" {
		return s
	}
	return fallback
}

// Loader identifiers understood by the bundle layer.
const (
	LoaderBabel      = "babel-loader"
	LoaderStyle      = "style-loader"
	LoaderCSS        = "css-loader"
	LoaderPostCSS    = "postcss-loader"
	LoaderCSSExtract = "css-extract-loader"
	LoaderSVGR       = "@svgr/webpack"
	LoaderFile       = "file-loader"
	LoaderURL        = "url-loader"
)

// Plugin names understood by the bundle layer.
const (
	PluginHTML         = "html"
	PluginCSSExtract   = "css-extract"
	PluginCompression  = "compression"
	PluginFavicons     = "favicons"
	PluginTerser       = "terser"
	PluginCSSMinimizer = "css-minimizer"
)
