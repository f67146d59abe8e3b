package bundle

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/stackup/internal/config"
)

// import-free chunks at or under this size are inlined when the html plugin
// asks for it
const inlineLimit = 4 * 1024

const defaultDocument = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
{{- range .Icons }}
<link rel="{{ .Rel }}" href="{{ .Href }}"{{ with .Type }} type="{{ . }}"{{ end }}>
{{- end }}
{{- with .Manifest }}
<link rel="manifest" href="{{ . }}">
{{- end }}
{{- with .ThemeColor }}
<meta name="theme-color" content="{{ . }}">
{{- end }}
{{- range .Styles }}
<link rel="stylesheet" href="{{ . }}">
{{- end }}
</head>
<body>
<div id="root"></div>
{{- range .Inline }}
<script type="module">{{ . }}</script>
{{- end }}
{{- range .Scripts }}
<script type="module" src="{{ . }}"></script>
{{- end }}
</body>
</html>
`

type document struct {
	Title      string
	Scripts    []string
	Styles     []string
	Inline     []template.JS
	Icons      []iconLink
	Manifest   string
	ThemeColor string
}

// writeHTML renders the document for an html plugin and returns its path
// relative to the output directory
func (b *Builder) writeHTML(ctx context.Context, p config.Plugin, icons *iconSet) (string, error) {
	log := zerolog.Ctx(ctx)

	filename := p.StringOption("filename", "index.html")

	tmpl, name, err := b.htmlTemplate(p)
	if err != nil {
		return "", err
	}

	doc, err := b.document(p, icons)
	if err != nil {
		return "", err
	}

	target := filepath.Join(b.outdir, filepath.FromSlash(filename))
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return "", fmt.Errorf("failed to create html directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create html document: %w", err)
	}
	defer f.Close()

	if err := tmpl.ExecuteTemplate(f, name, doc); err != nil {
		return "", fmt.Errorf("failed to render html document: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close html document: %w", err)
	}

	log.Info().Str("file", filename).Int("scripts", len(doc.Scripts)).Msg("Wrote html document")

	return filepath.ToSlash(filename), nil
}

func (b *Builder) htmlTemplate(p config.Plugin) (*template.Template, string, error) {
	templatePath := p.StringOption("template", "")
	if templatePath == "" {
		tmpl, err := template.New("document").Funcs(templateFuncs()).Parse(defaultDocument)
		return tmpl, "document", err
	}

	resolved := resolve(b.workingDir, templatePath)
	tmpl, err := template.New(filepath.Base(resolved)).Funcs(templateFuncs()).ParseFiles(resolved)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load html template: %w", err)
	}
	return tmpl, filepath.Base(resolved), nil
}

func (b *Builder) document(p config.Plugin, icons *iconSet) (*document, error) {
	doc := &document{Title: p.StringOption("title", "App")}

	if icons != nil {
		doc.Icons = icons.Links
		doc.Manifest = icons.Manifest
		doc.ThemeColor = icons.ThemeColor
	}

	var inlinePrefixes []string
	if chunks, ok := p.Option("inlineChunks").([]any); ok {
		for _, c := range chunks {
			if s, ok := c.(string); ok {
				inlinePrefixes = append(inlinePrefixes, s)
			}
		}
	}

	seen := map[string]bool{}
	for _, entry := range b.metadata.EntryPoints() {
		if info, ok := b.entryOutput(entry, ".css"); ok && !seen[info] {
			seen[info] = true
			doc.Styles = append(doc.Styles, b.assetURL(info))
		}

		js, ok := b.entryOutput(entry, ".js")
		if !ok {
			continue
		}
		if css := b.metadata.Outputs[js].CSSBundle; css != "" && !seen[css] {
			seen[css] = true
			doc.Styles = append(doc.Styles, b.assetURL(css))
		}

		scripts, err := loadScripts(b.metadata, entry)
		if err != nil {
			return nil, err
		}

		for _, script := range scripts {
			if seen[script] {
				continue
			}
			seen[script] = true

			if content, ok := b.inlineContent(script, inlinePrefixes); ok {
				doc.Inline = append(doc.Inline, content)
				continue
			}
			doc.Scripts = append(doc.Scripts, b.assetURL(script))
		}
	}

	return doc, nil
}

// entryOutput finds the output of entry with the given extension
func (b *Builder) entryOutput(entry, ext string) (string, bool) {
	for outputPath, info := range b.metadata.Outputs {
		if info.EntryPoint == entry && filepath.Ext(outputPath) == ext {
			return outputPath, true
		}
	}
	return "", false
}

// inlineContent returns the source of an output whose name starts with one of
// prefixes. Outputs that import other chunks stay external, their relative
// imports would resolve against the page URL once inlined.
func (b *Builder) inlineContent(outputPath string, prefixes []string) (template.JS, bool) {
	if len(b.metadata.Outputs[outputPath].Imports) > 0 {
		return "", false
	}

	base := filepath.Base(outputPath)
	for _, prefix := range prefixes {
		if !strings.HasPrefix(base, prefix) {
			continue
		}
		data, err := os.ReadFile(resolve(b.workingDir, outputPath))
		if err != nil || len(data) > inlineLimit {
			return "", false
		}
		return template.JS(data), true //nolint:gosec
	}
	return "", false
}

// assetURL maps a metafile output path to the URL it is served from
func (b *Builder) assetURL(outputPath string) string {
	rel, err := filepath.Rel(b.outdir, resolve(b.workingDir, outputPath))
	if err != nil {
		rel = outputPath
	}
	return b.publicPath() + filepath.ToSlash(rel)
}

func (b *Builder) publicPath() string {
	publicPath := b.cfg.LookupString("output", "publicPath")
	if publicPath == "" {
		return "/"
	}
	if !strings.HasSuffix(publicPath, "/") {
		publicPath += "/"
	}
	return publicPath
}
