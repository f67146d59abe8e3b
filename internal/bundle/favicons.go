package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/crc64nvme"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/stackup/internal/config"
)

type iconLink struct {
	Rel  string
	Href string
	Type string
}

// iconSet is what the favicons step wrote, paths are relative to the output
// directory and hrefs are public URLs
type iconSet struct {
	Files      []string
	Links      []iconLink
	Manifest   string
	ThemeColor string
}

type manifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type,omitempty"`
}

type webManifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description,omitempty"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Display         string         `json:"display"`
	StartURL        string         `json:"start_url"`
	Icons           []manifestIcon `json:"icons"`
}

// writeFavicons copies the logo into the output directory under a content
// fingerprint and writes a web app manifest describing it
func (b *Builder) writeFavicons(ctx context.Context, p config.Plugin) (*iconSet, error) {
	log := zerolog.Ctx(ctx)

	logo := p.StringOption("logo", "")
	if logo == "" {
		return nil, errors.New("favicons plugin has no logo")
	}

	data, err := os.ReadFile(resolve(b.workingDir, logo))
	if err != nil {
		return nil, fmt.Errorf("failed to read logo: %w", err)
	}

	prefix := p.StringOption("prefix", "assets/icons/")
	settings, _ := p.Option("favicons").(map[string]any)
	setting := func(key, fallback string) string {
		if s, ok := settings[key].(string); ok && s != "" {
			return s
		}
		return fallback
	}

	ext := strings.ToLower(filepath.Ext(logo))
	base := strings.TrimSuffix(filepath.Base(logo), filepath.Ext(logo))
	iconFile := path.Join(prefix, fmt.Sprintf("%s.%s%s", base, fingerprint(data), ext))

	cached, _ := p.Option("cache").(bool)
	if err := b.writeOutput(iconFile, data, cached); err != nil {
		return nil, err
	}

	iconType := mime.TypeByExtension(ext)
	if i := strings.Index(iconType, ";"); i >= 0 {
		iconType = iconType[:i]
	}

	manifest := webManifest{
		Name:            setting("appName", base),
		ShortName:       setting("appShortName", setting("appName", base)),
		Description:     setting("appDescription", ""),
		BackgroundColor: setting("background", "#fff"),
		ThemeColor:      setting("theme_color", "#fff"),
		Display:         "standalone",
		StartURL:        b.publicPath(),
		Icons: []manifestIcon{
			{Src: b.publicPath() + iconFile, Sizes: "any", Type: iconType},
		},
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	manifestFile := path.Join(prefix, "manifest.webmanifest")
	if err := b.writeOutput(manifestFile, manifestData, false); err != nil {
		return nil, err
	}

	log.Info().Str("icon", iconFile).Str("manifest", manifestFile).Msg("Wrote favicons")

	return &iconSet{
		Files: []string{iconFile, manifestFile},
		Links: []iconLink{
			{Rel: "icon", Href: b.publicPath() + iconFile, Type: iconType},
			{Rel: "apple-touch-icon", Href: b.publicPath() + iconFile},
		},
		Manifest:   b.publicPath() + manifestFile,
		ThemeColor: manifest.ThemeColor,
	}, nil
}

// writeOutput writes a slash separated path below the output directory,
// leaving an existing file alone when cached is set
func (b *Builder) writeOutput(name string, data []byte, cached bool) error {
	target := filepath.Join(b.outdir, filepath.FromSlash(name))

	if cached {
		if _, err := os.Stat(target); err == nil {
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(target, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// fingerprint returns the first 8 hex characters of the CRC64-NVME checksum
func fingerprint(data []byte) string {
	h := crc64nvme.New()
	h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())[:8]
}
