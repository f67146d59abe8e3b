package bundle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/stackup/internal/config"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedAlgorithm indicates a compression plugin names an algorithm
// that is not gzip or zstd
var ErrUnsupportedAlgorithm = errors.New("unsupported compression algorithm")

const defaultMinRatio = 0.8

var compressedExtensions = map[string]string{
	"gzip": ".gz",
	"zstd": ".zst",
}

// compressOutputs writes a compressed copy next to each of the given files,
// relative to the output directory, that shrinks below the plugin's minimum
// ratio. The metafile and already compressed files are left alone.
func (b *Builder) compressOutputs(ctx context.Context, p config.Plugin, files []string) ([]string, error) {
	log := zerolog.Ctx(ctx)

	algorithm := p.StringOption("algorithm", "gzip")
	suffix, ok := compressedExtensions[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}

	minRatio := number(p.Option("minRatio"), defaultMinRatio)
	threshold := int(number(p.Option("threshold"), 0))

	sources := make([]string, 0, len(files))
	for _, rel := range files {
		if rel == b.opts.MetafileName {
			continue
		}
		switch filepath.Ext(rel) {
		case ".gz", ".zst":
			continue
		}
		sources = append(sources, filepath.Join(b.outdir, filepath.FromSlash(rel)))
	}
	sort.Strings(sources)
	sources = slices.Compact(sources)

	// one slot per source so results keep the sorted order
	results := make([]string, len(sources))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, source := range sources {
		g.Go(func() error {
			target, err := compressFile(source, algorithm, suffix, threshold, minRatio)
			if err != nil {
				return err
			}
			if target == "" {
				log.Debug().Str("file", source).Msg("Compression not worthwhile, skipping")
				return nil
			}

			rel, err := filepath.Rel(b.outdir, target)
			if err != nil {
				return err
			}
			results[i] = filepath.ToSlash(rel)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var written []string
	for _, rel := range results {
		if rel != "" {
			written = append(written, rel)
		}
	}

	log.Info().Str("algorithm", algorithm).Int("files", len(written)).Msg("Compressed outputs")

	return written, nil
}

// compressFile writes source+suffix and returns its path, or "" when the file
// is under threshold or does not shrink below minRatio
func compressFile(source, algorithm, suffix string, threshold int, minRatio float64) (string, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", source, err)
	}
	if len(data) == 0 || len(data) < threshold {
		return "", nil
	}

	compressed, err := compress(algorithm, data)
	if err != nil {
		return "", fmt.Errorf("failed to compress %s: %w", source, err)
	}

	if float64(len(compressed))/float64(len(data)) >= minRatio {
		return "", nil
	}

	target := source + suffix
	if err := os.WriteFile(target, compressed, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	return target, nil
}

func compress(algorithm string, data []byte) ([]byte, error) {
	buf := new(bytes.Buffer)

	var w io.WriteCloser
	switch algorithm {
	case "gzip":
		gz, err := gzip.NewWriterLevel(buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		w = gz
	case "zstd":
		enc, err := zstd.NewWriter(buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, err
		}
		w = enc
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// number reads a numeric option that may have come from Go code or a decoded
// recipe
func number(v any, fallback float64) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float64:
		return n
	}
	return fallback
}
