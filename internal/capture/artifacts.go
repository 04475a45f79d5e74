package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/edgecomet/national-treasure/internal/browsersession"
	"github.com/edgecomet/national-treasure/pkg/types"
)

// emitArtifacts writes every requested artifact kind atomically (temp file
// + rename) under baseDir, skipping kinds it cannot produce. It never fails
// the whole capture: per spec §4.5 step 8, it emits what it can and reports
// the first error it hit alongside the kinds that succeeded.
func emitArtifacts(ctx context.Context, pageCtx context.Context, nav *browsersession.NavigationResult, url string, kinds []types.ArtifactKind, baseDir string) (map[types.ArtifactKind]string, error) {
	written := make(map[types.ArtifactKind]string)
	var firstErr error

	for _, kind := range kinds {
		data, err := renderArtifact(pageCtx, nav, url, kind)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		path := fingerprintPath(baseDir, url, kind)
		if err := atomicWrite(path, data); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		written[kind] = path
	}

	return written, firstErr
}

func renderArtifact(pageCtx context.Context, nav *browsersession.NavigationResult, url string, kind types.ArtifactKind) ([]byte, error) {
	switch kind {
	case types.ArtifactHTML:
		return []byte(nav.HTML), nil

	case types.ArtifactScreenshot:
		var buf []byte
		if err := chromedp.Run(pageCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
		}
		return buf, nil

	case types.ArtifactPDF:
		var buf []byte
		if err := chromedp.Run(pageCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().Do(ctx)
			if err != nil {
				return err
			}
			buf = data
			return nil
		})); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArtifactWrite, err)
		}
		return buf, nil

	case types.ArtifactWARC:
		return buildWARCRecord(url, nav.HTML, nav.StatusCode, time.Now())

	default:
		return nil, ErrUnknownArtifact
	}
}

// atomicWrite writes data to a temp file in the target directory then
// renames it into place, so readers only ever see a complete file.
func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	return nil
}
