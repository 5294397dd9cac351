// Package fetcher downloads the landing page and linked artifacts using Colly.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/etl"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher performs single blocking GETs via a Colly collector.
type Fetcher struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	c := colly.NewCollector(colly.Async(false))
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c.SetRequestTimeout(timeout)
	// The artifacts are direct downloads, not pages to crawl.
	c.IgnoreRobotsTxt = true

	return &Fetcher{cfg: cfg, base: c, logger: logger}
}

// Get fetches a URL and returns the response body. Network failures are
// fatal for the run: there is no retry on the download itself.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	collector := f.base.Clone()

	var body []byte
	var fetchErr error
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
		}
		return body, nil
	}
}

// Download fetches a URL and writes it to the primary path. When the primary
// path's directory is missing (the usual case when the bind mount is absent),
// it falls back to the secondary path and logs the substitution. The chosen
// path is recorded on the returned document.
func (f *Fetcher) Download(ctx context.Context, rawURL, primary, fallback string, format etl.Format) (etl.RawDocument, error) {
	body, err := f.Get(ctx, rawURL)
	if err != nil {
		return etl.RawDocument{}, err
	}

	path := primary
	if err := writeArtifact(primary, body); err != nil {
		if !isMissingPath(err) {
			return etl.RawDocument{}, fmt.Errorf("write %s: %w", primary, err)
		}
		f.logger.Warn("primary path unavailable, saving locally",
			zap.String("primary", primary),
			zap.String("fallback", fallback),
		)
		if err := writeArtifact(fallback, body); err != nil {
			return etl.RawDocument{}, fmt.Errorf("write fallback %s: %w", fallback, err)
		}
		path = fallback
	}

	f.logger.Info("downloaded artifact",
		zap.String("url", rawURL),
		zap.String("path", path),
		zap.String("format", string(format)),
	)
	return etl.RawDocument{SourceURL: rawURL, LocalPath: path, Format: format}, nil
}

// writeArtifact writes to an existing directory for mount-style paths but
// creates the directory for relative fallback paths under the working dir.
func writeArtifact(path string, body []byte) error {
	if !filepath.IsAbs(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
	}
	return os.WriteFile(path, body, 0o600)
}

func isMissingPath(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
