// Package imagecache downloads favicons and keeps them on disk.
package imagecache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	httputil "github.com/jmylchreest/sitetint/internal/util/http"
)

// CacheOptions configures image caching behavior.
type CacheOptions struct {
	// CacheDir is the directory where images will be cached.
	// If empty, defaults to ~/.cache/sitetint/favicons.
	CacheDir string

	// MaxAge is how long a cached file is reused. Zero means forever.
	MaxAge time.Duration

	// Fetch overrides the download function; used by tests.
	Fetch func(ctx context.Context, url string) ([]byte, error)
}

// DefaultCacheDir returns the default cache directory path.
func DefaultCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "sitetint", "favicons"), nil
	}
	return filepath.Join(cacheDir, "sitetint", "favicons"), nil
}

// Filename returns the deterministic cache filename for a URL: a SHA256
// prefix plus the URL's extension, .ico when it has none.
func Filename(url string) string {
	hash := sha256.Sum256([]byte(url))
	hashStr := fmt.Sprintf("%x", hash[:16])

	ext := filepath.Ext(url)
	if idx := strings.IndexAny(ext, "?#"); idx != -1 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 5 || strings.Contains(ext, "/") {
		ext = ".ico"
	}

	return hashStr + strings.ToLower(ext)
}

// DownloadAndCache returns the cached bytes for url, downloading them when
// missing or older than MaxAge. The second return reports a cache hit.
func DownloadAndCache(ctx context.Context, url string, opts CacheOptions) ([]byte, bool, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, false, fmt.Errorf("invalid URL: must start with http:// or https://")
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		defaultDir, err := DefaultCacheDir()
		if err != nil {
			return nil, false, err
		}
		cacheDir = defaultDir
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return nil, false, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cachedPath := filepath.Join(cacheDir, Filename(url))
	if info, err := os.Stat(cachedPath); err == nil {
		if opts.MaxAge == 0 || time.Since(info.ModTime()) < opts.MaxAge {
			data, err := os.ReadFile(cachedPath) // #nosec G304 - path derived from URL hash
			if err == nil {
				return data, true, nil
			}
		}
	}

	fetch := opts.Fetch
	if fetch == nil {
		fetch = func(ctx context.Context, url string) ([]byte, error) {
			return httputil.Fetch(ctx, url, httputil.FetchOptions{MaxBytes: 1 << 20})
		}
	}
	data, err := fetch(ctx, url)
	if err != nil {
		return nil, false, fmt.Errorf("failed to download image: %w", err)
	}

	if err := os.WriteFile(cachedPath, data, 0o644); err != nil { // #nosec G306 - Cache files need standard read permissions
		return nil, false, fmt.Errorf("failed to write cached image: %w", err)
	}

	return data, false, nil
}
