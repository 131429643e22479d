// Package fetch retrieves page markup and favicons over HTTP for the
// engine.
package fetch

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/sitetint/internal/engine"
	sitetintimage "github.com/jmylchreest/sitetint/internal/image"
	"github.com/jmylchreest/sitetint/internal/security"
	httputil "github.com/jmylchreest/sitetint/internal/util/http"
	"github.com/jmylchreest/sitetint/internal/util/imagecache"
)

// Options configures a Client.
type Options struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// AllowPrivate permits localhost and private network targets.
	AllowPrivate bool

	// CacheDir holds downloaded favicons. Empty uses the default cache
	// directory.
	CacheDir string

	// CacheMaxAge is how long a cached favicon is reused.
	CacheMaxAge time.Duration

	// NoCache disables the favicon disk cache.
	NoCache bool

	Logger hclog.Logger
}

// Client fetches page markup and favicons. It implements
// engine.MarkupSource and engine.FaviconSource.
type Client struct {
	opts   Options
	logger hclog.Logger

	mu    sync.Mutex
	icons map[string]string // page URL -> declared icon URL
}

// NewClient creates a client.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		opts:   opts,
		logger: logger.Named("fetch"),
		icons:  make(map[string]string),
	}
}

var (
	_ engine.MarkupSource  = (*Client)(nil)
	_ engine.FaviconSource = (*Client)(nil)
)

// Markup implements engine.MarkupSource.
func (c *Client) Markup(ctx context.Context, t engine.Target) (string, error) {
	if err := c.validate(t.URL); err != nil {
		return "", err
	}

	data, err := httputil.Fetch(ctx, t.URL, httputil.FetchOptions{
		Timeout: c.opts.Timeout,
		Headers: map[string]string{"Accept": "text/html,application/xhtml+xml"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", t.URL, err)
	}
	markup := string(data)

	if icon, ok := IconURL(t.URL, markup); ok {
		c.mu.Lock()
		c.icons[t.URL] = icon
		c.mu.Unlock()
	}

	c.logger.Debug("fetched markup", "url", t.URL, "bytes", len(data))
	return markup, nil
}

// Favicon implements engine.FaviconSource. The icon declared by the page's
// markup is used once known, /favicon.ico otherwise.
func (c *Client) Favicon(ctx context.Context, t engine.Target) (image.Image, error) {
	c.mu.Lock()
	icon, ok := c.icons[t.URL]
	c.mu.Unlock()
	if !ok {
		var err error
		icon, err = DefaultIconURL(t.URL)
		if err != nil {
			return nil, err
		}
	}
	if err := c.validate(icon); err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, u string) ([]byte, error) {
		return httputil.Fetch(ctx, u, httputil.FetchOptions{Timeout: c.opts.Timeout, MaxBytes: 1 << 20})
	}

	var data []byte
	if c.opts.NoCache {
		var err error
		if data, err = fetch(ctx, icon); err != nil {
			return nil, fmt.Errorf("failed to fetch favicon: %w", err)
		}
	} else {
		var (
			hit bool
			err error
		)
		data, hit, err = imagecache.DownloadAndCache(ctx, icon, imagecache.CacheOptions{
			CacheDir: c.opts.CacheDir,
			MaxAge:   c.opts.CacheMaxAge,
			Fetch:    fetch,
		})
		if err != nil {
			return nil, err
		}
		c.logger.Trace("favicon", "url", icon, "cached", hit)
	}

	img, err := sitetintimage.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode favicon %s: %w", icon, err)
	}
	return img, nil
}

func (c *Client) validate(u string) error {
	if c.opts.AllowPrivate {
		_, err := security.PageURL(u)
		return err
	}
	return security.ValidateRemoteURL(u)
}

// DefaultIconURL returns the conventional /favicon.ico of a page's origin.
func DefaultIconURL(pageURL string) (string, error) {
	u, err := security.PageURL(pageURL)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/favicon.ico"}).String(), nil
}

// IconURL returns the absolute URL of the first icon a page declares with
// <link rel="icon">, preferring it over apple-touch-icon.
func IconURL(pageURL, markup string) (string, bool) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", false
	}
	if b, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := base.Parse(b); err == nil {
			base = ref
		}
	}

	var found string
	for _, want := range []string{"icon", "apple-touch-icon"} {
		doc.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			for _, rel := range strings.Fields(strings.ToLower(s.AttrOr("rel", ""))) {
				if rel == want {
					found = s.AttrOr("href", "")
					return false
				}
			}
			return true
		})
		if found != "" {
			break
		}
	}
	if found == "" || strings.HasPrefix(found, "data:") {
		return "", false
	}

	ref, err := base.Parse(found)
	if err != nil {
		return "", false
	}
	return ref.String(), true
}
