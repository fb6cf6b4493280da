package favicon

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultEndpoint is a favicon service URL template taking the escaped page URL and the size.
const DefaultEndpoint = "https://www.google.com/s2/favicons?domain_url=%s&sz=%d"

const maxIconBytes = 256 << 10

// HTTPOptions configures an HTTPFetcher
type HTTPOptions struct {
	Endpoint string
	RetryMax int
	Timeout  time.Duration
	Cache    Cache
	Logger   *slog.Logger
}

// HTTPFetcher downloads favicons from a favicon service
type HTTPFetcher struct {
	client   *retryablehttp.Client
	endpoint string
	cache    Cache
	logger   *slog.Logger
}

// NewHTTPFetcher creates a fetcher backed by a retrying HTTP client
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.Logger = nil
	if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPFetcher{
		client:   client,
		endpoint: endpoint,
		cache:    opts.Cache,
		logger:   logger,
	}
}

// Fetch returns the icon as a data URL, or "" when it cannot be downloaded.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string, size int) string {
	if size <= 0 {
		size = DefaultSize
	}

	key := cacheKey(pageURL, size)
	if f.cache != nil {
		if icon, ok := f.cache.Get(key); ok {
			return icon
		}
	}

	icon, err := f.download(ctx, pageURL, size)
	if err != nil {
		f.logger.Debug("favicon fetch failed", "url", pageURL, "error", err)
		return ""
	}

	if f.cache != nil {
		if err := f.cache.Set(key, icon); err != nil {
			f.logger.Warn("failed to cache favicon", "error", err)
		}
	}
	return icon
}

func (f *HTTPFetcher) download(ctx context.Context, pageURL string, size int) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf(f.endpoint, url.QueryEscape(pageURL), size), nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes))
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", fmt.Errorf("empty response")
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType == "" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(body))
	}

	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}
