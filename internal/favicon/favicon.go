// Package favicon resolves page favicons as base64 data URLs.
package favicon

import "context"

// DefaultSize is the icon edge in pixels requested when none is configured.
const DefaultSize = 16

// Fetcher returns the favicon of pageURL as a "data:<mime>;base64,..." URL.
// Failures are reported as an empty string.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string, size int) string
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, pageURL string, size int) string

func (f FetcherFunc) Fetch(ctx context.Context, pageURL string, size int) string {
	return f(ctx, pageURL, size)
}

// Chain returns a Fetcher that asks each fetcher in turn and keeps the first non-empty icon.
func Chain(fetchers ...Fetcher) Fetcher {
	return FetcherFunc(func(ctx context.Context, pageURL string, size int) string {
		for _, f := range fetchers {
			if f == nil {
				continue
			}
			if icon := f.Fetch(ctx, pageURL, size); icon != "" {
				return icon
			}
		}
		return ""
	})
}

// None never finds an icon.
var None Fetcher = FetcherFunc(func(context.Context, string, int) string { return "" })
