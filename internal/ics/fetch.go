package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	appLog "kalender/internal/log"
)

// DefaultMaxBytes bounds a fetched document when the caller sets no limit.
const DefaultMaxBytes = 5 << 20

var (
	errEmptyURL       = errors.New("url is empty")
	errUnsupportedURL = errors.New("only http and https urls are supported")
	errTooLarge       = errors.New("document exceeds size limit")
)

// cacheEntry holds the validators and body of the last 200 response for a URL.
type cacheEntry struct {
	ETag         string
	LastModified string
	Body         []byte
	UpdatedAt    time.Time
}

// Fetcher downloads remote calendar documents for import, revalidating
// with ETag / Last-Modified against an in-memory cache.
type Fetcher struct {
	client   *http.Client
	maxBytes int64

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewFetcher creates a Fetcher. maxBytes <= 0 selects DefaultMaxBytes.
func NewFetcher(maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		maxBytes: maxBytes,
		cache:    make(map[string]cacheEntry),
	}
}

// Fetch returns the document at rawURL. Every failure is a *ReadError:
// the importer treats an unreachable feed like an unreadable file.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := f.fetch(ctx, rawURL)
	if err != nil {
		appLog.Error("ics fetch failed", err, "url", redactURL(rawURL))
		return nil, &ReadError{Source: redactURL(rawURL), Err: err}
	}
	return body, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, errEmptyURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errUnsupportedURL
	}

	f.mu.Lock()
	cached, hasCache := f.cache[rawURL]
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar, text/plain;q=0.9, */*;q=0.1")

	// Conditional headers from cache metadata.
	if hasCache {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	appLog.Info("ics fetch start", "url", redactURL(rawURL))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
		if err != nil {
			return nil, err
		}
		if int64(len(body)) > f.maxBytes {
			return nil, errTooLarge
		}

		f.mu.Lock()
		f.cache[rawURL] = cacheEntry{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			Body:         body,
			UpdatedAt:    time.Now().UTC(),
		}
		f.mu.Unlock()

		appLog.Info("ics fetch success", "url", redactURL(rawURL), "status", resp.StatusCode, "bytes", len(body), "from_cache", false)
		return body, nil

	case http.StatusNotModified:
		if !hasCache {
			// 304 but no cached body: treat as error.
			return nil, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("ics fetch not modified; using cache", "url", redactURL(rawURL))
		return cached.Body, nil

	default:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
}

// redactURL hides path and query of a feed URL for logging; private
// calendar links carry their secret there.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
