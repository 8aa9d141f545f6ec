package ics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = "BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nSUMMARY:Feed\r\nDTSTART:20240601\r\nEND:VEVENT\r\nEND:VCALENDAR\r\n"

func TestFetcher_ConditionalGet(t *testing.T) {
	var hits, notModified atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", ContentType)
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	f := NewFetcher(0)
	ctx := context.Background()

	body, err := f.Fetch(ctx, srv.URL+"/private/token.ics")
	require.NoError(t, err)
	assert.Equal(t, feed, string(body))

	body, err = f.Fetch(ctx, srv.URL+"/private/token.ics")
	require.NoError(t, err)
	assert.Equal(t, feed, string(body), "304 must serve the cached body")

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, int32(1), notModified.Load())
	assert.Len(t, DecodeString(string(body)), 1)
}

func TestFetcher_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/stale":
			w.WriteHeader(http.StatusNotModified)
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		}
	}))
	defer srv.Close()

	f := NewFetcher(32)
	ctx := context.Background()

	for _, raw := range []string{
		"",
		"ftp://example.com/cal.ics",
		"file:///etc/passwd",
		srv.URL + "/missing",
		srv.URL + "/stale",
		srv.URL + "/big",
	} {
		t.Run(raw, func(t *testing.T) {
			body, err := f.Fetch(ctx, raw)
			require.Error(t, err)
			assert.Nil(t, body)

			var readErr *ReadError
			assert.True(t, errors.As(err, &readErr))
		})
	}
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://calendar.example.com/...(redacted)", redactURL("https://calendar.example.com/private/abc.ics?token=secret"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
