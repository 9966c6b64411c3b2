package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hdmirror/hdmirror/internal/util"
)

const testUserAgent = "Mozilla/5.0 (test)"

func TestFetchHTMLSendsBrowserIdentity(t *testing.T) {
	var gotUA, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	f := NewFetcher(testUserAgent, nil)
	body, err := f.FetchHTML(context.Background(), server.URL+"/page")
	require.NoError(t, err)

	assert.Equal(t, "<html>ok</html>", body)
	assert.Equal(t, testUserAgent, gotUA)
	assert.Equal(t, server.URL+"/", gotReferer)
}

func TestFetchHTMLStatusFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(testUserAgent, nil)
	_, err := f.FetchHTML(context.Background(), server.URL)
	require.Error(t, err)

	fetchErr, ok := err.(*FetchError)
	require.True(t, ok, "expected *FetchError, got %T", err)
	assert.Equal(t, http.StatusNotFound, fetchErr.Status)
}

func TestFetchHTMLTransportFailure(t *testing.T) {
	f := NewFetcher(testUserAgent, nil)
	_, err := f.FetchHTML(context.Background(), "http://127.0.0.1:1/nothing-here")
	require.Error(t, err)

	fetchErr, ok := err.(*FetchError)
	require.True(t, ok, "expected *FetchError, got %T", err)
	assert.Zero(t, fetchErr.Status)
}

func TestFetchHTMLCaching(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("cached page"))
	}))
	defer server.Close()

	f := NewFetcher(testUserAgent, util.NewResponseCache(time.Minute, 8))

	for i := 0; i < 3; i++ {
		body, err := f.FetchHTML(context.Background(), server.URL+"/same")
		require.NoError(t, err)
		assert.Equal(t, "cached page", body)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// Trailing slash normalizes to the same cache key.
	_, err := f.FetchHTML(context.Background(), server.URL+"/same/")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchHTMLFailedResponsesNotCached(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer server.Close()

	f := NewFetcher(testUserAgent, util.NewResponseCache(time.Minute, 8))

	_, err := f.FetchHTML(context.Background(), server.URL)
	require.Error(t, err)

	body, err := f.FetchHTML(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "recovered", body)
}
