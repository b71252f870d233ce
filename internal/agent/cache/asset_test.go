package cache_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/manholepro/internal/agent/cache"
	"github.com/dmitrijs2005/manholepro/internal/common"
)

var testTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestNewAsset_CopiesInput(t *testing.T) {
	h := http.Header{"Content-Type": {"text/css"}}
	body := []byte("body{}")

	a := cache.NewAsset("/styles.css", http.StatusOK, h, body, testTime)
	body[0] = 'X'
	h.Set("Content-Type", "changed")

	assert.Equal(t, "body{}", string(a.Body))
	assert.Equal(t, "text/css", a.Header.Get("Content-Type"))
	assert.Equal(t, cache.Hash([]byte("body{}")), a.Hash)
	assert.NotEqual(t, cache.Hash([]byte("body{ }")), a.Hash)
}

func TestAsset_OK(t *testing.T) {
	for status, want := range map[int]bool{200: true, 204: true, 299: true, 304: false, 404: false, 500: false} {
		assert.Equal(t, want, cache.Asset{Status: status}.OK(), status)
	}
}

func TestAsset_Response(t *testing.T) {
	a := cache.NewAsset("/", http.StatusOK, http.Header{"Content-Type": {"text/html"}}, []byte("<html>"), testTime)

	req, err := http.NewRequest(http.MethodGet, "https://inspect.example.com/", nil)
	require.NoError(t, err)
	resp := a.Response(req)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "200 OK", resp.Status)
	assert.Equal(t, int64(6), resp.ContentLength)
	assert.Equal(t, "6", resp.Header.Get("Content-Length"))
	assert.Equal(t, "<html>", string(b))
	assert.Same(t, req, resp.Request)

	// The response never aliases the stored header.
	resp.Header.Set("Content-Type", "x")
	assert.Equal(t, "text/html", a.Header.Get("Content-Type"))
}

func TestManifest_Validate(t *testing.T) {
	require.NoError(t, cache.DefaultManifest().Validate())
	assert.Len(t, cache.DefaultManifest().Assets, 9)
	assert.Equal(t, common.DefaultCacheVersion, cache.DefaultManifest().Version)

	bad := []cache.Manifest{
		{Assets: []string{"./"}},
		{Version: " ", Assets: []string{"./"}},
		{Version: "v1"},
		{Version: "v1", Assets: []string{"./", ""}},
	}
	for _, m := range bad {
		assert.ErrorIs(t, m.Validate(), common.ErrInvalidManifest)
	}
}

func TestFetchManifest_Status(t *testing.T) {
	network := newFakeNetwork(map[string]string{})
	_, err := cache.FetchManifest(context.Background(), network, mustURL(t, originURL), "/asset-manifest.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
