package cache

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"
)

// Asset is one stored response. Key is the origin-relative path plus query.
type Asset struct {
	Key      string
	Status   int
	Header   http.Header
	Body     []byte
	Hash     uint64
	StoredAt time.Time
}

// NewAsset builds an asset and computes its content hash. header and body
// are copied.
func NewAsset(key string, status int, header http.Header, body []byte, storedAt time.Time) Asset {
	return Asset{
		Key:      key,
		Status:   status,
		Header:   header.Clone(),
		Body:     bytes.Clone(body),
		Hash:     Hash(body),
		StoredAt: storedAt,
	}
}

// Hash is the content hash stored with every asset.
func Hash(body []byte) uint64 {
	return xxh3.Hash(body)
}

// Clone returns a deep copy so that stored assets are never aliased.
func (a Asset) Clone() Asset {
	a.Header = a.Header.Clone()
	a.Body = bytes.Clone(a.Body)
	return a
}

// OK reports whether the asset holds a 2xx response. Only those are cached.
func (a Asset) OK() bool {
	return a.Status >= 200 && a.Status < 300
}

// Response renders the asset as the answer to req. HEAD requests get an
// empty body.
func (a Asset) Response(req *http.Request) *http.Response {
	header := a.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Length", strconv.Itoa(len(a.Body)))

	var body io.ReadCloser = io.NopCloser(bytes.NewReader(a.Body))
	if req.Method == http.MethodHead {
		body = http.NoBody
	}
	return &http.Response{
		Status:        strconv.Itoa(a.Status) + " " + http.StatusText(a.Status),
		StatusCode:    a.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          body,
		ContentLength: int64(len(a.Body)),
		Request:       req,
	}
}

// Fetcher is the network backend. Fetch returns the response for u whatever
// its status; an error means the network could not be reached.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) (Asset, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, u *url.URL) (Asset, error)

func (f FetcherFunc) Fetch(ctx context.Context, u *url.URL) (Asset, error) {
	return f(ctx, u)
}

// Snapshots stores assets grouped by version and remembers the active one.
// Implementations must be safe for concurrent use and must copy assets on
// the way in and out.
type Snapshots interface {
	// Versions lists every stored version.
	Versions(ctx context.Context) ([]string, error)
	// PutAll replaces version with exactly assets, atomically.
	PutAll(ctx context.Context, version string, assets []Asset) error
	// Put adds or replaces one asset of version.
	Put(ctx context.Context, version string, asset Asset) error
	// Match looks up key in version.
	Match(ctx context.Context, version, key string) (Asset, bool, error)
	// Keys lists the keys stored for version.
	Keys(ctx context.Context, version string) ([]string, error)
	// Delete removes version and all its assets. Missing versions are ignored.
	Delete(ctx context.Context, version string) error
	// ActiveVersion returns the persisted active version, or "" if none.
	ActiveVersion(ctx context.Context) (string, error)
	SetActiveVersion(ctx context.Context, version string) error
}
