package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/manholepro/internal/common"
	"github.com/dmitrijs2005/manholepro/internal/netx"
)

// Manifest names one installable version and the assets that make it up.
// Asset entries are resolved against the origin, so "./" and "./app.js"
// both work. The version is the only signal that triggers a reinstall.
type Manifest struct {
	Version string   `json:"version"`
	Assets  []string `json:"assets"`
}

// DefaultManifest is the asset set shipped with the application.
func DefaultManifest() Manifest {
	return Manifest{
		Version: common.DefaultCacheVersion,
		Assets: []string{
			"./",
			"./index.html",
			"./styles.css",
			"./app.js",
			"./manifest.json",
			"./lib/jszip.min.js",
			"./icons/icon-192.png",
			"./icons/icon-512.png",
			"./brand/logo.png",
		},
	}
}

func (m Manifest) Validate() error {
	if strings.TrimSpace(m.Version) == "" {
		return fmt.Errorf("%w: empty version", common.ErrInvalidManifest)
	}
	if len(m.Assets) == 0 {
		return fmt.Errorf("%w: no assets", common.ErrInvalidManifest)
	}
	for i, a := range m.Assets {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("%w: asset %d is empty", common.ErrInvalidManifest, i)
		}
	}
	return nil
}

// FetchManifest downloads the manifest at path on origin straight from the
// network. Snapshots are never consulted.
func FetchManifest(ctx context.Context, network Fetcher, origin *url.URL, path string) (Manifest, error) {
	u, err := netx.Resolve(origin, path)
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", common.ErrInvalidManifest, err)
	}

	a, err := network.Fetch(ctx, u)
	if err != nil {
		return Manifest{}, fmt.Errorf("fetch manifest %s: %w", u, err)
	}
	if !a.OK() {
		return Manifest{}, fmt.Errorf("fetch manifest %s: status %d", u, a.Status)
	}

	var m Manifest
	if err := json.Unmarshal(a.Body, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", common.ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
