package origin

import (
	"context"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dmitrijs2005/manholepro/internal/agent/cache"
	"github.com/dmitrijs2005/manholepro/internal/netx"
)

const DefaultTimeout = 30 * time.Second

var _ cache.Fetcher = (*HTTP)(nil)

// HTTP fetches assets from an HTTP origin. Any response, whatever its
// status, is returned as an asset; only transport failures are errors.
type HTTP struct {
	client *resty.Client
	now    func() time.Time
}

// NewHTTP creates a fetcher. Retries are left to the cache, which treats
// a failed fetch as "offline".
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "*/*")

	return &HTTP{client: client, now: time.Now}
}

func (h *HTTP) Fetch(ctx context.Context, u *url.URL) (cache.Asset, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		Get(u.String())
	if err != nil {
		return cache.Asset{}, err
	}
	return cache.NewAsset(netx.CacheKey(u), resp.StatusCode(), resp.Header(), resp.Body(), h.now()), nil
}
