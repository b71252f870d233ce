package cache

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/manholepro/internal/common"
)

// Hop-by-hop headers are meaningful for a single connection only.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// ServeHTTP maps the incoming request onto the origin and answers it through
// RoundTrip. Unservable requests get 503, other transport failures 502.
func (a *Agent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u := *a.origin
	u.Path = strings.TrimSuffix(a.origin.Path, "/") + r.URL.Path
	u.RawPath = ""
	u.RawQuery = r.URL.RawQuery
	u.Fragment = ""

	out := r.Clone(r.Context())
	out.URL = &u
	out.Host = u.Host
	out.RequestURI = ""
	for _, h := range hopHeaders {
		out.Header.Del(h)
	}

	resp, err := a.RoundTrip(out)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, common.ErrRequestUnservable) {
			status = http.StatusServiceUnavailable
		}
		a.logger.Warn(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	defer resp.Body.Close()

	for _, h := range hopHeaders {
		resp.Header.Del(h)
	}
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		a.logger.Debug(r.Context(), "response copy interrupted", "path", r.URL.Path, "error", err)
	}
}
