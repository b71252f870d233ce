// Package cache implements the asset cache agent: a cache-first interceptor
// for requests to the application's own origin.
//
// The agent keeps versioned snapshots of the application's static assets.
// A version is installed all at once from a manifest, then activated; only
// activation deletes other versions. While a version is active every GET or
// HEAD for the origin is answered from it when possible and refreshed in the
// background, and anything missing is fetched from the network and kept for
// next time. Requests for other origins pass through untouched.
//
// The agent is an http.RoundTripper, so an http.Client can use it directly,
// and an http.Handler that proxies a local listener onto the origin.
package cache
