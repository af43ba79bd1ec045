package proxy

import (
	"net/http"
	"net/url"

	"sjsage522/productworker/logger"
)

// NewTransport builds an http.RoundTripper that routes requests through the
// configured forward proxy. It is selected once at startup; a disabled or
// empty configuration returns nil, which callers install as-is so the
// default direct transport applies. Callers never branch on proxy state.
func NewTransport(proxyURL string, enabled bool) http.RoundTripper {
	if !enabled || proxyURL == "" {
		return nil
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		logger.Warn("Invalid proxy URL %q, falling back to direct fetch: %v", proxyURL, err)
		return nil
	}

	logger.Info("Routing fetches through proxy %s", parsed.Redacted())
	return &http.Transport{
		Proxy: http.ProxyURL(parsed),
	}
}
