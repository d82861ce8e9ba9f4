// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/http"

	"golang.org/x/time/rate"
)

// limitedTransport delays each request until the limiter grants a token.
type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// NewLimitedClient returns a copy of client whose transport waits for
// limiter permission before each request. External APIs with hard call-rate
// caps (Notion allows roughly 3 requests per second) get a client built
// here so every call site shares one budget. A non-positive rps returns the
// client unchanged.
func NewLimitedClient(client *http.Client, rps float64) *http.Client {
	if rps <= 0 {
		return client
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	limited := *client
	limited.Transport = &limitedTransport{
		base:    base,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
	return &limited
}
