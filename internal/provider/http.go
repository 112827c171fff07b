package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ryanchan0215/stock-analysis-backend/internal/metrics"
)

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 512

// newHTTPClient builds a client with optional proxy support. Per-call
// deadlines come from the request context.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Transport: transport}
}

// getJSON issues a GET and decodes the JSON body into out.
// 404 maps to ErrNotFound, other non-200 statuses and transport failures to
// ErrUpstream, undecodable bodies to *ParseError.
func getJSON(ctx context.Context, client *http.Client, endpoint string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status 404", ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return fmt.Errorf("%w: status %d, body: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return parseErr("decode: %v", err)
	}
	return nil
}

// observe records the outcome of one upstream call.
func observe(m *metrics.Metrics, provider, op string, start time.Time, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
	case err != nil:
		outcome = metrics.OutcomeError
	}
	m.ObserveProvider(provider, op, outcome, time.Since(start))
}
