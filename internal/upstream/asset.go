package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const maxAssetRedirects = 10

// Asset fetches an image from an asset host. The host, and the host of every
// redirect hop, must be in allowed; the caller's bearer token is never sent
// to asset hosts.
func (c *Client) Asset(ctx context.Context, src string, allowed []string) ([]byte, error) {
	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing asset url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("asset url %q: unsupported scheme", src)
	}
	if !HostAllowed(u.Hostname(), allowed) {
		return nil, fmt.Errorf("asset host %q is not allowed", u.Hostname())
	}
	hc := *c.http
	hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxAssetRedirects {
			return errors.New("too many asset redirects")
		}
		if !HostAllowed(req.URL.Hostname(), allowed) {
			return fmt.Errorf("asset redirect to host %q is not allowed", req.URL.Hostname())
		}
		return nil
	}
	return c.do(ctx, &hc, EndpointAsset, u.String(), false)
}

// HostAllowed reports whether host equals one of allowed, ignoring case.
func HostAllowed(host string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(host, a) {
			return true
		}
	}
	return false
}
