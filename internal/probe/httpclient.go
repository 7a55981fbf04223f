package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/recondor/recondor/internal/engine"
)

// defaultUserAgent identifies recondor's outbound HTTP requests when the
// caller supplies no override.
const defaultUserAgent = "recondor/1.0 (+https://github.com/recondor/recondor)"

const maxResponseBody = 1024 * 1024 // 1MB, enough for markup inspection

// newHTTPClient builds an HTTP client honoring an optional proxy URL.
// Certificate problems never block reconnaissance; redirect chains are
// capped at five hops.
func newHTTPClient(timeout time.Duration, proxy string) *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		Proxy:           http.ProxyFromEnvironment,
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}

// userAgentOr returns the option's user agent or the default.
func userAgentOr(opts engine.Options) string {
	if opts.UserAgent != "" {
		return opts.UserAgent
	}
	return defaultUserAgent
}

// pageResponse is the captured result of a single bounded page fetch.
type pageResponse struct {
	URL        string
	StatusCode int
	Header     http.Header
	Cookies    []*http.Cookie
	Body       string
}

// fetchPage issues a GET and captures a bounded body.
func fetchPage(ctx context.Context, client *http.Client, rawURL, userAgent string) (*pageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return &pageResponse{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Cookies:    resp.Cookies(),
		Body:       string(body),
	}, nil
}

// fetchSite fetches the site root over HTTPS, falling back to plain HTTP.
func fetchSite(ctx context.Context, client *http.Client, host, userAgent string) (*pageResponse, error) {
	page, httpsErr := fetchPage(ctx, client, "https://"+host, userAgent)
	if httpsErr == nil {
		return page, nil
	}
	page, httpErr := fetchPage(ctx, client, "http://"+host, userAgent)
	if httpErr == nil {
		return page, nil
	}
	return nil, fmt.Errorf("https: %v; http: %v", shortErr(httpsErr), shortErr(httpErr))
}

// shortErr strips the verbose url.Error wrapping for diagnostics.
func shortErr(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return err.Error()
}

// lowerContainsAny reports whether s (lowercased) contains any needle.
func lowerContainsAny(s string, needles ...string) bool {
	l := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(l, n) {
			return true
		}
	}
	return false
}
