package probe

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/recondor/recondor/internal/engine"
)

const (
	subdomainHTTPTimeout = 120 * time.Second
	subdomainDisplayCap  = 200
)

// cpanelPrefixes tags operational hosting subdomains.
var cpanelPrefixes = []string{
	"cpanel.", "webmail.", "whm.", "mail.", "autodiscover.",
	"cpcalendars.", "cpcontacts.", "smtp.", "pop.", "imap.", "ftp.",
}

// subdomainSource is one independent enumeration source. A source's failure
// never fails the module; the module fails only when every source does.
type subdomainSource struct {
	name string
	run  func(ctx context.Context, client *http.Client, domain, userAgent string) ([]string, error)
}

// Subdomain enumerates subdomains for the target from multiple independent
// sources and unions the results.
type Subdomain struct {
	sources []subdomainSource
}

// NewSubdomain builds the subdomain adapter with its default source set:
// crt.sh certificate transparency, the HackerTarget host search API, and a
// DNS brute-force pass over the embedded wordlist. Zone transfer testing is
// appended at execution time when the scan options ask for it.
func NewSubdomain() *Subdomain {
	return &Subdomain{
		sources: []subdomainSource{
			{name: "crt.sh", run: crtshEnumerate},
			{name: "hackertarget", run: hackertargetEnumerate},
			{name: "brute", run: func(ctx context.Context, _ *http.Client, domain, _ string) ([]string, error) {
				return bruteEnumerate(ctx, domain)
			}},
		},
	}
}

// ID implements engine.Adapter.
func (s *Subdomain) ID() string { return engine.ModuleSubdomain }

// Execute runs every source concurrently, unions the case-normalized
// results, tags operational subdomains, and reports both the capped display
// list and the true total count.
func (s *Subdomain) Execute(ctx context.Context, host string, opts engine.Options) engine.ModuleResult {
	client := newHTTPClient(subdomainHTTPTimeout, opts.Proxy)
	userAgent := userAgentOr(opts)

	sources := s.sources
	if opts.AXFR {
		sources = append(sources, subdomainSource{
			name: "axfr",
			run: func(ctx context.Context, _ *http.Client, domain, _ string) ([]string, error) {
				return axfrEnumerate(ctx, domain)
			},
		})
	}

	var (
		mu       sync.Mutex
		union    = make(map[string]bool)
		failures []string
	)

	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src subdomainSource) {
			defer wg.Done()
			hosts, err := src.run(ctx, client, host, userAgent)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %s", src.name, err))
				return
			}
			for _, h := range hosts {
				union[strings.ToLower(strings.TrimSpace(h))] = true
			}
		}(src)
	}
	wg.Wait()

	if len(failures) == len(sources) {
		sort.Strings(failures)
		err := fmt.Errorf("no tool available: all subdomain sources failed (%s)",
			strings.Join(failures, "; "))
		return failureResult(err, engine.SubdomainData{Subdomains: []engine.SubdomainEntry{}})
	}

	delete(union, "")
	names := make([]string, 0, len(union))
	for h := range union {
		names = append(names, h)
	}
	sort.Strings(names)

	total := len(names)
	if len(names) > subdomainDisplayCap {
		names = names[:subdomainDisplayCap]
	}

	entries := make([]engine.SubdomainEntry, 0, len(names))
	for _, h := range names {
		entries = append(entries, engine.SubdomainEntry{
			Subdomain: h,
			Type:      subdomainType(h),
		})
	}

	return engine.Completed(engine.SubdomainData{
		Subdomains: entries,
		Count:      len(entries),
		TotalFound: total,
	})
}

// subdomainType classifies a host as cpanel-operational or regular.
func subdomainType(host string) string {
	for _, p := range cpanelPrefixes {
		if strings.HasPrefix(host, p) {
			return "cpanel"
		}
	}
	return "regular"
}
