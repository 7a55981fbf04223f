package probe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/recondor/recondor/internal/wordlist"
)

const (
	bruteTimeout     = 60 * time.Second
	bruteConcurrency = 20
	bruteDNSTimeout  = 3 * time.Second
	bruteResolver    = "8.8.8.8:53"
)

// bruteEnumerate performs DNS brute-force subdomain enumeration using the
// embedded wordlist. A candidate counts as found when an A-record query
// returns at least one answer.
// Non-fatal: the subdomain module continues with other sources on failure.
func bruteEnumerate(ctx context.Context, domain string) ([]string, error) {
	words := wordlist.Subdomains()
	if len(words) == 0 {
		return nil, fmt.Errorf("empty subdomain wordlist")
	}

	bruteCtx, cancel := context.WithTimeout(ctx, bruteTimeout)
	defer cancel()

	work := make(chan string, len(words))
	for _, w := range words {
		work <- fmt.Sprintf("%s.%s", w, domain)
	}
	close(work)

	var (
		mu    sync.Mutex
		found []string
	)

	var wg sync.WaitGroup
	for i := 0; i < bruteConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &dns.Client{Timeout: bruteDNSTimeout}

			for candidate := range work {
				select {
				case <-bruteCtx.Done():
					return
				default:
				}

				if !resolvesA(bruteCtx, client, candidate) {
					continue
				}

				mu.Lock()
				found = append(found, strings.ToLower(candidate))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return found, nil
}

// resolvesA reports whether the host has at least one A record.
func resolvesA(ctx context.Context, client *dns.Client, host string) bool {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)

	resp, _, err := client.ExchangeContext(ctx, msg, bruteResolver)
	if err != nil || resp == nil {
		return false
	}
	return resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0
}
