package probe

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	axfrDialTimeout = 10 * time.Second
	axfrReadTimeout = 30 * time.Second
)

// axfrEnumerate looks up NS records for the domain and attempts a zone
// transfer against each nameserver, collecting in-scope hostnames. AXFR
// refusal is the normal case and is not an error; the source fails only
// when no nameserver can be found.
// Non-fatal: the subdomain module continues with other sources on failure.
func axfrEnumerate(ctx context.Context, domain string) ([]string, error) {
	nameservers, err := net.DefaultResolver.LookupNS(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("NS lookup for %s: %w", domain, err)
	}
	if len(nameservers) == 0 {
		return nil, fmt.Errorf("no NS records for %s", domain)
	}

	seen := make(map[string]bool)
	var hosts []string

	for _, ns := range nameservers {
		// Respect context cancellation between nameserver attempts.
		select {
		case <-ctx.Done():
			return hosts, ctx.Err()
		default:
		}

		nsHost := strings.TrimSuffix(ns.Host, ".")
		names, err := attemptAXFR(domain, nsHost)
		if err != nil {
			continue
		}
		for _, h := range names {
			if !seen[h] {
				seen[h] = true
				hosts = append(hosts, h)
			}
		}
	}

	return hosts, nil
}

// attemptAXFR performs a DNS zone transfer against a single nameserver.
func attemptAXFR(domain, nameserver string) ([]string, error) {
	transfer := &dns.Transfer{
		DialTimeout: axfrDialTimeout,
		ReadTimeout: axfrReadTimeout,
	}

	msg := new(dns.Msg)
	msg.SetAxfr(dns.Fqdn(domain))

	channel, err := transfer.In(msg, net.JoinHostPort(nameserver, "53"))
	if err != nil {
		return nil, fmt.Errorf("AXFR to %s: %w", nameserver, err)
	}

	seen := make(map[string]bool)
	var hostnames []string
	domainSuffix := "." + strings.ToLower(domain)

	for envelope := range channel {
		if envelope.Error != nil {
			return nil, fmt.Errorf("AXFR envelope from %s: %w", nameserver, envelope.Error)
		}
		for _, rr := range envelope.RR {
			name := strings.ToLower(strings.TrimSuffix(rr.Header().Name, "."))
			if name == "" {
				continue
			}
			if !strings.HasSuffix(name, domainSuffix) && name != strings.ToLower(domain) {
				continue
			}
			if !seen[name] {
				seen[name] = true
				hostnames = append(hostnames, name)
			}
		}
	}

	return hostnames, nil
}
