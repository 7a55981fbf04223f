package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/recondor/recondor/internal/engine"
)

func staticSource(name string, hosts ...string) subdomainSource {
	return subdomainSource{name: name, run: func(ctx context.Context, _ *http.Client, domain, _ string) ([]string, error) {
		return hosts, nil
	}}
}

func failingSource(name string) subdomainSource {
	return subdomainSource{name: name, run: func(ctx context.Context, _ *http.Client, domain, _ string) ([]string, error) {
		return nil, errors.New("unreachable")
	}}
}

func TestSubdomain_UnionsSources(t *testing.T) {
	s := &Subdomain{sources: []subdomainSource{
		staticSource("a", "www.example.com", "Mail.Example.Com"),
		staticSource("b", "www.example.com", "api.example.com"),
		failingSource("c"),
	}}

	res := s.Execute(context.Background(), "example.com", engine.Options{})
	if res.Status != engine.ResultCompleted {
		t.Fatalf("status = %s: %s", res.Status, res.Error)
	}

	data := res.Data.(engine.SubdomainData)
	if data.TotalFound != 3 {
		t.Errorf("total_found = %d, want 3 (case-normalized union)", data.TotalFound)
	}
	if data.Count != 3 {
		t.Errorf("count = %d", data.Count)
	}

	// Sorted, lowercased, with type tags.
	wantTypes := map[string]string{
		"api.example.com":  "regular",
		"mail.example.com": "cpanel",
		"www.example.com":  "regular",
	}
	for i, e := range data.Subdomains {
		if wantTypes[e.Subdomain] != e.Type {
			t.Errorf("entry %d: %s tagged %s", i, e.Subdomain, e.Type)
		}
	}
	if data.Subdomains[0].Subdomain != "api.example.com" {
		t.Errorf("not sorted: first = %s", data.Subdomains[0].Subdomain)
	}
}

func TestSubdomain_AllSourcesFail(t *testing.T) {
	s := &Subdomain{sources: []subdomainSource{
		failingSource("a"),
		failingSource("b"),
	}}

	res := s.Execute(context.Background(), "example.com", engine.Options{})
	if res.Status != engine.ResultError {
		t.Fatalf("status = %s, want error", res.Status)
	}
	if !strings.Contains(res.Error, "all subdomain sources failed") {
		t.Errorf("error = %q", res.Error)
	}

	// Even the failed module carries its empty collection shape.
	data := res.Data.(engine.SubdomainData)
	if data.Subdomains == nil {
		t.Error("subdomains slice must be present")
	}
}

func TestSubdomain_DisplayCap(t *testing.T) {
	var hosts []string
	for i := 0; i < subdomainDisplayCap+50; i++ {
		hosts = append(hosts, fmt.Sprintf("h%03d.example.com", i))
	}
	s := &Subdomain{sources: []subdomainSource{staticSource("a", hosts...)}}

	res := s.Execute(context.Background(), "example.com", engine.Options{})
	data := res.Data.(engine.SubdomainData)

	if data.Count != subdomainDisplayCap {
		t.Errorf("count = %d, want cap %d", data.Count, subdomainDisplayCap)
	}
	if data.TotalFound != subdomainDisplayCap+50 {
		t.Errorf("total_found = %d, want %d", data.TotalFound, subdomainDisplayCap+50)
	}
	if len(data.Subdomains) != subdomainDisplayCap {
		t.Errorf("displayed = %d", len(data.Subdomains))
	}
}

func TestSubdomainType(t *testing.T) {
	cases := []struct {
		host string
		want string
	}{
		{"cpanel.example.com", "cpanel"},
		{"webmail.example.com", "cpanel"},
		{"ftp.example.com", "cpanel"},
		{"www.example.com", "regular"},
		{"mailing.example.com", "regular"},
	}
	for _, tc := range cases {
		if got := subdomainType(tc.host); got != tc.want {
			t.Errorf("subdomainType(%q) = %q, want %q", tc.host, got, tc.want)
		}
	}
}
