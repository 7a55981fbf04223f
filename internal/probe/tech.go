package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/recondor/recondor/internal/engine"
)

const techTimeout = 30 * time.Second

// techCategories fixes the grouping order in the normalized payload.
var techCategories = []string{
	"web_server", "programming", "javascript", "css_framework",
	"analytics", "cdn", "other",
}

// techRule fingerprints one technology from response headers or body
// substrings. Header matches are substring checks against the named header,
// body matches substring checks against the (lowercased) markup.
type techRule struct {
	Name     string
	Category string
	Header   string
	Contains []string
	Body     []string
}

var techRules = []techRule{
	// Web servers.
	{Name: "Nginx", Category: "web_server", Header: "Server", Contains: []string{"nginx"}},
	{Name: "Apache", Category: "web_server", Header: "Server", Contains: []string{"apache"}},
	{Name: "Microsoft IIS", Category: "web_server", Header: "Server", Contains: []string{"microsoft-iis"}},
	{Name: "LiteSpeed", Category: "web_server", Header: "Server", Contains: []string{"litespeed"}},
	{Name: "Caddy", Category: "web_server", Header: "Server", Contains: []string{"caddy"}},
	{Name: "OpenResty", Category: "web_server", Header: "Server", Contains: []string{"openresty"}},

	// Programming platforms.
	{Name: "PHP", Category: "programming", Header: "X-Powered-By", Contains: []string{"php"}},
	{Name: "ASP.NET", Category: "programming", Header: "X-Powered-By", Contains: []string{"asp.net"}},
	{Name: "Express", Category: "programming", Header: "X-Powered-By", Contains: []string{"express"}},
	{Name: "Gunicorn", Category: "programming", Header: "Server", Contains: []string{"gunicorn"}},
	{Name: "Next.js", Category: "programming", Header: "X-Powered-By", Contains: []string{"next.js"}, Body: []string{"__next_data__"}},

	// JavaScript libraries.
	{Name: "jQuery", Category: "javascript", Body: []string{"jquery.js", "jquery.min.js", "jquery-"}},
	{Name: "React", Category: "javascript", Body: []string{"data-reactroot", "react-dom"}},
	{Name: "Vue.js", Category: "javascript", Body: []string{"vue.js", "vue.min.js", "data-v-app"}},
	{Name: "AngularJS", Category: "javascript", Body: []string{"ng-app", "angular.js", "angular.min.js"}},

	// CSS frameworks.
	{Name: "Bootstrap", Category: "css_framework", Body: []string{"bootstrap.css", "bootstrap.min.css", "bootstrap.bundle"}},
	{Name: "Tailwind CSS", Category: "css_framework", Body: []string{"tailwind.css", "tailwindcss"}},

	// Analytics.
	{Name: "Google Analytics", Category: "analytics", Body: []string{"google-analytics.com", "googletagmanager.com", "gtag("}},
	{Name: "Hotjar", Category: "analytics", Body: []string{"static.hotjar.com"}},
	{Name: "Matomo", Category: "analytics", Body: []string{"matomo.js", "piwik.js"}},

	// CDN / edge.
	{Name: "Cloudflare", Category: "cdn", Header: "Server", Contains: []string{"cloudflare"}},
	{Name: "CloudFront", Category: "cdn", Header: "Server", Contains: []string{"cloudfront"}},
	{Name: "Akamai", Category: "cdn", Header: "Server", Contains: []string{"akamai"}},
	{Name: "Fastly", Category: "cdn", Header: "X-Served-By", Contains: []string{"cache-"}},
	{Name: "jsDelivr", Category: "cdn", Body: []string{"cdn.jsdelivr.net"}},

	// Other.
	{Name: "Varnish", Category: "other", Header: "Via", Contains: []string{"varnish"}},
	{Name: "WordPress", Category: "other", Body: []string{"/wp-content/", "/wp-includes/"}},
}

// Tech fingerprints technologies from the site root's response headers and
// body using the fixed rule table.
type Tech struct{}

// NewTech builds the technology fingerprinting adapter.
func NewTech() *Tech { return &Tech{} }

// ID implements engine.Adapter.
func (t *Tech) ID() string { return engine.ModuleTech }

// Execute fetches the site root over HTTPS (falling back to HTTP), matches
// the rule table, deduplicates by name and groups into fixed categories.
func (t *Tech) Execute(ctx context.Context, host string, opts engine.Options) engine.ModuleResult {
	client := newHTTPClient(techTimeout, opts.Proxy)
	page, err := fetchSite(ctx, client, host, userAgentOr(opts))
	if err != nil {
		return failureResult(fmt.Errorf("tech probe: %s", err), nil)
	}

	return engine.Completed(fingerprintPage(page))
}

// fingerprintPage applies the rule table to one fetched page.
func fingerprintPage(page *pageResponse) engine.TechData {
	bodyLower := strings.ToLower(page.Body)

	seen := make(map[string]bool)
	data := engine.TechData{
		Technologies: []engine.Technology{},
		Categories:   make(map[string][]string, len(techCategories)),
	}
	for _, c := range techCategories {
		data.Categories[c] = []string{}
	}

	for _, rule := range techRules {
		if seen[rule.Name] || !ruleMatches(rule, page.Header, bodyLower) {
			continue
		}
		seen[rule.Name] = true
		data.Technologies = append(data.Technologies, engine.Technology{
			Name:     rule.Name,
			Category: rule.Category,
		})
		data.Categories[rule.Category] = append(data.Categories[rule.Category], rule.Name)
	}

	return data
}

func ruleMatches(rule techRule, headers http.Header, bodyLower string) bool {
	if rule.Header != "" {
		val := strings.ToLower(headers.Get(rule.Header))
		if val != "" {
			for _, needle := range rule.Contains {
				if strings.Contains(val, needle) {
					return true
				}
			}
		}
	}
	for _, needle := range rule.Body {
		if strings.Contains(bodyLower, needle) {
			return true
		}
	}
	return false
}
