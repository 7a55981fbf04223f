package probe

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/recondor/recondor/internal/engine"
)

const cmsTimeout = 30 * time.Second

// generatorRE extracts the generator meta tag content.
var generatorRE = regexp.MustCompile(`(?i)<meta[^>]+name=["']generator["'][^>]+content=["']([^"']+)["']`)

// generatorAltRE handles the attribute order content-before-name.
var generatorAltRE = regexp.MustCompile(`(?i)<meta[^>]+content=["']([^"']+)["'][^>]+name=["']generator["']`)

// versionRE pulls a dotted version out of a generator string.
var versionRE = regexp.MustCompile(`(\d+(?:\.\d+)+)`)

// cmsSignature scores one CMS candidate: each path pattern found in the
// page markup is worth one point, a generator meta tag match two, a cookie
// name match two.
type cmsSignature struct {
	Name           string
	PathPatterns   []string
	Generator      string
	CookiePrefixes []string
}

// cmsSignatures is the fixed, ordered candidate table. Iteration order is
// deterministic; on score ties the earlier candidate wins.
var cmsSignatures = []cmsSignature{
	{
		Name:           "WordPress",
		PathPatterns:   []string{"/wp-content/", "/wp-includes/", "wp-json"},
		Generator:      "wordpress",
		CookiePrefixes: []string{"wordpress_", "wp-settings"},
	},
	{
		Name:           "Joomla",
		PathPatterns:   []string{"/media/jui/", "/components/com_", "/media/system/js/"},
		Generator:      "joomla",
		CookiePrefixes: []string{"joomla_user_state"},
	},
	{
		Name:           "Drupal",
		PathPatterns:   []string{"/sites/default/files", "/sites/all/", "drupal.js"},
		Generator:      "drupal",
		CookiePrefixes: []string{"SESS", "SSESS"},
	},
	{
		Name:           "Magento",
		PathPatterns:   []string{"/skin/frontend/", "/static/frontend/", "mage/cookies"},
		Generator:      "magento",
		CookiePrefixes: []string{"frontend", "mage-cache"},
	},
	{
		Name:           "Shopify",
		PathPatterns:   []string{"cdn.shopify.com", ".myshopify.com"},
		Generator:      "shopify",
		CookiePrefixes: []string{"_shopify_"},
	},
	{
		Name:           "Wix",
		PathPatterns:   []string{"static.wixstatic.com", "static.parastorage.com"},
		Generator:      "wix.com",
		CookiePrefixes: []string{"svSession"},
	},
	{
		Name:           "PrestaShop",
		PathPatterns:   []string{"/modules/", "prestashop"},
		Generator:      "prestashop",
		CookiePrefixes: []string{"PrestaShop-"},
	},
	{
		Name:           "TYPO3",
		PathPatterns:   []string{"/typo3conf/", "/typo3temp/"},
		Generator:      "typo3",
		CookiePrefixes: []string{"fe_typo_user"},
	},
}

// CMS detects the target's content management system by scoring markup,
// generator meta tag and cookie evidence from the site root.
type CMS struct{}

// NewCMS builds the CMS detection adapter.
func NewCMS() *CMS { return &CMS{} }

// ID implements engine.Adapter.
func (c *CMS) ID() string { return engine.ModuleCMS }

// Execute fetches the site root over HTTPS (falling back to HTTP) and
// reports the first candidate to reach the highest nonzero score.
func (c *CMS) Execute(ctx context.Context, host string, opts engine.Options) engine.ModuleResult {
	client := newHTTPClient(cmsTimeout, opts.Proxy)
	page, err := fetchSite(ctx, client, host, userAgentOr(opts))
	if err != nil {
		return failureResult(fmt.Errorf("cms probe: %s", err), nil)
	}

	return engine.Completed(detectCMS(page))
}

// detectCMS scores every candidate against the fetched page.
func detectCMS(page *pageResponse) engine.CMSData {
	generator := extractGenerator(page.Body)
	generatorLower := strings.ToLower(generator)
	bodyLower := strings.ToLower(page.Body)

	var cookieNames []string
	for _, c := range page.Cookies {
		cookieNames = append(cookieNames, c.Name)
	}

	best := engine.CMSData{}
	bestScore := 0

	for _, sig := range cmsSignatures {
		score := 0
		version := ""

		for _, p := range sig.PathPatterns {
			if strings.Contains(bodyLower, strings.ToLower(p)) {
				score++
			}
		}

		if generator != "" && strings.Contains(generatorLower, sig.Generator) {
			score += 2
			if m := versionRE.FindString(generator); m != "" {
				version = m
			}
		}

		for _, prefix := range sig.CookiePrefixes {
			if cookieMatches(cookieNames, prefix) {
				score += 2
				break
			}
		}

		if score > bestScore {
			bestScore = score
			best = engine.CMSData{
				Detected:   true,
				Name:       sig.Name,
				Version:    version,
				Confidence: confidenceFor(score),
			}
		}
	}

	return best
}

func extractGenerator(body string) string {
	if m := generatorRE.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := generatorAltRE.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func cookieMatches(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n), strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func confidenceFor(score int) string {
	switch {
	case score >= 3:
		return "high"
	case score >= 2:
		return "medium"
	default:
		return "low"
	}
}
