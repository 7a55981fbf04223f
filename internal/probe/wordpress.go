package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/recondor/recondor/internal/engine"
)

const (
	wpModuleTimeout  = 600 * time.Second
	wpRequestTimeout = 15 * time.Second

	// Enumeration cost bounds.
	wpMaxPlugins      = 10
	wpMaxThemes       = 5
	wpMaxAuthorProbes = 10
)

// Registry and disclosure endpoints. Every lookup against them is
// independently best-effort.
const (
	wpPluginInfoURL    = "https://api.wordpress.org/plugins/info/1.0/%s.json"
	wpThemeInfoURL     = "https://api.wordpress.org/themes/info/1.1/?action=theme_information&request[slug]=%s"
	wpVulnPageURL      = "https://wpscan.com/plugin/%s/"
	wpThemeVulnPageURL = "https://wpscan.com/theme/%s/"
)

var (
	wpPluginSlugRE = regexp.MustCompile(`wp-content/plugins/([a-zA-Z0-9_-]+)`)
	wpThemeSlugRE  = regexp.MustCompile(`wp-content/themes/([a-zA-Z0-9_-]+)`)

	wpStableTagRE    = regexp.MustCompile(`(?i)stable tag:\s*v?([0-9][\w.]*)`)
	wpVersionLineRE  = regexp.MustCompile(`(?i)^\s*version:\s*v?([0-9][\w.]*)`)
	wpChangelogVerRE = regexp.MustCompile(`=+\s*v?([0-9][\w.]*)`)

	wpAuthorSlugRE = regexp.MustCompile(`/author/([a-zA-Z0-9_.-]+)/?`)

	wpFixedInRE = regexp.MustCompile(`(?i)(.{0,150}?)\s*[-–—]?\s*(?:fixed in|patched in)\s*(?:version\s*)?v?([0-9][\w.]*)`)

	htmlTagRE = regexp.MustCompile(`<[^>]*>`)
)

// wpMarkers confirm a target is actually running WordPress before any
// enumeration work is spent on it.
var wpMarkers = []string{"wp-content", "wp-includes", "wp-json"}

// severityKeywords maps disclosure-title keywords to severities, checked in
// order from most to least severe.
var severityKeywords = []struct {
	severity string
	keywords []string
}{
	{"critical", []string{"remote code execution", "rce", "sql injection", "command injection", "arbitrary file upload"}},
	{"high", []string{"privilege escalation", "authentication bypass", "auth bypass", "object injection", "local file inclusion", "arbitrary file"}},
	{"medium", []string{"cross-site scripting", "xss", "cross-site request forgery", "csrf", "open redirect", "ssrf"}},
}

// WordPress performs CMS-extension enumeration: plugin/theme discovery from
// page markup, multi-stage version resolution, staleness and vulnerability
// cross-reference, and user enumeration with a fallback strategy. Every
// external sub-call degrades only its own entry on failure.
type WordPress struct {
	// Endpoint overrides, primarily for tests.
	PluginInfoURL    string
	ThemeInfoURL     string
	VulnPageURL      string
	ThemeVulnPageURL string
}

// NewWordPress builds the WordPress enumeration adapter.
func NewWordPress() *WordPress {
	return &WordPress{
		PluginInfoURL:    wpPluginInfoURL,
		ThemeInfoURL:     wpThemeInfoURL,
		VulnPageURL:      wpVulnPageURL,
		ThemeVulnPageURL: wpThemeVulnPageURL,
	}
}

// ID implements engine.Adapter.
func (w *WordPress) ID() string { return engine.ModuleWordPress }

// Execute confirms the CMS, extracts extension slugs from the root page
// markup, resolves versions, flags outdated/vulnerable installs and
// enumerates users. The 600s bound covers the whole module.
func (w *WordPress) Execute(ctx context.Context, host string, opts engine.Options) engine.ModuleResult {
	ctx, cancel := context.WithTimeout(ctx, wpModuleTimeout)
	defer cancel()

	client := newHTTPClient(wpRequestTimeout, opts.Proxy)
	userAgent := userAgentOr(opts)

	page, err := fetchSite(ctx, client, host, userAgent)
	if err != nil {
		return failureResult(fmt.Errorf("wordpress probe: %s", err), nil)
	}

	data := engine.WordPressData{
		Plugins:         []engine.WPExtension{},
		Themes:          []engine.WPExtension{},
		Users:           []engine.WPUser{},
		Vulnerabilities: []engine.WPVulnerability{},
	}

	if !lowerContainsAny(page.Body, wpMarkers...) {
		return engine.Completed(data)
	}
	data.IsWordPress = true

	// The fetched scheme is where the install actually answers.
	base := strings.TrimSuffix(page.URL, "/")

	for _, slug := range extractSlugs(page.Body, wpPluginSlugRE, wpMaxPlugins) {
		ext, vulns := w.inspectExtension(ctx, client, userAgent, base, slug, false)
		data.Plugins = append(data.Plugins, ext)
		data.Vulnerabilities = append(data.Vulnerabilities, vulns...)
	}

	for _, slug := range extractSlugs(page.Body, wpThemeSlugRE, wpMaxThemes) {
		ext, vulns := w.inspectExtension(ctx, client, userAgent, base, slug, true)
		data.Themes = append(data.Themes, ext)
		data.Vulnerabilities = append(data.Vulnerabilities, vulns...)
	}

	data.Users = enumerateUsers(ctx, client, userAgent, base, opts.Proxy)

	return engine.Completed(data)
}

// inspectExtension resolves one plugin/theme's installed version, latest
// published version and disclosure records. Each stage short-circuits only
// its own sub-goal.
func (w *WordPress) inspectExtension(ctx context.Context, client *http.Client, userAgent, base, slug string, theme bool) (engine.WPExtension, []engine.WPVulnerability) {
	ext := engine.WPExtension{Name: slug}

	if theme {
		ext.Version = resolveVersion(ctx, client, userAgent,
			base+"/wp-content/themes/"+slug+"/style.css",
			base+"/wp-content/themes/"+slug+"/readme.txt",
		)
	} else {
		ext.Version = resolveVersion(ctx, client, userAgent,
			base+"/wp-content/plugins/"+slug+"/readme.txt",
			base+"/wp-content/plugins/"+slug+"/README.txt",
			base+"/wp-content/plugins/"+slug+"/changelog.txt",
		)
	}
	if ext.Version == "" {
		return ext, nil
	}

	infoURL := fmt.Sprintf(w.PluginInfoURL, slug)
	vulnURL := w.VulnPageURL
	if theme {
		infoURL = fmt.Sprintf(w.ThemeInfoURL, slug)
		vulnURL = w.ThemeVulnPageURL
	}
	if latest := fetchLatestVersion(ctx, client, userAgent, infoURL); latest != "" {
		ext.LatestVersion = latest
		ext.Outdated = versionOlder(ext.Version, latest)
	}

	vulns := w.fetchDisclosures(ctx, client, userAgent, vulnURL, slug, ext.Version)
	ext.Vulnerable = len(vulns) > 0
	return ext, vulns
}

// extractSlugs pulls unique extension identifiers from page markup,
// preserving first-seen order, capped to bound enumeration cost.
func extractSlugs(body string, re *regexp.Regexp, limit int) []string {
	seen := make(map[string]bool)
	var slugs []string
	for _, m := range re.FindAllStringSubmatch(body, -1) {
		slug := strings.ToLower(m[1])
		if seen[slug] {
			continue
		}
		seen[slug] = true
		slugs = append(slugs, slug)
		if len(slugs) == limit {
			break
		}
	}
	return slugs
}

// resolveVersion tries candidate metadata files in order until one yields a
// version.
func resolveVersion(ctx context.Context, client *http.Client, userAgent string, urls ...string) string {
	for _, u := range urls {
		page, err := fetchPage(ctx, client, u, userAgent)
		if err != nil || page.StatusCode != http.StatusOK {
			continue
		}
		if v := parseMetadataVersion(page.Body); v != "" {
			return v
		}
	}
	return ""
}

// parseMetadataVersion extracts a version from readme/style/changelog text:
// a "Stable tag:" field, a "Version:" header line, or the first changelog
// version heading, in that order.
func parseMetadataVersion(body string) string {
	if m := wpStableTagRE.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	for _, line := range strings.Split(body, "\n") {
		if m := wpVersionLineRE.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	if m := wpChangelogVerRE.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

// fetchLatestVersion queries the extension registry for the published
// latest version. Best effort: empty string on any failure.
func fetchLatestVersion(ctx context.Context, client *http.Client, userAgent, infoURL string) string {
	page, err := fetchPage(ctx, client, infoURL, userAgent)
	if err != nil || page.StatusCode != http.StatusOK {
		return ""
	}
	var info struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal([]byte(page.Body), &info); err != nil {
		return ""
	}
	return info.Version
}

// fetchDisclosures scrapes the disclosure listing page for the slug and
// keeps entries whose fixed-in version is at or above the installed one.
func (w *WordPress) fetchDisclosures(ctx context.Context, client *http.Client, userAgent, vulnURL, slug, installed string) []engine.WPVulnerability {
	page, err := fetchPage(ctx, client, fmt.Sprintf(vulnURL, slug), userAgent)
	if err != nil || page.StatusCode != http.StatusOK {
		return nil
	}
	return parseDisclosures(page.Body, slug, installed)
}

// parseDisclosures extracts "fixed in" entries from disclosure page markup.
func parseDisclosures(body, slug, installed string) []engine.WPVulnerability {
	text := htmlTagRE.ReplaceAllString(body, " ")

	var vulns []engine.WPVulnerability
	for _, m := range wpFixedInRE.FindAllStringSubmatch(text, -1) {
		title := strings.TrimSpace(m[1])
		fixedIn := m[2]
		if title == "" || !versionAtLeast(fixedIn, installed) {
			continue
		}
		vulns = append(vulns, engine.WPVulnerability{
			Component: slug,
			Title:     title,
			FixedIn:   fixedIn,
			Severity:  severityForTitle(title),
		})
	}
	return vulns
}

// severityForTitle infers a disclosure severity from title keywords.
func severityForTitle(title string) string {
	lower := strings.ToLower(title)
	for _, class := range severityKeywords {
		for _, kw := range class.keywords {
			if strings.Contains(lower, kw) {
				return class.severity
			}
		}
	}
	return "low"
}

// enumerateUsers lists accounts via the REST users endpoint, falling back
// to author-ID redirect probing when the endpoint is unavailable.
func enumerateUsers(ctx context.Context, client *http.Client, userAgent, base, proxy string) []engine.WPUser {
	if users := restUsers(ctx, client, userAgent, base); len(users) > 0 {
		return users
	}
	return authorProbeUsers(ctx, userAgent, base, proxy)
}

func restUsers(ctx context.Context, client *http.Client, userAgent, base string) []engine.WPUser {
	page, err := fetchPage(ctx, client, base+"/wp-json/wp/v2/users?per_page=10", userAgent)
	if err != nil || page.StatusCode != http.StatusOK {
		return nil
	}

	var raw []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal([]byte(page.Body), &raw); err != nil {
		return nil
	}

	users := make([]engine.WPUser, 0, len(raw))
	for _, u := range raw {
		if u.Slug == "" {
			continue
		}
		users = append(users, engine.WPUser{
			ID:       u.ID,
			Username: u.Slug,
			Name:     u.Name,
			Source:   "rest",
		})
	}
	return users
}

// authorProbeUsers requests /?author=N for IDs 1-10 without following
// redirects and reads usernames out of the author-archive Location header.
func authorProbeUsers(ctx context.Context, userAgent, base, proxy string) []engine.WPUser {
	probe := newHTTPClient(wpRequestTimeout, proxy)
	probe.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	seen := make(map[string]bool)
	var users []engine.WPUser

	for id := 1; id <= wpMaxAuthorProbes; id++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/?author=%d", base, id), nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := probe.Do(req)
		if err != nil {
			continue
		}
		location := resp.Header.Get("Location")
		resp.Body.Close()

		if resp.StatusCode < 300 || resp.StatusCode >= 400 {
			continue
		}
		m := wpAuthorSlugRE.FindStringSubmatch(location)
		if m == nil || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		users = append(users, engine.WPUser{
			ID:       id,
			Username: m[1],
			Source:   "author_probe",
		})
	}
	return users
}
