package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/recondor/recondor/internal/engine"
)

func TestExtractSlugs(t *testing.T) {
	body := `
<link href="/wp-content/plugins/contact-form-7/includes/css/styles.css">
<script src="/wp-content/plugins/woocommerce/assets/js/frontend.js"></script>
<script src="/wp-content/plugins/contact-form-7/includes/js/index.js"></script>
<link href="/wp-content/plugins/Yoast-SEO/css/main.css">
`
	slugs := extractSlugs(body, wpPluginSlugRE, wpMaxPlugins)

	want := []string{"contact-form-7", "woocommerce", "yoast-seo"}
	if len(slugs) != len(want) {
		t.Fatalf("slugs = %v, want %v", slugs, want)
	}
	for i := range want {
		if slugs[i] != want[i] {
			t.Errorf("slugs[%d] = %q, want %q (first-seen order, lowercased)", i, slugs[i], want[i])
		}
	}
}

func TestExtractSlugs_Cap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < wpMaxPlugins+5; i++ {
		fmt.Fprintf(&sb, `<script src="/wp-content/plugins/plugin-%02d/x.js"></script>`, i)
	}
	slugs := extractSlugs(sb.String(), wpPluginSlugRE, wpMaxPlugins)
	if len(slugs) != wpMaxPlugins {
		t.Errorf("got %d slugs, want cap %d", len(slugs), wpMaxPlugins)
	}
}

func TestParseMetadataVersion(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"stable tag", "=== Contact Form 7 ===\nStable tag: 5.8.1\nRequires at least: 6.0", "5.8.1"},
		{"stable tag v-prefix", "Stable Tag: v2.0", "2.0"},
		{"version line", "/*\nTheme Name: Twenty Ten\nVersion: 3.4\n*/", "3.4"},
		{"changelog heading", "== Changelog ==\n\n= 1.9.2 =\n* Fixed a bug", "1.9.2"},
		{"stable tag beats version line", "Stable tag: 2.0\nVersion: 1.0", "2.0"},
		{"nothing", "just some readme text", ""},
	}
	for _, tc := range cases {
		if got := parseMetadataVersion(tc.body); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSeverityForTitle(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Unauthenticated SQL Injection", "critical"},
		{"Remote Code Execution via upload", "critical"},
		{"Privilege Escalation to admin", "high"},
		{"Authentication Bypass in login flow", "high"},
		{"Reflected Cross-Site Scripting", "medium"},
		{"CSRF in settings page", "medium"},
		{"Sensitive data disclosure", "low"},
	}
	for _, tc := range cases {
		if got := severityForTitle(tc.title); got != tc.want {
			t.Errorf("severityForTitle(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestParseDisclosures(t *testing.T) {
	body := `<div class="vuln">
<h3>Contact Form 7 &lt; 5.8.1 - Reflected Cross-Site Scripting</h3> - Fixed in 5.8.1
</div>
<div class="vuln">
<h3>Contact Form 7 - SQL Injection</h3> - Fixed in version 3.0
</div>`

	// Installed 5.0: the XSS (fixed in 5.8.1) still applies, the ancient
	// SQLi (fixed in 3.0) does not.
	vulns := parseDisclosures(body, "contact-form-7", "5.0")

	if len(vulns) != 1 {
		t.Fatalf("got %d vulns, want 1: %+v", len(vulns), vulns)
	}
	v := vulns[0]
	if v.Component != "contact-form-7" {
		t.Errorf("component = %q", v.Component)
	}
	if v.FixedIn != "5.8.1" {
		t.Errorf("fixed_in = %q", v.FixedIn)
	}
	if v.Severity != "medium" {
		t.Errorf("severity = %q, want medium", v.Severity)
	}
	if !strings.Contains(v.Title, "Cross-Site Scripting") {
		t.Errorf("title = %q", v.Title)
	}
}

func TestWordPress_Execute_NotWordPress(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>plain static site</body></html>"))
	}))
	defer srv.Close()

	adapter := NewWordPress()
	res := adapter.Execute(context.Background(), strings.TrimPrefix(srv.URL, "https://"), engine.Options{})
	if res.Status != engine.ResultCompleted {
		t.Fatalf("status = %s: %s", res.Status, res.Error)
	}

	data := res.Data.(engine.WordPressData)
	if data.IsWordPress {
		t.Error("misdetected WordPress")
	}
	if data.Plugins == nil || data.Users == nil || data.Vulnerabilities == nil {
		t.Error("collections must be empty, not nil")
	}
}

func TestWordPress_Execute_FullEnumeration(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("author") != "" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><head>
<link href="/wp-content/plugins/demo-plugin/style.css">
<link href="/wp-content/themes/demo-theme/style.css">
</head><body></body></html>`))
	})
	mux.HandleFunc("/wp-content/plugins/demo-plugin/readme.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("=== Demo Plugin ===\nStable tag: 1.0.0\n"))
	})
	mux.HandleFunc("/wp-content/themes/demo-theme/style.css", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("/*\nTheme Name: Demo\nVersion: 2.0\n*/"))
	})
	mux.HandleFunc("/wp-json/wp/v2/users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"Site Admin","slug":"admin"}]`))
	})

	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	// Registry and disclosure stubs.
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"1.2.0"}`))
	}))
	defer registry.Close()
	vulnPage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<h3>Demo Plugin - Stored Cross-Site Scripting</h3> - Fixed in 1.1.0`))
	}))
	defer vulnPage.Close()

	adapter := &WordPress{
		PluginInfoURL:    registry.URL + "/%s.json",
		ThemeInfoURL:     registry.URL + "/theme/%s",
		VulnPageURL:      vulnPage.URL + "/plugin/%s/",
		ThemeVulnPageURL: vulnPage.URL + "/theme/%s/",
	}

	res := adapter.Execute(context.Background(), strings.TrimPrefix(srv.URL, "https://"), engine.Options{})
	if res.Status != engine.ResultCompleted {
		t.Fatalf("status = %s: %s", res.Status, res.Error)
	}
	data := res.Data.(engine.WordPressData)

	if !data.IsWordPress {
		t.Fatal("expected WordPress detection")
	}

	if len(data.Plugins) != 1 {
		t.Fatalf("plugins = %+v", data.Plugins)
	}
	p := data.Plugins[0]
	if p.Name != "demo-plugin" || p.Version != "1.0.0" || p.LatestVersion != "1.2.0" {
		t.Errorf("plugin = %+v", p)
	}
	if !p.Outdated {
		t.Error("1.0.0 < 1.2.0 should flag outdated")
	}
	if !p.Vulnerable {
		t.Error("disclosure fixed in 1.1.0 > installed 1.0.0 should flag vulnerable")
	}

	if len(data.Themes) != 1 || data.Themes[0].Version != "2.0" {
		t.Errorf("themes = %+v", data.Themes)
	}
	if data.Themes[0].Vulnerable {
		t.Error("theme disclosure fixed in 1.1.0 < installed 2.0 should not flag vulnerable")
	}

	if len(data.Users) != 1 || data.Users[0].Username != "admin" || data.Users[0].Source != "rest" {
		t.Errorf("users = %+v", data.Users)
	}

	if len(data.Vulnerabilities) != 1 {
		t.Errorf("vulnerabilities = %+v", data.Vulnerabilities)
	}
}

func TestWordPress_Execute_ThemeVulnerability(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
<link href="/wp-content/themes/demo-theme/style.css">
</head><body></body></html>`))
	})
	mux.HandleFunc("/wp-content/themes/demo-theme/style.css", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("/*\nTheme Name: Demo\nVersion: 1.0\n*/"))
	})

	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"2.0"}`))
	}))
	defer registry.Close()
	vulnPage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/theme/") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<h3>Demo Theme - Stored Cross-Site Scripting</h3> - Fixed in 1.5`))
	}))
	defer vulnPage.Close()

	adapter := &WordPress{
		PluginInfoURL:    registry.URL + "/plugin/%s.json",
		ThemeInfoURL:     registry.URL + "/theme/%s",
		VulnPageURL:      vulnPage.URL + "/plugin/%s/",
		ThemeVulnPageURL: vulnPage.URL + "/theme/%s/",
	}

	res := adapter.Execute(context.Background(), strings.TrimPrefix(srv.URL, "https://"), engine.Options{})
	if res.Status != engine.ResultCompleted {
		t.Fatalf("status = %s: %s", res.Status, res.Error)
	}
	data := res.Data.(engine.WordPressData)

	if len(data.Themes) != 1 {
		t.Fatalf("themes = %+v", data.Themes)
	}
	th := data.Themes[0]
	if th.Version != "1.0" || th.LatestVersion != "2.0" {
		t.Errorf("theme = %+v", th)
	}
	if !th.Outdated {
		t.Error("1.0 < 2.0 should flag outdated")
	}
	if !th.Vulnerable {
		t.Error("disclosure fixed in 1.5 > installed 1.0 should flag vulnerable")
	}

	if len(data.Vulnerabilities) != 1 {
		t.Fatalf("vulnerabilities = %+v", data.Vulnerabilities)
	}
	v := data.Vulnerabilities[0]
	if v.Component != "demo-theme" || v.FixedIn != "1.5" || v.Severity != "medium" {
		t.Errorf("vulnerability = %+v", v)
	}
}

func TestAuthorProbeUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("author") {
		case "1":
			http.Redirect(w, r, "/author/alice/", http.StatusMovedPermanently)
		case "2":
			http.Redirect(w, r, "/author/alice/", http.StatusMovedPermanently) // duplicate
		case "3":
			http.Redirect(w, r, "/author/bob/", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	users := authorProbeUsers(context.Background(), "test-agent", srv.URL, "")
	if len(users) != 2 {
		t.Fatalf("users = %+v, want alice and bob", users)
	}
	if users[0].Username != "alice" || users[0].ID != 1 {
		t.Errorf("users[0] = %+v", users[0])
	}
	if users[1].Username != "bob" || users[1].ID != 3 {
		t.Errorf("users[1] = %+v", users[1])
	}
	for _, u := range users {
		if u.Source != "author_probe" {
			t.Errorf("source = %q", u.Source)
		}
	}
}
