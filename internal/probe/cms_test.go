package probe

import (
	"net/http"
	"testing"
)

const wordpressHomepage = `<!DOCTYPE html>
<html>
<head>
<meta name="generator" content="WordPress 6.4.2" />
<link rel="stylesheet" href="https://example.com/wp-content/themes/twentytwentyfour/style.css" />
<script src="https://example.com/wp-includes/js/jquery/jquery.min.js"></script>
</head>
<body></body>
</html>`

const joomlaHomepage = `<html>
<head>
<meta content="Joomla! - Open Source Content Management" name="generator" />
<script src="/media/jui/js/jquery.min.js"></script>
<script src="/media/system/js/core.js"></script>
</head>
</html>`

const plainHomepage = `<html><head><title>hello</title></head><body>static site</body></html>`

func TestDetectCMS_WordPress(t *testing.T) {
	page := &pageResponse{Body: wordpressHomepage, Header: http.Header{}}
	data := detectCMS(page)

	if !data.Detected {
		t.Fatal("expected detection")
	}
	if data.Name != "WordPress" {
		t.Errorf("name = %q", data.Name)
	}
	if data.Version != "6.4.2" {
		t.Errorf("version = %q, want 6.4.2", data.Version)
	}
	// Two path patterns + generator = score 4.
	if data.Confidence != "high" {
		t.Errorf("confidence = %q, want high", data.Confidence)
	}
}

func TestDetectCMS_GeneratorAttributeOrder(t *testing.T) {
	// content before name, as Joomla emits it.
	page := &pageResponse{Body: joomlaHomepage, Header: http.Header{}}
	data := detectCMS(page)

	if data.Name != "Joomla" {
		t.Fatalf("name = %q, want Joomla", data.Name)
	}
	if data.Confidence != "high" {
		t.Errorf("confidence = %q", data.Confidence)
	}
}

func TestDetectCMS_CookieEvidence(t *testing.T) {
	page := &pageResponse{
		Body:    plainHomepage,
		Header:  http.Header{},
		Cookies: []*http.Cookie{{Name: "wordpress_logged_in_abc", Value: "x"}},
	}
	data := detectCMS(page)

	if data.Name != "WordPress" {
		t.Fatalf("name = %q", data.Name)
	}
	if data.Confidence != "medium" {
		t.Errorf("confidence = %q, want medium for cookie-only evidence", data.Confidence)
	}
}

func TestDetectCMS_Nothing(t *testing.T) {
	page := &pageResponse{Body: plainHomepage, Header: http.Header{}}
	data := detectCMS(page)

	if data.Detected {
		t.Errorf("unexpected detection: %+v", data)
	}
}

func TestDetectCMS_TieKeepsEarlierCandidate(t *testing.T) {
	// One path hit each for WordPress and Drupal; the table order breaks
	// the tie deterministically.
	body := `<a href="/wp-content/a.css"></a><script src="drupal.js"></script>`
	page := &pageResponse{Body: body, Header: http.Header{}}
	data := detectCMS(page)

	if data.Name != "WordPress" {
		t.Errorf("name = %q, want WordPress on tie", data.Name)
	}
	if data.Confidence != "low" {
		t.Errorf("confidence = %q", data.Confidence)
	}
}

func TestDetectCMS_WixBeforePrestaShop(t *testing.T) {
	body := `<img src="https://static.wixstatic.com/media/x.png"><script src="/modules/a.js"></script>`
	page := &pageResponse{Body: body, Header: http.Header{}}
	data := detectCMS(page)

	if data.Name != "Wix" {
		t.Errorf("name = %q, want Wix on tie", data.Name)
	}
}

func TestExtractGenerator(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`<meta name="generator" content="WordPress 6.0" />`, "WordPress 6.0"},
		{`<meta content="Joomla!" name="generator" />`, "Joomla!"},
		{`<META NAME="GENERATOR" CONTENT="Drupal 9">`, "Drupal 9"},
		{`<meta name="description" content="nope" />`, ""},
	}
	for _, tc := range cases {
		if got := extractGenerator(tc.body); got != tc.want {
			t.Errorf("extractGenerator(%q) = %q, want %q", tc.body, got, tc.want)
		}
	}
}
