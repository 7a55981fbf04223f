package probe

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// versionComponentRE keeps the leading dotted-numeric part of a version
// string ("5.8.1-beta2" -> "5.8.1").
var versionComponentRE = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)`)

// parseVersion coerces loose dotted version strings into comparable
// versions. Extension versions are often two-part ("5.8") or four-part
// ("1.2.3.4"); both are normalized onto three numeric components.
// Comparison is numeric per component, never lexical, so "10.0" sorts
// after "9.5".
func parseVersion(s string) (*semver.Version, bool) {
	m := versionComponentRE.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, false
	}
	parts := strings.Split(m[1], ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	v, err := semver.NewVersion(strings.Join(parts[:3], "."))
	if err != nil {
		return nil, false
	}
	return v, true
}

// versionOlder reports whether installed is strictly older than latest.
// Unparseable input compares as not-older (best effort).
func versionOlder(installed, latest string) bool {
	a, ok := parseVersion(installed)
	if !ok {
		return false
	}
	b, ok := parseVersion(latest)
	if !ok {
		return false
	}
	return a.LessThan(b)
}

// versionAtLeast reports whether a >= b. Unparseable input compares false.
func versionAtLeast(a, b string) bool {
	va, ok := parseVersion(a)
	if !ok {
		return false
	}
	vb, ok := parseVersion(b)
	if !ok {
		return false
	}
	return !va.LessThan(vb)
}
