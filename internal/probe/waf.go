package probe

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/recondor/recondor/internal/engine"
)

const wafTimeout = 60 * time.Second

// wafBehindRE matches wafw00f's detection line:
// "The site https://example.com is behind Cloudflare (Cloudflare Inc.) WAF."
var wafBehindRE = regexp.MustCompile(`is behind (.+?) \(([^)]+)\)`)

// WAF detects web application firewalls by invoking the wafw00f
// fingerprinting tool against an HTTPS probe URL for the host.
type WAF struct {
	Binary string
	exec   execFunc
}

// NewWAF builds the WAF adapter.
func NewWAF() *WAF {
	return &WAF{Binary: "wafw00f", exec: runTool}
}

// ID implements engine.Adapter.
func (w *WAF) ID() string { return engine.ModuleWAF }

// Execute runs wafw00f and parses its detection line. Absence of a
// detection phrase, or an explicit "no WAF"/"unprotected" phrase, yields
// detected=false.
func (w *WAF) Execute(ctx context.Context, host string, opts engine.Options) engine.ModuleResult {
	probeURL := "https://" + host

	args := []string{probeURL, "-a"}
	if opts.Proxy != "" {
		args = append(args, "-p", opts.Proxy)
	}

	out, err := w.exec(ctx, wafTimeout, w.Binary, args...)
	if err != nil && strings.TrimSpace(out) == "" {
		return failureResult(err, nil)
	}

	return engine.Completed(parseWafw00f(out, probeURL))
}

// parseWafw00f normalizes wafw00f's text output into WAFData.
func parseWafw00f(out, probeURL string) engine.WAFData {
	data := engine.WAFData{Target: probeURL}

	for _, line := range strings.Split(out, "\n") {
		if m := wafBehindRE.FindStringSubmatch(line); m != nil {
			data.Detected = true
			data.Name = strings.TrimSpace(m[1])
			data.Vendor = strings.TrimSpace(m[2])
			return data
		}
		if lowerContainsAny(line, "no waf detected", "seems to be unprotected") {
			return data
		}
	}
	return data
}
