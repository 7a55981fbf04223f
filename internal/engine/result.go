package engine

import "encoding/json"

// ModuleStatus is the outcome class of a single module run.
type ModuleStatus string

const (
	ResultCompleted ModuleStatus = "completed"
	ResultTimeout   ModuleStatus = "timeout"
	ResultError     ModuleStatus = "error"
)

// ModuleResult is the canonical per-module output envelope: a status, an
// error message on non-completed status, and the module-specific normalized
// payload. The payload's fields marshal at the top level of the module's
// JSON object alongside status and error.
type ModuleResult struct {
	Status ModuleStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
	Data   any          `json:"-"`
}

// Completed wraps a normalized payload in a successful result.
func Completed(data any) ModuleResult {
	return ModuleResult{Status: ResultCompleted, Data: data}
}

// MarshalJSON flattens the payload fields into the result object.
func (r ModuleResult) MarshalJSON() ([]byte, error) {
	merged := make(map[string]json.RawMessage)

	if r.Data != nil {
		raw, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		// Payloads are always structs or maps, never scalars.
		if err := json.Unmarshal(raw, &merged); err != nil {
			return nil, err
		}
	}

	status, err := json.Marshal(r.Status)
	if err != nil {
		return nil, err
	}
	merged["status"] = status

	if r.Error != "" {
		msg, err := json.Marshal(r.Error)
		if err != nil {
			return nil, err
		}
		merged["error"] = msg
	}

	return json.Marshal(merged)
}

// WAFData is the normalized WAF detection payload.
type WAFData struct {
	Detected bool   `json:"detected"`
	Name     string `json:"waf_name,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
	Target   string `json:"target"`
}

// OpenPort is one discovered open port with its risk classification.
type OpenPort struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Service  string `json:"service"`
	Version  string `json:"version,omitempty"`
	Risk     string `json:"risk"`
}

// PortData is the normalized port scan payload.
type PortData struct {
	OpenPorts []OpenPort `json:"open_ports"`
}

// SubdomainEntry is one discovered subdomain, tagged regular or cpanel.
type SubdomainEntry struct {
	Subdomain string `json:"subdomain"`
	Type      string `json:"type"`
}

// SubdomainData is the normalized subdomain enumeration payload. Subdomains
// holds the capped display list; TotalFound is the true union size.
type SubdomainData struct {
	Subdomains []SubdomainEntry `json:"subdomains"`
	Count      int              `json:"count"`
	TotalFound int              `json:"total_found"`
}

// CMSData is the normalized CMS detection payload.
type CMSData struct {
	Detected   bool   `json:"detected"`
	Name       string `json:"cms_name,omitempty"`
	Version    string `json:"version,omitempty"`
	Confidence string `json:"confidence,omitempty"`
}

// Technology is one fingerprinted technology.
type Technology struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// TechData is the normalized technology fingerprinting payload. Categories
// groups detected names by fixed category identifiers.
type TechData struct {
	Technologies []Technology        `json:"technologies"`
	Categories   map[string][]string `json:"categories"`
}

// DirEntry is one discovered path with its status-derived severity.
type DirEntry struct {
	Path     string `json:"path"`
	Status   int    `json:"status"`
	Severity string `json:"severity"`
}

// DirData is the normalized directory probe payload, sorted ascending by
// status code, with a per-status breakdown.
type DirData struct {
	Directories  []DirEntry     `json:"directories"`
	StatusCounts map[string]int `json:"status_counts"`
}

// WPExtension is one enumerated WordPress plugin or theme.
type WPExtension struct {
	Name          string `json:"name"`
	Version       string `json:"version,omitempty"`
	LatestVersion string `json:"latest_version,omitempty"`
	Outdated      bool   `json:"outdated"`
	Vulnerable    bool   `json:"vulnerable"`
}

// WPUser is one enumerated WordPress account.
type WPUser struct {
	ID       int    `json:"id,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Source   string `json:"source"`
}

// WPVulnerability is one cross-referenced disclosure affecting an installed
// plugin or theme version.
type WPVulnerability struct {
	Component string `json:"component"`
	Title     string `json:"title"`
	FixedIn   string `json:"fixed_in,omitempty"`
	Severity  string `json:"severity"`
}

// WordPressData is the normalized WordPress enumeration payload.
type WordPressData struct {
	IsWordPress     bool              `json:"is_wordpress"`
	Plugins         []WPExtension     `json:"plugins"`
	Themes          []WPExtension     `json:"themes"`
	Users           []WPUser          `json:"users"`
	Vulnerabilities []WPVulnerability `json:"vulnerabilities"`
}
