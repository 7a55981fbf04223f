// Package engine orchestrates reconnaissance scans across probing modules.
package engine

import (
	"context"
	"time"
)

// Status is the lifecycle state of a scan.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Module identifiers. ModuleOrder fixes their execution order.
const (
	ModuleWAF       = "waf"
	ModulePort      = "port"
	ModuleSubdomain = "subdo"
	ModuleCMS       = "cms"
	ModuleTech      = "tech"
	ModuleDir       = "dir"
	ModuleWordPress = "wp"
)

// ModuleOrder is the fixed order in which enabled modules run.
var ModuleOrder = []string{
	ModuleWAF,
	ModulePort,
	ModuleSubdomain,
	ModuleCMS,
	ModuleTech,
	ModuleDir,
	ModuleWordPress,
}

// Options selects which modules run and how their requests are issued.
type Options struct {
	WAF       bool   `json:"waf" yaml:"waf"`
	Port      bool   `json:"port" yaml:"port"`
	Subdomain bool   `json:"subdo" yaml:"subdo"`
	CMS       bool   `json:"cms" yaml:"cms"`
	Tech      bool   `json:"tech" yaml:"tech"`
	Dir       bool   `json:"dir" yaml:"dir"`
	WordPress bool   `json:"wp" yaml:"wp"`
	AXFR      bool   `json:"axfr,omitempty" yaml:"axfr"`
	Proxy     string `json:"proxy,omitempty" yaml:"proxy"`
	UserAgent string `json:"user_agent,omitempty" yaml:"user_agent"`
}

// DefaultOptions enables every module except WordPress enumeration.
func DefaultOptions() Options {
	return Options{
		WAF:       true,
		Port:      true,
		Subdomain: true,
		CMS:       true,
		Tech:      true,
		Dir:       true,
		WordPress: false,
	}
}

// Enabled reports whether the module with the given identifier is selected.
func (o Options) Enabled(module string) bool {
	switch module {
	case ModuleWAF:
		return o.WAF
	case ModulePort:
		return o.Port
	case ModuleSubdomain:
		return o.Subdomain
	case ModuleCMS:
		return o.CMS
	case ModuleTech:
		return o.Tech
	case ModuleDir:
		return o.Dir
	case ModuleWordPress:
		return o.WordPress
	}
	return false
}

// Scan is the top-level record tracking one reconnaissance run against one target.
// It is owned by exactly one orchestrator run at a time; readers observe it only
// through Store snapshots taken at module boundaries.
type Scan struct {
	ID            string                  `json:"id"`
	Target        string                  `json:"target"`
	Status        Status                  `json:"status"`
	Progress      int                     `json:"progress"`
	CurrentModule string                  `json:"current_module,omitempty"`
	Options       Options                 `json:"options"`
	Results       map[string]ModuleResult `json:"results"`
	Error         string                  `json:"error,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	StartedAt     *time.Time              `json:"started_at,omitempty"`
	CompletedAt   *time.Time              `json:"completed_at,omitempty"`
}

// Clone returns a copy of the scan with its own results map, safe to hand to
// concurrent readers while the orchestrator keeps mutating the original.
func (s *Scan) Clone() *Scan {
	out := *s
	out.Results = make(map[string]ModuleResult, len(s.Results))
	for k, v := range s.Results {
		out.Results[k] = v
	}
	return &out
}

// Terminal reports whether the scan has reached a final state.
func (s *Scan) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// Store is the persistence collaborator the orchestrator reads and writes
// scan records through. Save must be idempotent and safe to call after
// every module.
type Store interface {
	Load(id string) (*Scan, error)
	Save(scan *Scan) error
}

// Adapter wraps one probing module: an external tool invocation or a set of
// outbound HTTP requests, normalized into a ModuleResult. Adapters never
// return a Go error across this boundary; failures are encoded in the
// result's status.
type Adapter interface {
	ID() string
	Execute(ctx context.Context, host string, opts Options) ModuleResult
}

// ProgressReporter receives module-boundary progress updates.
type ProgressReporter interface {
	Stage(num, total int, msg string)
	Detail(msg string)
	Warn(msg string)
}
