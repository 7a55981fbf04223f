package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/recondor/recondor/internal/target"
)

// Orchestrator drives one scan at a time through its module plan, committing
// status, progress and partial results to the store after every module.
// Module failures are isolated per module; only target validation and
// persistence failures fail the whole scan.
type Orchestrator struct {
	store    Store
	registry *Registry
	log      *slog.Logger

	// Reporter receives optional module-boundary progress updates.
	Reporter ProgressReporter
}

// NewOrchestrator builds an orchestrator over the given store and registry.
func NewOrchestrator(store Store, registry *Registry, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{store: store, registry: registry, log: log}
}

// Run executes the full scan identified by scanID with the given options.
// It is intended to be invoked exactly once per scan creation, off the
// request path. The returned error reports validation or persistence
// failures only; module-level failures are recorded in the scan's results.
func (o *Orchestrator) Run(ctx context.Context, scanID string, opts Options) error {
	scan, err := o.store.Load(scanID)
	if err != nil {
		o.log.Error("scan load failed", "scan_id", scanID, "error", err)
		return fmt.Errorf("load scan %s: %w", scanID, err)
	}

	host, err := target.Validate(scan.Target)
	if err != nil {
		o.log.Warn("target rejected", "scan_id", scanID, "target", scan.Target, "error", err)
		o.fail(scan, err.Error())
		return err
	}

	now := time.Now().UTC()
	scan.Status = StatusRunning
	scan.StartedAt = &now
	scan.Progress = 0
	scan.Options = opts
	scan.Results = make(map[string]ModuleResult)
	if err := o.store.Save(scan); err != nil {
		o.log.Error("scan save failed", "scan_id", scanID, "error", err)
		return fmt.Errorf("save scan %s: %w", scanID, err)
	}

	plan := o.registry.Plan(opts)
	o.log.Info("scan started", "scan_id", scanID, "target", host, "modules", len(plan))

	// An empty plan still counts as one logical unit so the progress
	// arithmetic never divides by zero.
	units := len(plan)
	if units == 0 {
		units = 1
	}

	for i, id := range plan {
		scan.CurrentModule = id
		scan.Progress = i * 100 / units
		if err := o.store.Save(scan); err != nil {
			o.log.Error("scan save failed", "scan_id", scanID, "module", id, "error", err)
			o.fail(scan, fmt.Sprintf("persistence failure before module %s: %s", id, err))
			return fmt.Errorf("save scan %s: %w", scanID, err)
		}

		if o.Reporter != nil {
			o.Reporter.Stage(i+1, len(plan), fmt.Sprintf("Running %s module...", id))
		}

		res := o.execute(ctx, id, host, opts)
		scan.Results[id] = res

		switch res.Status {
		case ResultCompleted:
			o.log.Info("module completed", "scan_id", scanID, "module", id)
		default:
			o.log.Warn("module failed", "scan_id", scanID, "module", id,
				"status", string(res.Status), "error", res.Error)
			if o.Reporter != nil {
				o.Reporter.Warn(fmt.Sprintf("%s: %s", id, res.Error))
			}
		}
	}

	completed := time.Now().UTC()
	scan.Status = StatusCompleted
	scan.Progress = 100
	scan.CurrentModule = ""
	scan.CompletedAt = &completed
	if err := o.store.Save(scan); err != nil {
		o.log.Error("scan finalize failed", "scan_id", scanID, "error", err)
		o.fail(scan, fmt.Sprintf("persistence failure on completion: %s", err))
		return fmt.Errorf("finalize scan %s: %w", scanID, err)
	}

	o.log.Info("scan completed", "scan_id", scanID, "target", host)
	return nil
}

// execute runs one adapter, containing any panic so a misbehaving module can
// never abort its siblings.
func (o *Orchestrator) execute(ctx context.Context, id, host string, opts Options) (res ModuleResult) {
	defer func() {
		if r := recover(); r != nil {
			res = ModuleResult{
				Status: ResultError,
				Error:  fmt.Sprintf("module %s panicked: %v", id, r),
			}
		}
	}()
	return o.registry.Resolve(id).Execute(ctx, host, opts)
}

// fail marks the scan failed, best effort. If the store itself is failing,
// the scan is left in whatever state it last successfully persisted.
func (o *Orchestrator) fail(scan *Scan, msg string) {
	now := time.Now().UTC()
	scan.Status = StatusFailed
	scan.Error = msg
	scan.CurrentModule = ""
	scan.CompletedAt = &now
	if err := o.store.Save(scan); err != nil {
		o.log.Error("failed-state save failed, scan left inconsistent",
			"scan_id", scan.ID, "error", err)
	}
}
