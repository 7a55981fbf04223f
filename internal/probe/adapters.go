package probe

import "github.com/recondor/recondor/internal/engine"

// Adapters returns the full adapter set in module order. tools optionally
// overrides external binary names/paths, keyed by module identifier.
func Adapters(tools map[string]string) []engine.Adapter {
	waf := NewWAF()
	port := NewPort()
	dir := NewDir()

	if p, ok := tools[engine.ModuleWAF]; ok && p != "" {
		waf.Binary = p
	}
	if p, ok := tools[engine.ModulePort]; ok && p != "" {
		port.Binary = p
	}
	if p, ok := tools[engine.ModuleDir]; ok && p != "" {
		dir.Binary = p
	}

	return []engine.Adapter{
		waf,
		port,
		NewSubdomain(),
		NewCMS(),
		NewTech(),
		dir,
		NewWordPress(),
	}
}
