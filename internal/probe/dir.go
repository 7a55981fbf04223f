package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/recondor/recondor/internal/engine"
	"github.com/recondor/recondor/internal/wordlist"
)

const (
	dirTimeout     = 300 * time.Second
	dirMatchCodes  = "200,204,301,302,307,401,403,405,500,503"
	dirConcurrency = "40"
)

// ffufOutput mirrors the fields we consume from ffuf's JSON output file.
type ffufOutput struct {
	Results []ffufResult `json:"results"`
}

type ffufResult struct {
	Input  map[string]string `json:"input"`
	Status int               `json:"status"`
	URL    string            `json:"url"`
}

// Dir probes for interesting paths by running ffuf against the HTTPS root
// with an embedded wordlist and parsing its JSON output.
type Dir struct {
	Binary string
	exec   execFunc
}

// NewDir builds the directory probing adapter.
func NewDir() *Dir {
	return &Dir{Binary: "ffuf", exec: runTool}
}

// ID implements engine.Adapter.
func (d *Dir) ID() string { return engine.ModuleDir }

// Execute runs the content discovery tool and normalizes its findings,
// sorted ascending by status code with a per-status breakdown.
func (d *Dir) Execute(ctx context.Context, host string, opts engine.Options) engine.ModuleResult {
	empty := engine.DirData{Directories: []engine.DirEntry{}, StatusCounts: map[string]int{}}

	words := wordlist.Directories()
	if len(words) == 0 {
		return failureResult(fmt.Errorf("empty directory wordlist"), empty)
	}

	tmpDir, err := os.MkdirTemp("", "recondor-dir-*")
	if err != nil {
		return failureResult(fmt.Errorf("temp dir: %w", err), empty)
	}
	defer os.RemoveAll(tmpDir)

	wordlistPath := filepath.Join(tmpDir, "paths.txt")
	if err := os.WriteFile(wordlistPath, []byte(strings.Join(words, "\n")+"\n"), 0o644); err != nil {
		return failureResult(fmt.Errorf("write wordlist: %w", err), empty)
	}
	outputPath := filepath.Join(tmpDir, "ffuf.json")

	args := []string{
		"-u", fmt.Sprintf("https://%s/FUZZ", host),
		"-w", wordlistPath,
		"-mc", dirMatchCodes,
		"-t", dirConcurrency,
		"-o", outputPath,
		"-of", "json",
		"-s",
	}
	if opts.Proxy != "" {
		args = append(args, "-x", opts.Proxy)
	}
	if ua := userAgentOr(opts); ua != "" {
		args = append(args, "-H", "User-Agent: "+ua)
	}

	if _, err := d.exec(ctx, dirTimeout, d.Binary, args...); err != nil {
		// ffuf writes its output file before a nonzero exit in some error
		// paths; only trust it when the run itself succeeded.
		return failureResult(err, empty)
	}

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		return failureResult(fmt.Errorf("read ffuf output: %w", err), empty)
	}

	data, err := parseFfufOutput(raw)
	if err != nil {
		return failureResult(err, empty)
	}
	return engine.Completed(data)
}

// parseFfufOutput normalizes ffuf's JSON output file.
func parseFfufOutput(raw []byte) (engine.DirData, error) {
	var out ffufOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return engine.DirData{}, fmt.Errorf("ffuf JSON parse: %w", err)
	}

	data := engine.DirData{
		Directories:  make([]engine.DirEntry, 0, len(out.Results)),
		StatusCounts: make(map[string]int),
	}

	for _, r := range out.Results {
		path := r.Input["FUZZ"]
		if path == "" {
			continue
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		data.Directories = append(data.Directories, engine.DirEntry{
			Path:     path,
			Status:   r.Status,
			Severity: severityForStatus(r.Status),
		})
		data.StatusCounts[strconv.Itoa(r.Status)]++
	}

	sort.SliceStable(data.Directories, func(i, j int) bool {
		a, b := data.Directories[i], data.Directories[j]
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		return a.Path < b.Path
	})

	return data, nil
}

// severityForStatus maps a response status to a finding severity.
func severityForStatus(status int) string {
	switch {
	case status == 200:
		return "success"
	case status == 403:
		return "warning"
	case status >= 500:
		return "error"
	default:
		return "info"
	}
}
