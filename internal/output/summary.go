package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/recondor/recondor/internal/engine"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// WriteSummary prints a per-module overview of the finished scan.
func WriteSummary(w io.Writer, scan *engine.Scan, noColor bool) {
	fmt.Fprintf(w, "\nScan of %s: %s\n", scan.Target, scan.Status)
	if scan.Error != "" {
		fmt.Fprintf(w, "  %s\n", paint(failStyle, scan.Error, noColor))
	}

	for _, id := range engine.ModuleOrder {
		res, ok := scan.Results[id]
		if !ok {
			continue
		}
		switch res.Status {
		case engine.ResultCompleted:
			fmt.Fprintf(w, "  %s %-6s %s\n", paint(okStyle, "ok", noColor), id, moduleLine(res))
		case engine.ResultTimeout:
			fmt.Fprintf(w, "  %s %-6s %s\n", paint(warnStyle, "timeout", noColor), id, res.Error)
		default:
			fmt.Fprintf(w, "  %s %-6s %s\n", paint(failStyle, "error", noColor), id, res.Error)
		}
	}
}

// moduleLine condenses a completed module payload to a single line.
func moduleLine(res engine.ModuleResult) string {
	switch data := res.Data.(type) {
	case engine.WAFData:
		if data.Detected {
			return fmt.Sprintf("behind %s (%s)", data.Name, data.Vendor)
		}
		return "no WAF detected"
	case engine.PortData:
		return fmt.Sprintf("%d open ports", len(data.OpenPorts))
	case engine.SubdomainData:
		return fmt.Sprintf("%d subdomains (%d total)", data.Count, data.TotalFound)
	case engine.CMSData:
		if data.Detected {
			if data.Version != "" {
				return fmt.Sprintf("%s %s (%s confidence)", data.Name, data.Version, data.Confidence)
			}
			return fmt.Sprintf("%s (%s confidence)", data.Name, data.Confidence)
		}
		return "no CMS detected"
	case engine.TechData:
		return fmt.Sprintf("%d technologies", len(data.Technologies))
	case engine.DirData:
		return fmt.Sprintf("%d paths (%s)", len(data.Directories), statusCountLine(data.StatusCounts))
	case engine.WordPressData:
		if !data.IsWordPress {
			return "not WordPress"
		}
		return fmt.Sprintf("%d plugins, %d themes, %d users, %d vulnerabilities",
			len(data.Plugins), len(data.Themes), len(data.Users), len(data.Vulnerabilities))
	default:
		return "done"
	}
}

func statusCountLine(counts map[string]int) string {
	if len(counts) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%dx %s", counts[k], k))
	}
	return strings.Join(parts, ", ")
}

func paint(style lipgloss.Style, s string, noColor bool) string {
	if noColor {
		return s
	}
	return style.Render(s)
}
