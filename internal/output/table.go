package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/recondor/recondor/internal/engine"
)

// WriteTables renders the per-module results as styled terminal tables.
func WriteTables(w io.Writer, scan *engine.Scan, noColor bool) {
	if res, ok := scan.Results[engine.ModulePort]; ok {
		writePortTable(w, res, noColor)
	}
	if res, ok := scan.Results[engine.ModuleSubdomain]; ok {
		writeSubdomainTable(w, res, noColor)
	}
	if res, ok := scan.Results[engine.ModuleDir]; ok {
		writeDirTable(w, res, noColor)
	}
	if res, ok := scan.Results[engine.ModuleWordPress]; ok {
		writeWordPressTable(w, res, noColor)
	}
}

func writePortTable(w io.Writer, res engine.ModuleResult, noColor bool) {
	data, ok := res.Data.(engine.PortData)
	if !ok || len(data.OpenPorts) == 0 {
		return
	}

	headers := []string{"Port", "Proto", "Service", "Version", "Risk"}
	var rows [][]string
	for _, p := range data.OpenPorts {
		rows = append(rows, []string{
			strconv.Itoa(p.Port), p.Protocol, p.Service,
			truncate(p.Version, 40), p.Risk,
		})
	}

	fmt.Fprintln(w, "\nOpen ports:")
	renderTable(w, headers, rows, noColor)
}

func writeSubdomainTable(w io.Writer, res engine.ModuleResult, noColor bool) {
	data, ok := res.Data.(engine.SubdomainData)
	if !ok || len(data.Subdomains) == 0 {
		return
	}

	headers := []string{"Subdomain", "Type"}
	var rows [][]string
	for _, s := range data.Subdomains {
		rows = append(rows, []string{s.Subdomain, s.Type})
	}

	fmt.Fprintf(w, "\nSubdomains (%d shown of %d found):\n", data.Count, data.TotalFound)
	renderTable(w, headers, rows, noColor)
}

func writeDirTable(w io.Writer, res engine.ModuleResult, noColor bool) {
	data, ok := res.Data.(engine.DirData)
	if !ok || len(data.Directories) == 0 {
		return
	}

	headers := []string{"Path", "Status", "Severity"}
	var rows [][]string
	for _, d := range data.Directories {
		rows = append(rows, []string{truncate(d.Path, 50), strconv.Itoa(d.Status), d.Severity})
	}

	fmt.Fprintln(w, "\nDiscovered paths:")
	renderTable(w, headers, rows, noColor)
}

func writeWordPressTable(w io.Writer, res engine.ModuleResult, noColor bool) {
	data, ok := res.Data.(engine.WordPressData)
	if !ok || !data.IsWordPress {
		return
	}

	if len(data.Plugins) > 0 {
		headers := []string{"Plugin", "Version", "Latest", "Outdated", "Vulnerable"}
		var rows [][]string
		for _, p := range data.Plugins {
			rows = append(rows, []string{
				p.Name, orDash(p.Version), orDash(p.LatestVersion),
				yesNo(p.Outdated), yesNo(p.Vulnerable),
			})
		}
		fmt.Fprintln(w, "\nWordPress plugins:")
		renderTable(w, headers, rows, noColor)
	}

	if len(data.Users) > 0 {
		headers := []string{"Username", "Name", "Source"}
		var rows [][]string
		for _, u := range data.Users {
			rows = append(rows, []string{u.Username, orDash(u.Name), u.Source})
		}
		fmt.Fprintln(w, "\nWordPress users:")
		renderTable(w, headers, rows, noColor)
	}
}

func renderTable(w io.Writer, headers []string, rows [][]string, noColor bool) {
	if noColor {
		writeSimpleTable(w, headers, rows)
		return
	}

	t := table.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
			}
			return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		})

	for _, row := range rows {
		t.Row(row...)
	}

	fmt.Fprintln(w, t.Render())
}

func writeSimpleTable(w io.Writer, headers []string, rows [][]string) {
	// Calculate column widths.
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	// Print header.
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, " | ")
		}
		fmt.Fprintf(w, "%-*s", widths[i], h)
	}
	fmt.Fprintln(w)

	// Separator.
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)

	// Rows.
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
