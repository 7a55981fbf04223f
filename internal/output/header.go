package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Version is set from main at startup.
var Version = "dev"

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

// WriteHeader prints the banner line before progress output starts.
func WriteHeader(w io.Writer, noColor bool) {
	line := fmt.Sprintf("recondor %s", Version)
	if noColor {
		fmt.Fprintln(w, line)
		return
	}
	fmt.Fprintln(w, headerStyle.Render(line))
}
