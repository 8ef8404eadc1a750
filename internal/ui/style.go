package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/theadarsh-ai/WBSMonitor/internal/task"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintLogo renders the colored wbsmonitor banner to stderr.
func PrintLogo() {
	w := os.Stderr
	frame := color.New(color.FgCyan)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +---------------------------+")
	brand.Fprintln(w, "   |  W B S   M O N I T O R    |")
	frame.Fprintln(w, "   +---------------------------+")
	tag.Fprintln(w, "   Autonomous project risk monitoring")
	fmt.Fprintln(w)
}

// RiskIcon returns a colored icon for a risk tier.
func RiskIcon(level task.RiskLevel) string {
	switch level {
	case task.CriticalEscalation:
		return BoldRed("‼")
	case task.Alert:
		return Red("!")
	case task.AtRisk:
		return Yellow("~")
	case task.OnTrack:
		return Green("✓")
	default:
		return Dim("◌")
	}
}

// RiskLabel returns a colored human-readable tier label.
func RiskLabel(level task.RiskLevel) string {
	switch level {
	case task.CriticalEscalation:
		return BoldRed("CRITICAL")
	case task.Alert:
		return Red("ALERT")
	case task.AtRisk:
		return Yellow("AT RISK")
	case task.OnTrack:
		return Green("ON TRACK")
	default:
		return Dim("UNKNOWN")
	}
}
