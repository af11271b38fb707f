package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintBanner renders the colored header to w.
func PrintBanner(w io.Writer) {
	bars := color.New(color.FgCyan)
	crit := color.New(color.FgRed)
	brand := color.New(color.Bold, color.FgMagenta)

	fmt.Fprintln(w)
	bars.Fprintln(w, "   ████▌")
	crit.Fprintln(w, "      ██████▌")
	bars.Fprintln(w, "        ███▌")
	crit.Fprintln(w, "             █████▌")
	brand.Fprintln(w, "   G A N T T · C P M")
	fmt.Fprintln(w)
}

// phaseColors is a palette of distinct bold colors for differentiating phases.
var phaseColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	color.New(color.Bold, color.FgGreen).SprintFunc(),
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// phaseColorIndex hashes a phase name to a palette index.
func phaseColorIndex(phase string) int {
	var h uint32
	for _, c := range phase {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(phaseColors)))
}

// PhaseLabel returns a colored [phase] label. Each phase gets a stable color.
func PhaseLabel(phase string) string {
	if phase == "" {
		return Dim("[-]")
	}
	c := phaseColors[phaseColorIndex(phase)]
	return Dim("[") + c(phase) + Dim("]")
}

// CriticalMarker returns the icon shown next to critical tasks.
func CriticalMarker(critical bool) string {
	if critical {
		return BoldRed("⚡")
	}
	return " "
}

// SlackLabel colors a slack value: zero is red, small is yellow.
func SlackLabel(slack int) string {
	s := fmt.Sprintf("%d", slack)
	switch {
	case slack == 0:
		return Red(s)
	case slack <= 2:
		return Yellow(s)
	default:
		return Green(s)
	}
}

// WarningIcon prefixes diagnostic lines.
func WarningIcon() string {
	return Yellow("⚠")
}

// ModeBadge describes whether a result was fully scheduled.
func ModeBadge(degraded bool) string {
	if degraded {
		return BoldYellow("degraded")
	}
	return BoldCyan("scheduled")
}
