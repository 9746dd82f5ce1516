package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/afikmenashe/adherence-platform/internal/adherence"
	"github.com/afikmenashe/adherence-platform/internal/notification"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func pct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func tierColor(t adherence.Tier) string {
	switch t {
	case adherence.TierHealthy:
		return green(t.Label())
	case adherence.TierAtRisk:
		return yellow(t.Label())
	case adherence.TierCritical:
		return red(t.Label())
	default:
		return gray(t.Label())
	}
}

func severityColor(s notification.Severity) string {
	switch s {
	case notification.SeverityCritical, notification.SeverityHigh:
		return red(string(s))
	case notification.SeverityMedium:
		return yellow(string(s))
	default:
		return string(s)
	}
}

func bar(count, peak, width int) string {
	if peak <= 0 || count <= 0 {
		return ""
	}
	n := count * width / peak
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}
