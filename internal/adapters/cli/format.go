// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"time"

	"github.com/fatih/color"
)

var (
	statusColors = map[string]*color.Color{
		"production":          color.New(color.FgBlue),
		"built":               color.New(color.FgCyan),
		"revision":            color.New(color.FgYellow),
		"approved":            color.New(color.FgGreen),
		"finalized":           color.New(color.FgGreen, color.Bold),
		"first_stage_passed":  color.New(color.FgYellow),
		"second_stage_passed": color.New(color.FgCyan),
	}
	okMark   = color.New(color.FgGreen).Sprint("✓")
	openMark = color.New(color.FgYellow).Sprint("○")
)

// colorStatus renders a unit or protocol status in its terminal colour.
func colorStatus(status string) string {
	if c, ok := statusColors[status]; ok {
		return c.Sprint(status)
	}
	return status
}

func completionMark(completed bool) string {
	if completed {
		return okMark
	}
	return openMark
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
