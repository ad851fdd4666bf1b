// Package display renders check reports and API responses for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/brendan.keane/stackcheck/internal/check"
	"github.com/brendan.keane/stackcheck/pkg/service"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5B47E0")).
			Padding(0, 2)

	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75")).Bold(true)

	nameStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ABB2BF"))
	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#61AFEF")).
			PaddingLeft(4)
)

// ReportOptions controls RenderReport.
type ReportOptions struct {
	// Details prints each result's response body under its line.
	Details bool
}

// RenderReport formats a check report: one line per check followed by a
// summary of counts.
func RenderReport(report check.Report, opts ReportOptions) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(" Service Checks "))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("API URL: " + report.URL))
	b.WriteString("\n\n")

	for _, result := range report.Results {
		b.WriteString("  ")
		b.WriteString(Marker(result.Status))
		b.WriteString("  ")
		b.WriteString(nameStyle.Render(CheckTitle(result.Name)))
		if result.Summary != "" {
			b.WriteString("  ")
			b.WriteString(mutedStyle.Render(result.Summary))
		}
		b.WriteString("\n")

		if opts.Details && result.Details != nil {
			if body, err := MarshalPretty(result.Details); err == nil {
				b.WriteString(detailStyle.Render(body))
				b.WriteString("\n")
			}
		}
	}

	passed := report.Count(check.StatusPass)
	warned := report.Count(check.StatusWarn)
	failed := report.Count(check.StatusFail)
	total := len(report.Results)

	b.WriteString("\n")
	b.WriteString(nameStyle.Render(fmt.Sprintf("Results: %d/%d passed, %d warning(s), %d failed", passed, total, warned, failed)))
	b.WriteString("\n")

	switch {
	case total == 0:
	case passed == total:
		b.WriteString(passStyle.Render("All checks passed"))
		b.WriteString("\n")
	case failed == total:
		b.WriteString(failStyle.Render("All checks failed - is the API running?"))
		b.WriteString("\n")
	case failed > 0:
		b.WriteString(failStyle.Render(fmt.Sprintf("%d check(s) failed", failed)))
		b.WriteString("\n")
	default:
		b.WriteString(warnStyle.Render("Redis and Supabase warnings are expected if they are not configured"))
		b.WriteString("\n")
	}

	return b.String()
}

// Marker returns the styled status tag for a result.
func Marker(status check.Status) string {
	switch status {
	case check.StatusPass:
		return passStyle.Render("✓ PASS")
	case check.StatusWarn:
		return warnStyle.Render("⚠ WARN")
	default:
		return failStyle.Render("✗ FAIL")
	}
}

// CheckTitle turns a check name like "api_root" into "Api Root".
func CheckTitle(name string) string {
	return title(strings.ReplaceAll(name, "_", " "))
}

// RenderHealth formats a /health response with one line per dependency.
func RenderHealth(h service.Health) string {
	var b strings.Builder

	status := passStyle.Render(h.Status)
	if !h.Healthy() {
		status = warnStyle.Render(h.Status)
	}
	fmt.Fprintf(&b, "%s %s\n", nameStyle.Render("Status:"), status)
	if h.Message != "" {
		b.WriteString(mutedStyle.Render(h.Message))
		b.WriteString("\n")
	}

	b.WriteString(dependencyLine("Redis", h.Redis, h.RedisConnected()))
	b.WriteString(dependencyLine("Supabase", h.Supabase, h.SupabaseReady()))
	return b.String()
}

func dependencyLine(name, state string, ok bool) string {
	switch {
	case ok:
		return fmt.Sprintf("  %s %s: %s\n", passStyle.Render("✓"), name, title(state))
	case state == service.DependencyUnavailable:
		return fmt.Sprintf("  %s %s: Not configured (gracefully degraded)\n", warnStyle.Render("⚠"), name)
	case state == "":
		return fmt.Sprintf("  %s %s: unknown\n", warnStyle.Render("⚠"), name)
	default:
		return fmt.Sprintf("  %s %s: %s\n", warnStyle.Render("⚠"), name, state)
	}
}

// title uses a fresh Caser per call; Casers are stateful.
func title(s string) string {
	return cases.Title(language.English).String(s)
}
