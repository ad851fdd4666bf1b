package openapi

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5B47E0")).
			Padding(0, 2)

	methodStyles = map[string]lipgloss.Style{
		"GET":     badge("#61AFEF"),
		"POST":    badge("#98C379"),
		"PUT":     badge("#E5C07B"),
		"DELETE":  badge("#E06C75"),
		"PATCH":   badge("#C678DD"),
		"HEAD":    badge("#56B6C2"),
		"OPTIONS": badge("#ABB2BF"),
	}

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B")).
			Bold(true)

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ABB2BF"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#61AFEF"))

	paramStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98C379"))

	requiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E06C75")).
			Bold(true)

	codeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#2C323C")).
			Foreground(lipgloss.Color("#ABB2BF")).
			Padding(0, 1)
)

func badge(color string) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// MethodStyle returns the badge style for an HTTP method.
func MethodStyle(method string) lipgloss.Style {
	if style, ok := methodStyles[strings.ToUpper(method)]; ok {
		return style
	}
	return methodStyles["GET"]
}

// RenderIndex lists routes grouped by path under the document title.
func RenderIndex(doc *Document, routes []Route) string {
	if len(routes) == 0 {
		return summaryStyle.Render("No routes found matching the filter")
	}

	var output strings.Builder

	if doc != nil && doc.Title() != "" {
		title := fmt.Sprintf(" %s ", doc.Title())
		if doc.Version() != "" {
			title += fmt.Sprintf("v%s ", doc.Version())
		}
		output.WriteString(titleStyle.Render(title))
		output.WriteString("\n\n")

		if description := shortDescription(doc.Description()); description != "" {
			output.WriteString(summaryStyle.Render(description))
			output.WriteString("\n\n")
		}
	}

	output.WriteString(sectionStyle.Render("Routes"))
	output.WriteString("\n\n")

	currentPath := ""
	for _, route := range routes {
		if route.Path != currentPath {
			if currentPath != "" {
				output.WriteString("\n")
			}
			output.WriteString(pathStyle.Render(route.Path))
			output.WriteString("\n")
			currentPath = route.Path
		}

		output.WriteString("  ")
		output.WriteString(MethodStyle(route.Method).Render(route.Method))
		if route.Summary != "" {
			output.WriteString("  ")
			output.WriteString(summaryStyle.Render(route.Summary))
		}
		output.WriteString("\n")
	}

	return output.String()
}

// RenderRoute shows a single operation with its parameters and response codes.
func RenderRoute(route Route) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("%s %s", MethodStyle(route.Method).Render(route.Method), pathStyle.Render(route.Path)))
	output.WriteString("\n")

	if route.Summary != "" {
		output.WriteString("\n")
		output.WriteString(summaryStyle.Render(route.Summary))
		output.WriteString("\n")
	}
	if route.Description != "" && route.Description != route.Summary {
		output.WriteString("\n")
		output.WriteString(summaryStyle.Render(route.Description))
		output.WriteString("\n")
	}

	if len(route.Parameters) > 0 {
		output.WriteString("\n")
		output.WriteString(sectionStyle.Render("Parameters"))
		output.WriteString("\n")
		for _, param := range route.Parameters {
			output.WriteString("  • ")
			output.WriteString(paramStyle.Render(param.Name))
			output.WriteString(" ")
			output.WriteString(codeStyle.Render(param.In))
			if param.Type != "" {
				output.WriteString(" ")
				output.WriteString(codeStyle.Render(param.Type))
			}
			if param.Required {
				output.WriteString(" ")
				output.WriteString(requiredStyle.Render("*required"))
			}
			output.WriteString("\n")
			if param.Description != "" {
				output.WriteString("    ")
				output.WriteString(summaryStyle.Render(param.Description))
				output.WriteString("\n")
			}
		}
	}

	if len(route.Responses) > 0 {
		output.WriteString("\n")
		output.WriteString(sectionStyle.Render("Responses"))
		output.WriteString("\n  ")
		output.WriteString(strings.Join(route.Responses, " "))
		output.WriteString("\n")
	}

	return output.String()
}

// Render picks the single-route view for one exact match and the index otherwise.
func Render(doc *Document, routes []Route, filter string) string {
	if len(routes) == 1 && routes[0].Path == filter {
		return RenderRoute(routes[0])
	}
	return RenderIndex(doc, routes)
}

func shortDescription(description string) string {
	if idx := strings.Index(description, ". "); idx > 0 && idx < 100 {
		return description[:idx+1]
	}
	if len(description) > 100 {
		return description[:97] + "..."
	}
	return description
}
