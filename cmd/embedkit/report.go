package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/embedkit/pkg/compat/detect"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("212")).
			Padding(0, 1)

	evidenceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// Report is the printable result of one compatibility probe.
type Report struct {
	URL            string      `json:"url"`
	Framework      detect.Info `json:"framework"`
	EditableImages int         `json:"editable_images"`
}

// buildReport assembles a report from the detection outcome.
func buildReport(url string, info *detect.Info, imageCount int) *Report {
	return &Report{
		URL:            url,
		Framework:      *info,
		EditableImages: imageCount,
	}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// Render returns the report as a styled terminal box.
func (r *Report) Render() string {
	var content strings.Builder

	content.WriteString(titleStyle.Render("Compatibility Report"))
	content.WriteString("\n\n")

	content.WriteString(labelStyle.Render("Page"))
	content.WriteString(r.URL)
	content.WriteString("\n")

	content.WriteString(labelStyle.Render("Framework"))
	content.WriteString(string(r.Framework.Type))
	if r.Framework.Version != "" {
		content.WriteString(" " + r.Framework.Version)
	}
	content.WriteString("\n")

	content.WriteString(labelStyle.Render("Confidence"))
	content.WriteString(confidenceStyle(r.Framework.Confidence).Render(
		fmt.Sprintf("%.0f%%", r.Framework.Confidence*100)))
	content.WriteString("\n")

	content.WriteString(labelStyle.Render("Images"))
	content.WriteString(fmt.Sprintf("%d editable", r.EditableImages))

	if len(r.Framework.Evidence) > 0 {
		content.WriteString("\n\n")
		content.WriteString(titleStyle.Render("Evidence"))
		for _, line := range r.Framework.Evidence {
			content.WriteString("\n")
			content.WriteString(evidenceStyle.Render("  - " + line))
		}
	}

	return boxStyle.Render(content.String())
}

// confidenceStyle colors the confidence value by strength.
func confidenceStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= 0.8:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")) // green
	case confidence >= 0.5:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // amber
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("203")) // red
	}
}
