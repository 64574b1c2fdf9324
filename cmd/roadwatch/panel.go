package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/roadwatch/roadwatch/pkg/analysis"
)

const panelWidth = 60

// renderPanel prints one scan result as a text dashboard panel.
func renderPanel(w io.Writer, res *analysis.Result) {
	line := strings.Repeat("─", panelWidth)

	fmt.Fprintln(w, line)
	fmt.Fprintf(w, " %s  %s", verdictBadge(res.SafetyLevel), res.SafetyLevel)
	if res.Timestamp != "" {
		fmt.Fprintf(w, "%*s", panelWidth-12-len(res.SafetyLevel), res.Timestamp)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, line)

	if len(res.Hazards) > 0 {
		fmt.Fprintln(w, " Hazards:")
		for _, h := range res.Hazards {
			fmt.Fprintf(w, "   [%s] %s: %s\n", h.Severity, h.Type, h.Description)
		}
	}
	if len(res.Signs) > 0 {
		fmt.Fprintln(w, " Road signs:")
		for _, s := range res.Signs {
			fmt.Fprintf(w, "   %s: %s", s.Type, s.Meaning)
			if s.Location != "" {
				fmt.Fprintf(w, " (%s)", s.Location)
			}
			fmt.Fprintln(w)
		}
	}
	if len(res.Hazards) == 0 && len(res.Signs) == 0 {
		fmt.Fprintln(w, " Nothing notable in frame.")
	}
	if res.Recommendation != "" {
		fmt.Fprintf(w, " >> %s\n", res.Recommendation)
	}
	fmt.Fprintln(w, line)
}

func verdictBadge(level analysis.SafetyLevel) string {
	switch level {
	case analysis.SafetyDanger:
		return "🔴"
	case analysis.SafetyCaution:
		return "🟡"
	default:
		return "🟢"
	}
}
