package agent

import (
	"fmt"
	"strings"

	"docscout/internal/models"
)

// DebugLogMarker separates report content from the appended tool-call log in
// a report file. Everything above it is the report; everything below is the
// audit trail.
const DebugLogMarker = "=== SEARCH AGENT DEBUG LOG ==="

// RenderDebugLog formats the tool-call records of one run as the plain-text
// block appended to report files.
func RenderDebugLog(records []models.ToolCallRecord) string {
	b := strings.Builder{}
	b.WriteString(DebugLogMarker)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total tool calls: %d\n\n", len(records))
	for _, rec := range records {
		fmt.Fprintf(&b, "Tool Call %d:\n", rec.Index)
		fmt.Fprintf(&b, "  Function: %s\n", rec.Function)
		fmt.Fprintf(&b, "  Arguments: %s\n", rec.Arguments)
		fmt.Fprintf(&b, "  Result: %s\n", rec.Result)
		b.WriteString("---\n")
	}
	return b.String()
}

// ComposeReportFile renders the full on-disk form of a report: main content,
// a blank line, then the debug log.
func ComposeReportFile(r models.Report) string {
	return strings.TrimRight(r.MainContent, "\n") + "\n\n" + RenderDebugLog(r.DebugLog)
}

// SplitReportFile recovers the main content from a report file, discarding
// the debug section. Used when feeding reports back into evaluation and
// synthesis so the log never leaks into prompts.
func SplitReportFile(fileText string) string {
	if i := strings.Index(fileText, DebugLogMarker); i >= 0 {
		return strings.TrimRight(fileText[:i], "\n")
	}
	return strings.TrimRight(fileText, "\n")
}
