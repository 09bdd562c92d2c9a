package agent

import (
	"strings"
	"testing"

	"docscout/internal/models"
)

func TestComposeAndSplitReportFile(t *testing.T) {
	rep := models.Report{
		PlanID:      "search_plan_1",
		MainContent: "- Objective: test\n- Executive summary: findings [a1b2c3:0]\n",
		DebugLog: []models.ToolCallRecord{
			{Index: 1, Function: "search_documents", Arguments: `{"query":"q"}`, Result: `{"success":true}`},
		},
	}
	fileText := ComposeReportFile(rep)
	if !strings.Contains(fileText, DebugLogMarker) {
		t.Fatal("report file missing debug marker")
	}
	if !strings.Contains(fileText, "Tool Call 1:") {
		t.Fatal("report file missing tool call block")
	}

	main := SplitReportFile(fileText)
	if strings.Contains(main, DebugLogMarker) {
		t.Fatal("split content still carries debug log")
	}
	if !strings.Contains(main, "[a1b2c3:0]") {
		t.Fatalf("split content lost report body: %q", main)
	}
}

func TestSplitReportFileWithoutMarker(t *testing.T) {
	if got := SplitReportFile("plain report\n"); got != "plain report" {
		t.Fatalf("got %q", got)
	}
}
