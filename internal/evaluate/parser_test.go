package evaluate

import (
	"strings"
	"testing"
)

func TestParseVerdictBothYes(t *testing.T) {
	v := ParseVerdict("RELEVANCE: YES - directly addresses the objective\nTHOROUGHNESS: YES - covers all sub-objectives")
	if !v.IsRelevant || !v.IsThorough {
		t.Fatalf("verdict: %+v", v)
	}
	if !strings.Contains(v.Reason, "directly addresses") || !strings.Contains(v.Reason, "covers all") {
		t.Fatalf("reason: %q", v.Reason)
	}
}

func TestParseVerdictMixed(t *testing.T) {
	v := ParseVerdict("RELEVANCE: YES - on topic\nTHOROUGHNESS: NO - skips two sub-objectives")
	if !v.IsRelevant {
		t.Fatal("relevance should be yes")
	}
	if v.IsThorough {
		t.Fatal("thoroughness should be no")
	}
	if !strings.Contains(v.Reason, "skips two sub-objectives") {
		t.Fatalf("reason: %q", v.Reason)
	}
}

func TestParseVerdictCaseInsensitiveMarkers(t *testing.T) {
	v := ParseVerdict("Here is my assessment.\nrelevance: yes - fine\nThoroughness: Yes - complete")
	if !v.IsRelevant || !v.IsThorough {
		t.Fatalf("verdict: %+v", v)
	}
}

func TestParseVerdictMissingMarkerFailsClosed(t *testing.T) {
	v := ParseVerdict("RELEVANCE: YES - good report")
	if !v.IsRelevant {
		t.Fatal("relevance marker present, should parse")
	}
	if v.IsThorough {
		t.Fatal("missing THOROUGHNESS must read as NO")
	}
	if !strings.Contains(v.Reason, "no THOROUGHNESS marker") {
		t.Fatalf("reason should note the missing marker: %q", v.Reason)
	}
}

func TestParseVerdictGarbageFailsClosed(t *testing.T) {
	v := ParseVerdict("I think this report is excellent overall!")
	if v.IsRelevant || v.IsThorough {
		t.Fatalf("garbage must fail both checks: %+v", v)
	}
}

func TestParseVerdictNonYesWordsAreNo(t *testing.T) {
	v := ParseVerdict("RELEVANCE: MAYBE - hard to say\nTHOROUGHNESS: PARTIALLY - some gaps")
	if v.IsRelevant || v.IsThorough {
		t.Fatalf("only explicit YES passes: %+v", v)
	}
}

func TestParseVerdictSurroundingProse(t *testing.T) {
	text := "Let me assess the report.\n\nRELEVANCE: YES - it answers the question\nSome extra commentary.\nTHOROUGHNESS: NO - thin on evidence\nClosing remarks."
	v := ParseVerdict(text)
	if !v.IsRelevant || v.IsThorough {
		t.Fatalf("verdict: %+v", v)
	}
}
