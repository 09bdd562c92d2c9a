package evaluate

import "strings"

// Verdict is the parsed form of an evaluator response.
type Verdict struct {
	IsRelevant bool
	IsThorough bool
	Reason     string
}

const (
	relevanceMarker    = "RELEVANCE:"
	thoroughnessMarker = "THOROUGHNESS:"
)

// ParseVerdict extracts the two yes/no judgments from model text. The parser
// is tolerant: markers match case-insensitively anywhere in the response, and
// anything other than an explicit YES counts as NO. A missing marker is a NO
// with a note in the reason, so malformed evaluator output can only hold a
// report back, never wave it through.
func ParseVerdict(text string) Verdict {
	v := Verdict{}
	reasons := make([]string, 0, 2)

	rel, relReason, relFound := findMarker(text, relevanceMarker)
	if relFound {
		v.IsRelevant = rel
		if relReason != "" {
			reasons = append(reasons, "relevance: "+relReason)
		}
	} else {
		reasons = append(reasons, "relevance: no RELEVANCE marker in evaluator response")
	}

	thor, thorReason, thorFound := findMarker(text, thoroughnessMarker)
	if thorFound {
		v.IsThorough = thor
		if thorReason != "" {
			reasons = append(reasons, "thoroughness: "+thorReason)
		}
	} else {
		reasons = append(reasons, "thoroughness: no THOROUGHNESS marker in evaluator response")
	}

	v.Reason = strings.Join(reasons, "; ")
	return v
}

// findMarker locates marker (case-insensitive), reads its YES/NO, and
// captures the trailing explanation up to the next marker or end of text.
func findMarker(text, marker string) (yes bool, reason string, found bool) {
	upper := strings.ToUpper(text)
	i := strings.Index(upper, marker)
	if i < 0 {
		return false, "", false
	}
	rest := text[i+len(marker):]
	if j := nextMarkerIndex(strings.ToUpper(rest)); j >= 0 {
		rest = rest[:j]
	}
	rest = strings.TrimSpace(rest)

	verdictWord := rest
	if k := strings.IndexAny(rest, " \t\n-:,."); k >= 0 {
		verdictWord = rest[:k]
		reason = strings.TrimSpace(strings.TrimLeft(rest[k:], " \t-:,."))
	}
	return strings.EqualFold(strings.TrimSpace(verdictWord), "YES"), strings.TrimSpace(reason), true
}

func nextMarkerIndex(upper string) int {
	best := -1
	for _, m := range []string{relevanceMarker, thoroughnessMarker} {
		if i := strings.Index(upper, m); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}
