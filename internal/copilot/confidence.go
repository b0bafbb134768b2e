package copilot

import "strings"

// Confidence grades how strong the routing signal for a chosen kind was.
// Observational only: it never feeds back into control flow.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Explanation is the telemetry record for one routing decision.
type Explanation struct {
	Kind       Kind       `json:"kind"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason"`
}

// Explain grades the chosen kind for logging and telemetry:
//
//   - high: chosen kind equals the sticky kind, or its content signatures
//     matched the attached content.
//   - medium: its keyword set matched the user text.
//   - low: neither; the cascade fell through to workspace narrowing or the
//     triage default.
//
// Explain re-runs the signature and keyword tests rather than trusting
// Select's return path, so confidence reporting stays correct if Select's
// internals change.
func Explain(reg *Registry, sc SelectionContext, chosen Kind) Explanation {
	if sc.StickyKind != "" && chosen == sc.StickyKind {
		return Explanation{Kind: chosen, Confidence: ConfidenceHigh, Reason: "sticky session kind"}
	}

	if r, ok := reg.Lookup(chosen); ok {
		content := strings.ToLower(strings.Join(sc.AttachedContents, "\n"))
		if strings.TrimSpace(content) != "" && signatureMatch(r, content) {
			return Explanation{Kind: chosen, Confidence: ConfidenceHigh, Reason: "content signature matched attached content"}
		}

		text := strings.ToLower(sc.UserText)
		if strings.TrimSpace(text) != "" && keywordMatch(r, text) {
			return Explanation{Kind: chosen, Confidence: ConfidenceMedium, Reason: "keyword matched user text"}
		}
	}

	return Explanation{Kind: chosen, Confidence: ConfidenceLow, Reason: "no textual signal; workspace narrowing or triage default"}
}
