package copilot

import (
	"regexp"
	"strings"
)

// relationalShapeRe is a loose "select … from …" test. It gates
// DialectKeywords so that shared SQL vocabulary in plain prose does not pull
// a turn toward one dialect.
var relationalShapeRe = regexp.MustCompile(`(?s)\bselect\b.+\bfrom\b`)

// Select deterministically picks one capability kind for a turn, or
// KindTriage. It never fails: an unclassifiable turn gets the generic
// dispatcher, not an error.
//
// The cascade, first match wins:
//
//  1. Sticky session kind: continuity outranks re-classification.
//  2. Attached-content signatures, in registry order. Executable-looking
//     content is a stronger signal than prose.
//  3. Free-text keywords, in registry order. DialectKeywords additionally
//     require a relational query shape in the text.
//  4. Workspace narrowing: a single configured capability wins by default.
//  5. KindTriage.
//
// Ties between overlapping keyword sets are resolved by registry order only.
func Select(reg *Registry, sc SelectionContext) Kind {
	if sc.StickyKind != "" {
		return sc.StickyKind
	}

	if kind, ok := matchContentSignatures(reg, sc.AttachedContents); ok {
		return kind
	}

	if kind, ok := matchUserText(reg, sc.UserText); ok {
		return kind
	}

	if kind, ok := soleCapability(sc.WorkspaceCapabilities); ok {
		return kind
	}

	return KindTriage
}

// matchContentSignatures tests the concatenated attached content against each
// registration's signature set in registry order.
func matchContentSignatures(reg *Registry, attached []string) (Kind, bool) {
	content := strings.ToLower(strings.Join(attached, "\n"))
	if strings.TrimSpace(content) == "" {
		return "", false
	}
	for _, r := range reg.All() {
		if signatureMatch(r, content) {
			return r.Kind, true
		}
	}
	return "", false
}

// matchUserText tests the lowercased user text against each registration's
// keyword sets in registry order.
func matchUserText(reg *Registry, userText string) (Kind, bool) {
	text := strings.ToLower(userText)
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, r := range reg.All() {
		if keywordMatch(r, text) {
			return r.Kind, true
		}
	}
	return "", false
}

// soleCapability returns the workspace's capability when exactly one distinct
// non-triage kind is configured.
func soleCapability(caps []Kind) (Kind, bool) {
	var sole Kind
	for _, k := range caps {
		if k == "" || k == KindTriage {
			continue
		}
		if sole == "" {
			sole = k
			continue
		}
		if k != sole {
			return "", false
		}
	}
	return sole, sole != ""
}

// signatureMatch reports whether any of the registration's content signatures
// occur in the lowercased content.
func signatureMatch(r *Registration, loweredContent string) bool {
	for _, sig := range r.ContentSignatures {
		if sig != "" && strings.Contains(loweredContent, sig) {
			return true
		}
	}
	return false
}

// keywordMatch reports whether the lowercased user text matches the
// registration's keywords, or its dialect keywords when a relational query
// shape co-occurs.
func keywordMatch(r *Registration, loweredText string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(loweredText, kw) {
			return true
		}
	}
	if len(r.DialectKeywords) > 0 && relationalShapeRe.MatchString(loweredText) {
		for _, kw := range r.DialectKeywords {
			if kw != "" && strings.Contains(loweredText, kw) {
				return true
			}
		}
	}
	return false
}
