package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Verdict is the fact-check or threat classification label attached to a
// highlight request. It selects the visual style of the inserted markers.
//
// Design decision: We use a string type rather than iota constants because
// callers may supply free-form threat categories (e.g. "phishing",
// "brand_impersonation") in addition to the fixed fact-check set. Unknown
// labels are accepted and fall back to the default marker style.
type Verdict string

// Fact-check verdicts produced by the analysis backend.
const (
	// VerdictSuspicious marks claims that contradict known facts.
	VerdictSuspicious Verdict = "suspicious"

	// VerdictSupported marks claims with supporting evidence.
	VerdictSupported Verdict = "supported"

	// VerdictPlausible marks claims with no contradicting evidence.
	VerdictPlausible Verdict = "plausible"

	// VerdictContradicted marks claims directly refuted by evidence.
	VerdictContradicted Verdict = "contradicted"

	// VerdictVerified marks claims confirmed against trusted sources.
	VerdictVerified Verdict = "verified"
)

// DefaultSlug is the style slug used when a verdict yields no usable slug.
const DefaultSlug = "default"

// knownVerdicts is the fixed fact-check set. Labels outside this set are
// treated as caller-supplied threat categories.
var knownVerdicts = map[Verdict]bool{
	VerdictSuspicious:   true,
	VerdictSupported:    true,
	VerdictPlausible:    true,
	VerdictContradicted: true,
	VerdictVerified:     true,
}

// titleCaser formats verdict display names. Created once because
// cases.Caser carries internal state and construction is not free.
var titleCaser = cases.Title(language.English)

// Known reports whether v is one of the fixed fact-check verdicts.
func (v Verdict) Known() bool {
	return knownVerdicts[v]
}

// Slug returns the CSS class suffix derived from the verdict label.
// The label is lowercased and every run of non-alphanumeric characters is
// collapsed to a single hyphen. An empty or fully non-alphanumeric label
// yields DefaultSlug.
//
// This mapping is part of the engine's style contract: collaborators key
// their stylesheets off "clarity-mark--<slug>" class names.
func (v Verdict) Slug() string {
	var sb strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(string(v))) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = sb.Len() > 0
			continue
		}
		if pendingHyphen {
			sb.WriteByte('-')
			pendingHyphen = false
		}
		sb.WriteRune(r)
	}
	if sb.Len() == 0 {
		return DefaultSlug
	}
	return sb.String()
}

// DisplayName returns a human-readable form of the verdict for reports,
// e.g. "suspicious" -> "Suspicious", "brand_impersonation" ->
// "Brand Impersonation".
func (v Verdict) DisplayName() string {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return "Unknown"
	}
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return titleCaser.String(s)
}
