package model

import "unicode/utf8"

// Tier identifies how a search candidate was derived. Lower values are
// more specific and are tried first during matching.
//
// Design decision: We use iota-based constants rather than string constants
// for efficient ordering comparisons. The String() method provides
// human-readable output for reports and logs.
type Tier int

const (
	// TierSentence candidates are whole sentences from the claim text.
	// These are the most specific targets and match with highest confidence.
	TierSentence Tier = iota

	// TierPhrase candidates are overlapping five-word windows over the
	// claim's tokens. They survive small edits around the quoted excerpt.
	TierPhrase

	// TierKeywords is the single last-resort candidate built from the
	// first three long tokens of the claim.
	TierKeywords
)

// String returns a human-readable representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierSentence:
		return "sentence"
	case TierPhrase:
		return "phrase"
	case TierKeywords:
		return "keywords"
	default:
		return "unknown"
	}
}

// MinCandidateLen is the minimum normalized candidate length, in runes.
// Candidates must be strictly longer to be searchable. This floor is the
// single source of truth: extraction applies it when emitting candidates
// and the engine re-checks it for candidates supplied directly.
const MinCandidateLen = 10

// Candidate is a normalized literal string considered for substring
// matching inside the document. Candidates are transient: they are
// recomputed on every highlight request and never persisted.
type Candidate struct {
	// Text is the literal text to search for, already trimmed.
	Text string `json:"text" yaml:"text"`

	// Tier records how the candidate was derived and its priority.
	Tier Tier `json:"tier" yaml:"tier"`
}

// Searchable reports whether the candidate clears the minimum length
// floor. Length is measured in runes, not bytes, so multi-byte text is
// not penalized.
func (c Candidate) Searchable() bool {
	return utf8.RuneCountInString(c.Text) > MinCandidateLen
}
