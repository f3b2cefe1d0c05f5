package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/clarityhq/claritymark/internal/model"
)

// Extraction shape constants. These define the candidate generation
// contract; the 10-rune candidate floor itself lives in the model package
// (model.MinCandidateLen) because the matcher re-checks it independently.
const (
	// PhraseWindow is the number of consecutive tokens joined into one
	// phrase candidate. Five words is long enough to be distinctive and
	// short enough to survive edits near the excerpt boundaries.
	PhraseWindow = 5

	// MinPhraseLen is the minimum phrase candidate length in runes
	// (strictly greater). Five short words joined can be too generic to
	// be a safe literal target.
	MinPhraseLen = 20

	// MinTokenLen is the minimum token length in runes (strictly
	// greater). Drops articles, pronouns, and other two-letter noise
	// before windowing.
	MinTokenLen = 2

	// KeywordMinTokenLen filters tokens for the last-resort candidate
	// (strictly greater). Only content-bearing words qualify.
	KeywordMinTokenLen = 4

	// KeywordCount is the number of long tokens joined into the
	// last-resort candidate.
	KeywordCount = 3
)

// sentenceEndRE splits normalized text on runs of sentence-terminal
// punctuation.
var sentenceEndRE = regexp.MustCompile(`[.!?]+`)

// quoteRunes are the characters recognized as quotation marks when
// unwrapping a quoted excerpt. Apostrophes are deliberately excluded:
// contractions inside a claim would otherwise close the quote early.
const quoteRunes = `"“”«»„`

// trailingCutset is trimmed off the end of the working text: closing
// quotes, ellipses (both the single rune and runs of periods), and
// sentence-final periods left over from the sidebar rendering.
const trailingCutset = quoteRunes + "…."

// Candidates derives the ordered candidate list from raw claim text.
// Empty and whitespace-only input yields nil, as does any input whose
// normalized form is too short to produce a candidate over the floor.
//
// Candidates are emitted sentence tier first, then phrase tier, then the
// single keyword tier; within a tier, left-to-right order is preserved.
// Every emitted candidate is strictly longer than model.MinCandidateLen.
func Candidates(raw string) []model.Candidate {
	text := normalize(raw)
	if text == "" {
		return nil
	}

	var candidates []model.Candidate

	// Tier 1: whole sentences.
	for _, segment := range sentenceEndRE.Split(text, -1) {
		segment = strings.TrimSpace(segment)
		if runeLen(segment) > model.MinCandidateLen {
			candidates = append(candidates, model.Candidate{Text: segment, Tier: model.TierSentence})
		}
	}

	// Tier 2: overlapping five-word phrases over the filtered tokens.
	tokens := contentTokens(text)
	if len(tokens) >= PhraseWindow {
		for i := 0; i+PhraseWindow <= len(tokens); i++ {
			phrase := strings.Join(tokens[i:i+PhraseWindow], " ")
			if runeLen(phrase) > MinPhraseLen {
				candidates = append(candidates, model.Candidate{Text: phrase, Tier: model.TierPhrase})
			}
		}
	}

	// Tier 3: last-resort keyword combination from the same token list.
	// The general candidate floor is the only length guard here; three
	// barely-qualifying tokens joined can still fall under it and are
	// then dropped like any other short candidate.
	var long []string
	for _, tok := range tokens {
		if runeLen(tok) > KeywordMinTokenLen {
			long = append(long, tok)
		}
	}
	if len(long) >= KeywordCount {
		keywords := strings.Join(long[:KeywordCount], " ")
		if runeLen(keywords) > model.MinCandidateLen {
			candidates = append(candidates, model.Candidate{Text: keywords, Tier: model.TierKeywords})
		}
	}

	return candidates
}

// normalize trims the raw text, unwraps a leading quoted excerpt, and
// strips trailing quotes, ellipses, and periods.
func normalize(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	// If the text opens with a quote and contains a closing one, the
	// quoted span is the claim; anything after the closing quote is
	// sidebar commentary and is dropped.
	first, size := utf8.DecodeRuneInString(text)
	if isQuote(first) {
		rest := text[size:]
		if idx := strings.IndexFunc(rest, isQuote); idx >= 0 {
			text = rest[:idx]
		}
	}

	text = strings.TrimRight(text, trailingCutset)
	return strings.TrimSpace(text)
}

// contentTokens splits text on whitespace and drops tokens at or under
// MinTokenLen runes.
func contentTokens(text string) []string {
	var tokens []string
	for _, tok := range strings.Fields(text) {
		if runeLen(tok) > MinTokenLen {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// isQuote reports whether r is a recognized quotation mark.
func isQuote(r rune) bool {
	return strings.ContainsRune(quoteRunes, r)
}

// runeLen returns the length of s in runes. Candidate length limits are
// rune counts so multi-byte text is measured fairly.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
