package model

import "time"

// Outcome classifies the result of a highlight run.
type Outcome string

const (
	// OutcomeMatched means a candidate was found and markers were inserted.
	OutcomeMatched Outcome = "matched"

	// OutcomeNoMatch means every candidate was searched and none occurred
	// in any eligible text node.
	OutcomeNoMatch Outcome = "no_match"

	// OutcomeNoCandidates means extraction yielded zero usable targets.
	// Treated identically to OutcomeNoMatch by the user-facing surface.
	OutcomeNoCandidates Outcome = "no_candidates"
)

// RunReport records everything observable about a single highlight run:
// the claim, the verdict, the candidates that were generated, which one
// matched (if any), and how many markers were created.
//
// Design decision: The engine returns a RunReport rather than a bare bool
// because the CLI, the HTTP API, the report writers, and the run history
// all consume the same record. Failure outcomes are encoded in Outcome,
// not as errors: per the engine contract a failed search is a soft,
// user-visible event, never an exception path.
type RunReport struct {
	// Source identifies the document: a file path, a URL, or "stdin".
	Source string `json:"source"`

	// Claim is the raw claim or threat excerpt as supplied by the caller.
	Claim string `json:"claim"`

	// Verdict is the classification label supplied with the claim.
	Verdict Verdict `json:"verdict"`

	// Candidates lists every search target generated from the claim,
	// in the priority order they were tried.
	Candidates []Candidate `json:"candidates"`

	// Matched is the candidate that produced the highlight, or nil.
	Matched *Candidate `json:"matched,omitempty"`

	// MarkerCount is the number of marker nodes inserted. Multiple
	// occurrences inside the one matched text node each get a marker.
	MarkerCount int `json:"marker_count"`

	// Outcome classifies the run result.
	Outcome Outcome `json:"outcome"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total run time, including document loading when
	// the run went through the pipeline.
	Duration time.Duration `json:"duration"`

	// Error holds a non-engine failure (fetch error, parse error) when
	// the run never reached the engine. Empty for engine outcomes.
	Error string `json:"error,omitempty"`
}

// NewRunReport creates a RunReport for the given claim and verdict with
// the start time set to now.
func NewRunReport(source, claim string, verdict Verdict) *RunReport {
	return &RunReport{
		Source:    source,
		Claim:     claim,
		Verdict:   verdict,
		Outcome:   OutcomeNoCandidates,
		StartedAt: time.Now(),
	}
}

// Found reports whether the run produced at least one marker.
func (r *RunReport) Found() bool {
	return r.Outcome == OutcomeMatched
}
