package highlight

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/clarityhq/claritymark/internal/dom"
	"github.com/clarityhq/claritymark/internal/extract"
	"github.com/clarityhq/claritymark/internal/model"
)

// Timing defaults for the transient effects.
const (
	// DefaultScrollDelay is the client-side pause before scrolling to
	// the first marker, giving layout a chance to paint it first.
	DefaultScrollDelay = 100 * time.Millisecond

	// DefaultPulseDuration is how long the first marker keeps the pulse
	// class before the engine restores its steady-state style.
	DefaultPulseDuration = 1500 * time.Millisecond

	// DefaultNotifyDuration is how long the no-match toast stays up.
	DefaultNotifyDuration = 3 * time.Second
)

// NoMatchMessage is the transient notification shown when no candidate
// matches anywhere in the document.
const NoMatchMessage = "No matching text found on this page"

// Engine locates and marks claim text inside one document. Create one
// Engine per document; the engine and the session it owns live as long
// as the document does.
//
// Design decision: The session (active markers, id counter) is owned by
// the Engine instance rather than kept in package-level state. Ambient
// globals would make two documents in one process trample each other's
// counters; constructor injection keeps each document's lifecycle
// independent and testable.
type Engine struct {
	// doc is the live document tree the engine reads and rewrites.
	doc *dom.Document

	// sched defers the self-expiring effects (pulse removal, toast
	// dismissal).
	sched Scheduler

	// logger for structured logging.
	logger *slog.Logger

	// scrollDelay, pulseFor, notifyFor tune the transient effects.
	scrollDelay time.Duration
	pulseFor    time.Duration
	notifyFor   time.Duration

	// mu serializes Highlight, Clear, and scheduled callbacks. The
	// engine contract is single-threaded cooperative; the mutex keeps
	// that contract honest when the TimerScheduler fires callbacks on
	// their own goroutines.
	mu sync.Mutex

	// activeMarks holds non-owning references to inserted markers, in
	// creation order. The document tree owns the nodes.
	activeMarks []*html.Node

	// markCounter assigns each marker a unique sequential id. It only
	// resets when the session is cleared.
	markCounter int
}

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler sets the scheduler for transient effects.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		e.sched = s
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithScrollDelay sets the pre-scroll layout delay.
func WithScrollDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.scrollDelay = d
	}
}

// WithPulseDuration sets how long the pulse effect lasts.
func WithPulseDuration(d time.Duration) Option {
	return func(e *Engine) {
		e.pulseFor = d
	}
}

// WithNotifyDuration sets how long the no-match toast stays visible.
func WithNotifyDuration(d time.Duration) Option {
	return func(e *Engine) {
		e.notifyFor = d
	}
}

// New creates an Engine operating on the given document.
func New(doc *dom.Document, opts ...Option) *Engine {
	e := &Engine{
		doc:         doc,
		sched:       TimerScheduler{},
		logger:      slog.Default(),
		scrollDelay: DefaultScrollDelay,
		pulseFor:    DefaultPulseDuration,
		notifyFor:   DefaultNotifyDuration,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Document returns the document the engine operates on.
func (e *Engine) Document() *dom.Document {
	return e.doc
}

// ActiveMarkers returns the number of markers in the current session.
func (e *Engine) ActiveMarkers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.activeMarks)
}

// Highlight clears any previous session, derives search candidates from
// the claim, and marks the first candidate found in the document's
// visible text. Exactly one text node is ever rewritten per call.
//
// The outcome is reported, never returned as an error: a claim that
// matches nothing surfaces a transient toast and leaves the document
// otherwise as the entry clear left it.
func (e *Engine) Highlight(claim string, verdict model.Verdict) *model.RunReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := model.NewRunReport("", claim, verdict)
	defer func() {
		report.Duration = time.Since(report.StartedAt)
	}()

	// Only one request's worth of markers is ever visible: every
	// highlight starts from a clean session.
	e.clearLocked()

	candidates := extract.Candidates(claim)
	report.Candidates = candidates
	if len(candidates) == 0 {
		report.Outcome = model.OutcomeNoCandidates
		e.logger.Debug("no usable candidates", "claim", claim)
		e.notifyLocked()
		return report
	}

	// Snapshot before any mutation so the rewrite cannot invalidate an
	// in-progress traversal.
	nodes := e.doc.TextNodes()

	for i := range candidates {
		candidate := &candidates[i]
		// Floor re-checked here: candidates may be handed to the
		// matcher directly, not only via extraction.
		if !candidate.Searchable() {
			continue
		}
		needle := strings.ToLower(candidate.Text)
		for _, node := range nodes {
			if !strings.Contains(strings.ToLower(node.Data), needle) {
				continue
			}

			// First hit for the first viable candidate wins; no
			// further nodes or candidates are tried.
			markers := e.markNodeLocked(node, candidate.Text, verdict)
			if len(markers) == 0 {
				// Containment was established above, so this is
				// unreachable in practice; tolerated as a no-op.
				report.Outcome = model.OutcomeNoMatch
				e.notifyLocked()
				return report
			}

			report.Matched = candidate
			report.MarkerCount = len(markers)
			report.Outcome = model.OutcomeMatched
			e.logger.Debug("claim highlighted",
				"candidate", candidate.Text,
				"tier", candidate.Tier.String(),
				"markers", len(markers),
			)
			e.revealLocked(markers[0])
			return report
		}
	}

	report.Outcome = model.OutcomeNoMatch
	e.logger.Debug("no candidate matched", "claim", claim, "candidates", len(candidates))
	e.notifyLocked()
	return report
}

// Clear removes every marker from the document, restores the original
// text runs, and resets the session. Idempotent: clearing an empty
// session only re-hides the affordance, which is itself safe when
// already hidden.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()
}

// clearLocked implements Clear. Callers must hold e.mu.
func (e *Engine) clearLocked() {
	// Sweep by attribute rather than trusting activeMarks: orphans
	// from a previous session or external interference get cleaned up
	// too.
	markers := e.doc.ElementsWithAttr(dom.MarkerIDAttr)
	for _, marker := range markers {
		parent := marker.Parent
		dom.Unwrap(marker)
		if parent != nil {
			dom.MergeTextNodes(parent)
		}
	}

	e.doc.ClearScrollTarget()
	e.activeMarks = nil
	e.markCounter = 0

	if !e.doc.SetClearButtonHidden(true) {
		e.logger.Debug("clear affordance missing, skipping hide")
	}
}

// markNodeLocked wraps every occurrence of candidate inside the one
// text node with tagged markers and records them in the session.
// Callers must hold e.mu.
func (e *Engine) markNodeLocked(node *html.Node, candidate string, verdict model.Verdict) []*html.Node {
	// The candidate is literal user text, not a pattern: escaping every
	// metacharacter before compilation is a correctness requirement.
	pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(candidate))

	slug := verdict.Slug()
	markers := dom.WrapMatches(node, pattern, func(match string) *html.Node {
		e.markCounter++
		marker := dom.NewElement("mark",
			html.Attribute{Key: "class", Val: dom.MarkerClass + " " + dom.MarkerClassPrefix + slug},
			html.Attribute{Key: dom.VerdictAttr, Val: string(verdict)},
			html.Attribute{Key: dom.MarkerIDAttr, Val: strconv.Itoa(e.markCounter)},
		)
		marker.AppendChild(dom.NewText(match))
		return marker
	})

	e.activeMarks = append(e.activeMarks, markers...)
	return markers
}

// revealLocked runs the post-match effects: show the clear affordance,
// point the scroll script at the first marker, and pulse it, scheduling
// the pulse's expiry. Callers must hold e.mu.
func (e *Engine) revealLocked(first *html.Node) {
	if !e.doc.SetClearButtonHidden(false) {
		e.logger.Debug("clear affordance missing, skipping show")
	}

	id, _ := dom.Attr(first, dom.MarkerIDAttr)
	if markerID, err := strconv.Atoi(id); err == nil {
		e.doc.SetScrollTarget(markerID, e.scrollDelay)
	}

	dom.AddClass(first, dom.PulseClass)
	e.sched.Schedule(e.pulseFor, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		// The pulse is scoped to this node; if a newer cycle replaced
		// it, the node is detached and this is a harmless no-op.
		dom.RemoveClass(first, dom.PulseClass)
	})
}

// notifyLocked surfaces the no-match toast and schedules its dismissal.
// Callers must hold e.mu.
func (e *Engine) notifyLocked() {
	toast := e.doc.ShowToast(NoMatchMessage, e.notifyFor)
	if toast == nil {
		e.logger.Debug("chrome missing, no-match toast skipped")
		return
	}
	e.sched.Schedule(e.notifyFor, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		dom.Remove(toast)
	})
}
