package highlight

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/clarityhq/claritymark/internal/dom"
	"github.com/clarityhq/claritymark/internal/model"
)

// stubScheduler records scheduled callbacks for manual firing.
type stubScheduler struct {
	mu    sync.Mutex
	tasks []scheduledTask
}

type scheduledTask struct {
	delay time.Duration
	fn    func()
}

func (s *stubScheduler) Schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, scheduledTask{delay: d, fn: fn})
}

// fireAll runs and drains every pending callback.
func (s *stubScheduler) fireAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	for _, task := range tasks {
		task.fn()
	}
}

func (s *stubScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func testPalette() map[string]string {
	return map[string]string{
		"default":    "#fff3a8",
		"suspicious": "#ffd2d2",
	}
}

// newTestEngine parses page HTML, injects chrome, and wires an engine
// with a manual scheduler.
func newTestEngine(t *testing.T, page string) (*Engine, *dom.Document, *stubScheduler) {
	t.Helper()

	doc, err := dom.ParseString(page)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if err := doc.EnsureChrome(testPalette()); err != nil {
		t.Fatalf("EnsureChrome: %v", err)
	}
	sched := &stubScheduler{}
	return New(doc, WithScheduler(sched)), doc, sched
}

func markersIn(doc *dom.Document) []string {
	var texts []string
	for _, m := range doc.ElementsWithAttr(dom.MarkerIDAttr) {
		texts = append(texts, dom.TextContent(m))
	}
	return texts
}

const newsPage = `<html><body>
<h1>Regional markets</h1>
<p>Housing prices fell sharply across the region last year. Analysts were surprised.</p>
<p>Other news was quiet.</p>
</body></html>`

// TestHighlight_Match tests the success path end to end.
func TestHighlight_Match(t *testing.T) {
	t.Parallel()

	engine, doc, sched := newTestEngine(t, newsPage)

	report := engine.Highlight(`"Housing prices fell sharply across the region last year."`, model.VerdictSuspicious)

	if report.Outcome != model.OutcomeMatched {
		t.Fatalf("outcome = %v, expected matched", report.Outcome)
	}
	if report.Matched == nil || report.Matched.Tier != model.TierSentence {
		t.Errorf("expected sentence-tier match, got %+v", report.Matched)
	}
	if report.MarkerCount != 1 {
		t.Errorf("marker count = %d, expected 1", report.MarkerCount)
	}

	marks := doc.ElementsWithAttr(dom.MarkerIDAttr)
	if len(marks) != 1 {
		t.Fatalf("expected 1 marker in document, got %d", len(marks))
	}
	mark := marks[0]
	if got := dom.TextContent(mark); got != "Housing prices fell sharply across the region last year" {
		t.Errorf("marker text = %q", got)
	}
	if v, _ := dom.Attr(mark, dom.VerdictAttr); v != "suspicious" {
		t.Errorf("verdict attr = %q", v)
	}
	if id, _ := dom.Attr(mark, dom.MarkerIDAttr); id != "1" {
		t.Errorf("marker id = %q, expected %q", id, "1")
	}
	if !dom.HasClass(mark, dom.MarkerClass) || !dom.HasClass(mark, dom.MarkerClassPrefix+"suspicious") {
		t.Errorf("marker classes wrong: %v", mark.Attr)
	}

	// Affordance revealed, scroll script targets the first marker.
	button := doc.ElementByID(dom.ClearButtonID)
	if _, hidden := dom.Attr(button, "hidden"); hidden {
		t.Error("clear button still hidden after match")
	}
	script := doc.ElementByID(dom.ScrollScriptID)
	if script == nil {
		t.Fatal("scroll script missing after match")
	}
	if !strings.Contains(dom.TextContent(script), `[data-clarity-id="1"]`) {
		t.Errorf("scroll script does not target first marker: %s", dom.TextContent(script))
	}

	// Pulse applied now, expires via the scheduler.
	if !dom.HasClass(mark, dom.PulseClass) {
		t.Error("first marker missing pulse class")
	}
	sched.fireAll()
	if dom.HasClass(mark, dom.PulseClass) {
		t.Error("pulse class survived its scheduled expiry")
	}
}

// TestHighlight_AtMostOneMatch tests that with the search text present
// in three nodes, exactly one marker is created.
func TestHighlight_AtMostOneMatch(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<p>The dam was never inspected by anyone.</p>
<p>Again: the dam was never inspected by anyone.</p>
<p>And once more, the dam was never inspected by anyone.</p>
</body></html>`
	engine, doc, _ := newTestEngine(t, page)

	report := engine.Highlight("the dam was never inspected by anyone", model.VerdictContradicted)

	if report.Outcome != model.OutcomeMatched {
		t.Fatalf("outcome = %v, expected matched", report.Outcome)
	}
	if got := len(doc.ElementsWithAttr(dom.MarkerIDAttr)); got != 1 {
		t.Errorf("expected exactly 1 marker across the page, got %d", got)
	}
}

// TestHighlight_AllOccurrencesWithinNode tests that every occurrence
// inside the single matched node is wrapped.
func TestHighlight_AllOccurrencesWithinNode(t *testing.T) {
	t.Parallel()

	page := `<html><body><p>miracle cure found, the miracle cure found again, truly miracle cure found</p></body></html>`
	engine, doc, _ := newTestEngine(t, page)

	report := engine.Highlight("miracle cure found", model.VerdictSuspicious)

	if report.MarkerCount != 3 {
		t.Errorf("marker count = %d, expected 3", report.MarkerCount)
	}
	if got := len(doc.ElementsWithAttr(dom.MarkerIDAttr)); got != 3 {
		t.Errorf("markers in document = %d, expected 3", got)
	}
	// Sequential ids in left-to-right order.
	for i, m := range doc.ElementsWithAttr(dom.MarkerIDAttr) {
		want := []string{"1", "2", "3"}[i]
		if id, _ := dom.Attr(m, dom.MarkerIDAttr); id != want {
			t.Errorf("marker %d id = %q, expected %q", i, id, want)
		}
	}
}

// TestHighlight_CaseInsensitive tests matching across casing while
// preserving the document's original casing in markers.
func TestHighlight_CaseInsensitive(t *testing.T) {
	t.Parallel()

	page := `<html><body><p>OFFICIALS CONCEALED THE REPORT FOR MONTHS</p></body></html>`
	engine, doc, _ := newTestEngine(t, page)

	report := engine.Highlight("officials concealed the report for months", model.VerdictVerified)

	if report.Outcome != model.OutcomeMatched {
		t.Fatalf("outcome = %v, expected matched", report.Outcome)
	}
	if got := markersIn(doc); len(got) != 1 || got[0] != "OFFICIALS CONCEALED THE REPORT FOR MONTHS" {
		t.Errorf("marker text = %v, expected original casing preserved", got)
	}
}

// TestHighlight_LiteralMetacharacters tests that regex metacharacters
// in claims are matched literally.
func TestHighlight_LiteralMetacharacters(t *testing.T) {
	t.Parallel()

	page := `<html><body><p>Prices rose by $5 (exactly) last week according to the report.</p></body></html>`
	engine, doc, _ := newTestEngine(t, page)

	report := engine.Highlight("Prices rose by $5 (exactly) last week", model.VerdictPlausible)

	if report.Outcome != model.OutcomeMatched {
		t.Fatalf("outcome = %v, expected matched", report.Outcome)
	}
	if got := len(doc.ElementsWithAttr(dom.MarkerIDAttr)); got != 1 {
		t.Errorf("expected 1 marker, got %d", got)
	}
}

// TestHighlight_CandidateFallback tests tier fallback: when the full
// sentence is absent, an overlapping phrase still matches.
func TestHighlight_CandidateFallback(t *testing.T) {
	t.Parallel()

	// The page carries a reworded fragment: only a five-word window of
	// the claim survives verbatim.
	page := `<html><body><p>Sources say banks collapse imminent withdraw savings as soon as possible.</p></body></html>`
	engine, _, _ := newTestEngine(t, page)

	report := engine.Highlight("Breaking banks collapse imminent withdraw savings immediately now", model.VerdictSuspicious)

	if report.Outcome != model.OutcomeMatched {
		t.Fatalf("outcome = %v, expected matched", report.Outcome)
	}
	if report.Matched.Tier != model.TierPhrase {
		t.Errorf("matched tier = %v, expected phrase fallback", report.Matched.Tier)
	}
}

// TestHighlight_SelfExclusion tests that text living only inside the
// engine's own chrome is never matched.
func TestHighlight_SelfExclusion(t *testing.T) {
	t.Parallel()

	page := `<html><body><p>unrelated page content</p></body></html>`
	engine, doc, _ := newTestEngine(t, page)

	// Plant the claim inside the chrome root only.
	root := doc.ChromeRoot()
	planted := dom.NewElement("p")
	planted.AppendChild(dom.NewText("Housing prices fell sharply across the region last year."))
	root.AppendChild(planted)

	report := engine.Highlight("Housing prices fell sharply across the region last year.", model.VerdictSuspicious)

	if report.Outcome != model.OutcomeNoMatch {
		t.Fatalf("outcome = %v, expected no_match", report.Outcome)
	}
	if got := len(doc.ElementsWithAttr(dom.MarkerIDAttr)); got != 0 {
		t.Errorf("expected no markers, got %d", got)
	}
}

// TestHighlight_UnknownVerdict tests that an unknown category still
// creates a marker with a derived class, falling back to default style.
func TestHighlight_UnknownVerdict(t *testing.T) {
	t.Parallel()

	engine, doc, _ := newTestEngine(t, newsPage)

	report := engine.Highlight("Housing prices fell sharply across the region last year", model.Verdict("totally-unknown-category"))

	if report.Outcome != model.OutcomeMatched {
		t.Fatalf("outcome = %v, expected matched", report.Outcome)
	}
	mark := doc.ElementsWithAttr(dom.MarkerIDAttr)[0]
	if !dom.HasClass(mark, dom.MarkerClass) {
		t.Error("marker missing base class")
	}
	if !dom.HasClass(mark, dom.MarkerClassPrefix+"totally-unknown-category") {
		t.Error("marker missing category-derived class")
	}
	if v, _ := dom.Attr(mark, dom.VerdictAttr); v != "totally-unknown-category" {
		t.Errorf("verdict attr = %q", v)
	}
}

// TestHighlight_NoMatch tests the soft-failure path: zero markers, one
// transient toast, scheduled dismissal.
func TestHighlight_NoMatch(t *testing.T) {
	t.Parallel()

	engine, doc, sched := newTestEngine(t, newsPage)

	report := engine.Highlight("this exact phrasing appears nowhere in the document", model.VerdictSuspicious)

	if report.Outcome != model.OutcomeNoMatch {
		t.Fatalf("outcome = %v, expected no_match", report.Outcome)
	}
	if got := len(doc.ElementsWithAttr(dom.MarkerIDAttr)); got != 0 {
		t.Errorf("expected no markers, got %d", got)
	}

	var toasts int
	for _, n := range doc.ElementsWithAttr("class") {
		if dom.HasClass(n, dom.ToastClass) {
			toasts++
			if got := dom.TextContent(n); got != NoMatchMessage {
				t.Errorf("toast text = %q", got)
			}
		}
	}
	if toasts != 1 {
		t.Fatalf("expected exactly 1 toast, got %d", toasts)
	}

	if sched.pending() == 0 {
		t.Fatal("expected a scheduled toast dismissal")
	}
	sched.fireAll()
	for _, n := range doc.ElementsWithAttr("class") {
		if dom.HasClass(n, dom.ToastClass) {
			t.Error("toast survived its scheduled dismissal")
		}
	}
}

// TestHighlight_NoCandidates tests degenerate input: treated as a
// no-match, never a failure.
func TestHighlight_NoCandidates(t *testing.T) {
	t.Parallel()

	engine, doc, _ := newTestEngine(t, newsPage)

	for _, claim := range []string{"", "   ", "too short"} {
		report := engine.Highlight(claim, model.VerdictSuspicious)
		if report.Outcome != model.OutcomeNoCandidates {
			t.Errorf("Highlight(%q) outcome = %v, expected no_candidates", claim, report.Outcome)
		}
	}
	if got := len(doc.ElementsWithAttr(dom.MarkerIDAttr)); got != 0 {
		t.Errorf("expected no markers, got %d", got)
	}
}

// TestClear_RoundTrip tests that highlight followed by clear restores
// the visible text exactly and hides the affordance.
func TestClear_RoundTrip(t *testing.T) {
	t.Parallel()

	engine, doc, _ := newTestEngine(t, newsPage)
	before := doc.VisibleText()

	report := engine.Highlight("Housing prices fell sharply across the region last year", model.VerdictSuspicious)
	if report.Outcome != model.OutcomeMatched {
		t.Fatalf("outcome = %v, expected matched", report.Outcome)
	}

	// Marking must not change the visible text at all.
	if got := doc.VisibleText(); got != before {
		t.Errorf("visible text changed by highlight:\nbefore: %q\nafter:  %q", before, got)
	}

	engine.Clear()

	if got := doc.VisibleText(); got != before {
		t.Errorf("visible text changed by round trip:\nbefore: %q\nafter:  %q", before, got)
	}
	if got := len(doc.ElementsWithAttr(dom.MarkerIDAttr)); got != 0 {
		t.Errorf("markers remain after clear: %d", got)
	}
	button := doc.ElementByID(dom.ClearButtonID)
	if _, hidden := dom.Attr(button, "hidden"); !hidden {
		t.Error("clear button not hidden after clear")
	}
	if engine.ActiveMarkers() != 0 {
		t.Errorf("session still tracks %d markers", engine.ActiveMarkers())
	}
}

// TestClear_Idempotent tests that clearing twice equals clearing once.
func TestClear_Idempotent(t *testing.T) {
	t.Parallel()

	engine, doc, _ := newTestEngine(t, newsPage)
	engine.Highlight("Housing prices fell sharply across the region last year", model.VerdictSuspicious)

	engine.Clear()
	once, err := doc.HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}

	engine.Clear()
	twice, err := doc.HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}

	if once != twice {
		t.Error("second clear changed the document")
	}
}

// TestClear_SweepsOrphans tests the orphan sweep: markers not
// tracked by the session are still removed.
func TestClear_SweepsOrphans(t *testing.T) {
	t.Parallel()

	page := `<html><body><p>before <mark class="clarity-mark" data-clarity-id="99">orphaned</mark> after</p></body></html>`
	engine, doc, _ := newTestEngine(t, page)

	engine.Clear()

	if got := len(doc.ElementsWithAttr(dom.MarkerIDAttr)); got != 0 {
		t.Errorf("orphan marker survived clear: %d", got)
	}
	if !strings.Contains(doc.VisibleText(), "before orphaned after") {
		t.Errorf("orphan text not restored: %q", doc.VisibleText())
	}
}

// TestHighlight_SequentialCalls tests that a second highlight replaces
// the first entirely and the id sequence restarts.
func TestHighlight_SequentialCalls(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<p>The lake dried up overnight without any warning.</p>
<p>Officials concealed the report for months on end.</p>
</body></html>`
	engine, doc, _ := newTestEngine(t, page)

	first := engine.Highlight("The lake dried up overnight without any warning", model.VerdictSuspicious)
	if first.Outcome != model.OutcomeMatched {
		t.Fatalf("first outcome = %v", first.Outcome)
	}

	second := engine.Highlight("Officials concealed the report for months on end", model.VerdictVerified)
	if second.Outcome != model.OutcomeMatched {
		t.Fatalf("second outcome = %v", second.Outcome)
	}

	marks := doc.ElementsWithAttr(dom.MarkerIDAttr)
	if len(marks) != 1 {
		t.Fatalf("expected only the second call's marker, got %d", len(marks))
	}
	if got := dom.TextContent(marks[0]); !strings.Contains(got, "Officials concealed") {
		t.Errorf("surviving marker is not from the second call: %q", got)
	}
	if id, _ := dom.Attr(marks[0], dom.MarkerIDAttr); id != "1" {
		t.Errorf("id sequence did not restart, got %q", id)
	}
}

// TestHighlight_MissingChrome tests degradation when the chrome was
// never injected: matching still works, effects are skipped silently.
func TestHighlight_MissingChrome(t *testing.T) {
	t.Parallel()

	doc, err := dom.ParseString(newsPage)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	engine := New(doc, WithScheduler(&stubScheduler{}))

	report := engine.Highlight("Housing prices fell sharply across the region last year", model.VerdictSuspicious)

	if report.Outcome != model.OutcomeMatched {
		t.Fatalf("outcome = %v, expected matched despite missing chrome", report.Outcome)
	}
	if got := len(doc.ElementsWithAttr(dom.MarkerIDAttr)); got != 1 {
		t.Errorf("expected 1 marker, got %d", got)
	}
}
