package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/clarityhq/claritymark/internal/database"
	"github.com/clarityhq/claritymark/internal/fetch"
	"github.com/clarityhq/claritymark/internal/model"
)

const testPage = `<html><head><title>News</title></head><body>
<p>Housing prices fell sharply across the region last year.</p>
<p>Other unrelated reporting.</p>
</body></html>`

// newTestPipeline assembles the standard run pipeline without history.
func newTestPipeline(fetcher *fetch.Fetcher, stdin string) *Pipeline {
	p := New()
	p.AddSteps(
		NewLoadStep(fetcher, WithStdin(strings.NewReader(stdin))),
		NewChromeStep(nil),
		NewHighlightStep(),
		NewRenderStep(nil),
	)
	return p
}

// TestPipelineEndToEnd tests a full run from stdin to rendered HTML.
func TestPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(fetch.New(), testPage)
	job := NewJob(StdinSource, `"Housing prices fell sharply across the region last year."`, model.VerdictContradicted)

	if err := p.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if job.Report.Outcome != model.OutcomeMatched {
		t.Fatalf("outcome = %s, expected matched", job.Report.Outcome)
	}
	for _, want := range []string{
		`class="clarity-mark clarity-mark--contradicted"`,
		`id="clarity-highlight-root"`,
		`id="clarity-highlight-style"`,
		"clarity-pulse",
	} {
		if !strings.Contains(job.HTML, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
	if job.Report.Duration <= 0 {
		t.Error("duration not recorded")
	}
}

// TestLoadStepFile tests loading HTML and Markdown files from disk.
func TestLoadStepFile(t *testing.T) {
	t.Parallel()

	t.Run("html file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "page.html")
		if err := os.WriteFile(path, []byte(testPage), 0600); err != nil {
			t.Fatal(err)
		}

		job := NewJob(path, "claim", model.VerdictSuspicious)
		if err := NewLoadStep(fetch.New()).Do(context.Background(), job); err != nil {
			t.Fatalf("Do: %v", err)
		}
		if job.Doc == nil || !strings.Contains(job.Doc.VisibleText(), "Housing prices fell sharply") {
			t.Error("document not loaded from file")
		}
	})

	t.Run("markdown file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "analysis.md")
		content := "# Analysis\n\nHousing prices fell sharply across the region last year.\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		job := NewJob(path, "claim", model.VerdictSuspicious)
		if err := NewLoadStep(fetch.New()).Do(context.Background(), job); err != nil {
			t.Fatalf("Do: %v", err)
		}
		if job.Doc == nil {
			t.Fatal("document not loaded")
		}
		text := job.Doc.VisibleText()
		if !strings.Contains(text, "Housing prices fell sharply") {
			t.Error("markdown body not converted")
		}
		if strings.Contains(text, "# Analysis") {
			t.Error("markdown heading not converted to HTML")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		job := NewJob(filepath.Join(t.TempDir(), "nope.html"), "claim", model.VerdictSuspicious)
		if err := NewLoadStep(fetch.New()).Do(context.Background(), job); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

// TestLoadStepURL tests URL loading through the page cache.
func TestLoadStepURL(t *testing.T) {
	t.Parallel()

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	hdb, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer hdb.Close()

	step := NewLoadStep(fetch.New(), WithHistory(hdb, time.Hour))

	// First load goes to the network and populates the cache.
	job := NewJob(srv.URL, "claim", model.VerdictSuspicious)
	if err := step.Do(context.Background(), job); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if hits != 1 {
		t.Fatalf("hits = %d after first load", hits)
	}

	// Second load is served from the cache.
	job2 := NewJob(srv.URL, "claim", model.VerdictSuspicious)
	if err := step.Do(context.Background(), job2); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if hits != 1 {
		t.Errorf("hits = %d, expected cache to absorb second load", hits)
	}
	if job2.Doc == nil || !strings.Contains(job2.Doc.VisibleText(), "Housing prices fell sharply") {
		t.Error("cached document not parsed")
	}
}

// TestPersistStep tests run persistence and the nil-history no-op.
func TestPersistStep(t *testing.T) {
	t.Parallel()

	t.Run("saves run", func(t *testing.T) {
		t.Parallel()

		hdb, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer hdb.Close()

		job := NewJob("stdin", "some claim text", model.VerdictSuspicious)
		job.Report.Outcome = model.OutcomeNoMatch

		if err := NewPersistStep(hdb, nil).Do(context.Background(), job); err != nil {
			t.Fatalf("Do: %v", err)
		}

		runs, err := hdb.ListRuns(context.Background(), "", 0)
		if err != nil {
			t.Fatalf("ListRuns: %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("runs = %d, expected 1", len(runs))
		}
	})

	t.Run("nil history is a no-op", func(t *testing.T) {
		t.Parallel()

		job := NewJob("stdin", "some claim text", model.VerdictSuspicious)
		if err := NewPersistStep(nil, nil).Do(context.Background(), job); err != nil {
			t.Errorf("Do: %v", err)
		}
	})
}

// TestRenderStepOutput tests streaming the rendered document.
func TestRenderStepOutput(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	p := New()
	p.AddSteps(
		NewLoadStep(fetch.New(), WithStdin(strings.NewReader(testPage))),
		NewRenderStep(&out),
	)

	job := NewJob(StdinSource, "claim", model.VerdictSuspicious)
	if err := p.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if out.String() != job.HTML {
		t.Error("writer output differs from job HTML")
	}
	if !strings.Contains(job.HTML, "Housing prices fell sharply") {
		t.Error("rendered HTML missing page text")
	}
}
