package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clarityhq/claritymark/internal/dom"
	"github.com/clarityhq/claritymark/internal/fetch"
	"github.com/clarityhq/claritymark/internal/model"
	"github.com/clarityhq/claritymark/internal/pipeline"
)

// highlightRequest is the POST /v1/highlight body. Exactly one of
// HTML, Markdown, or URL must be set.
type highlightRequest struct {
	// HTML is an inline HTML document.
	HTML string `json:"html,omitempty"`

	// Markdown is an inline Markdown document, converted before
	// highlighting.
	Markdown string `json:"markdown,omitempty"`

	// URL names a page to fetch and highlight.
	URL string `json:"url,omitempty"`

	// Claim is the claim or threat excerpt to locate.
	Claim string `json:"claim"`

	// Verdict is the classification label. Empty defaults to
	// "suspicious".
	Verdict string `json:"verdict,omitempty"`
}

// highlightResponse is the POST /v1/highlight reply.
type highlightResponse struct {
	// HTML is the rewritten document.
	HTML string `json:"html"`

	// Report is the run report.
	Report *model.RunReport `json:"report"`
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req highlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Claim) == "" {
		jsonError(w, "claim is required", http.StatusBadRequest)
		return
	}

	sources := 0
	for _, v := range []string{req.HTML, req.Markdown, req.URL} {
		if v != "" {
			sources++
		}
	}
	if sources != 1 {
		jsonError(w, "exactly one of html, markdown, or url is required", http.StatusBadRequest)
		return
	}

	verdict := model.Verdict(req.Verdict)
	if req.Verdict == "" {
		verdict = model.VerdictSuspicious
	}

	job, p, err := s.buildRun(req, verdict)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := p.Execute(r.Context(), job); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, fetch.ErrHTTPStatus) || req.URL != "" {
			status = http.StatusBadGateway
		}
		jsonError(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(highlightResponse{
		HTML:   job.HTML,
		Report: job.Report,
	})
}

// buildRun assembles the job and pipeline for a highlight request.
// Inline documents are parsed up front; URL sources go through the
// load step so they share the page cache with CLI runs.
func (s *Server) buildRun(req highlightRequest, verdict model.Verdict) (*pipeline.Job, *pipeline.Pipeline, error) {
	p := pipeline.New(pipeline.WithLogger(s.log))

	var job *pipeline.Job
	switch {
	case req.URL != "":
		job = pipeline.NewJob(req.URL, req.Claim, verdict)
		loadOpts := []pipeline.LoadStepOption{pipeline.WithLoadLogger(s.log)}
		if s.history != nil {
			loadOpts = append(loadOpts, pipeline.WithHistory(s.history, s.cacheMaxAge))
		}
		p.AddStep(pipeline.NewLoadStep(s.fetcher, loadOpts...))
	case req.Markdown != "":
		job = pipeline.NewJob("inline-markdown", req.Claim, verdict)
		doc, err := dom.FromMarkdown(strings.NewReader(req.Markdown))
		if err != nil {
			return nil, nil, err
		}
		job.Doc = doc
	default:
		job = pipeline.NewJob("inline-html", req.Claim, verdict)
		doc, err := dom.ParseString(req.HTML)
		if err != nil {
			return nil, nil, err
		}
		job.Doc = doc
	}

	p.AddSteps(
		pipeline.NewChromeStep(s.palette),
		pipeline.NewHighlightStep(pipeline.WithHighlightLogger(s.log)),
		pipeline.NewPersistStep(s.history, s.log),
		pipeline.NewRenderStep(nil),
	)

	return job, p, nil
}

// runResponse is one entry of the GET /v1/runs reply.
type runResponse struct {
	ID     int64            `json:"id"`
	Report *model.RunReport `json:"report"`
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "run history is disabled", http.StatusNotFound)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	source := r.URL.Query().Get("source")

	records, err := s.history.ListRuns(r.Context(), source, limit)
	if err != nil {
		jsonError(w, "failed to list runs", http.StatusInternalServerError)
		return
	}

	runs := make([]runResponse, 0, len(records))
	for _, rec := range records {
		runs = append(runs, runResponse{ID: rec.ID, Report: rec.Report})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		jsonError(w, "run history is disabled", http.StatusNotFound)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "runID"), 10, 64)
	if err != nil {
		jsonError(w, "invalid run id", http.StatusBadRequest)
		return
	}

	report, err := s.history.GetRunByID(r.Context(), id)
	if err != nil {
		jsonError(w, "failed to get run", http.StatusInternalServerError)
		return
	}
	if report == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
