package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/alignment-checker/internal/llm"
	"github.com/jonathan/alignment-checker/internal/profile"
	"github.com/jonathan/alignment-checker/internal/reference"
	"github.com/jonathan/alignment-checker/internal/server/ratelimit"
	"github.com/jonathan/alignment-checker/internal/types"
)

const scenarioA = "Let me be direct: together, we can achieve results through partnership and accountability for the poor."

type fakeAnalyzer struct {
	mu sync.Mutex

	analysis   *types.LLMAnalysis
	rewrite    string
	err        error
	lastText   string
	lastCtx    string
	lastPerson string
	calls      int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string, p *types.StyleProfile, referenceContext string) (*types.LLMAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastText, f.lastCtx, f.lastPerson = text, referenceContext, p.Name
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func (f *fakeAnalyzer) Rewrite(ctx context.Context, text string, p *types.StyleProfile, referenceContext string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastText, f.lastCtx, f.lastPerson = text, referenceContext, p.Name
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.rewrite, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// countingStore records how often the corpus is queried
type countingStore struct {
	reference.Store
	mu      sync.Mutex
	queries int
}

func (c *countingStore) ListDocuments(ctx context.Context, filter types.DocumentFilter) ([]types.ReferenceDocument, error) {
	c.mu.Lock()
	c.queries++
	c.mu.Unlock()
	return c.Store.ListDocuments(ctx, filter)
}

func (c *countingStore) queryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queries
}

type failingStore struct{}

func (failingStore) ListDocuments(context.Context, types.DocumentFilter) ([]types.ReferenceDocument, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) GetDocument(context.Context, string) (*types.ReferenceDocument, error) {
	return nil, errors.New("connection refused")
}

func testDocuments() []types.ReferenceDocument {
	return []types.ReferenceDocument{
		{
			ID: "speech-climate", Kind: types.KindSpeech, Title: "Climate Finance Remarks",
			Date:    time.Date(2024, 10, 25, 0, 0, 0, 0, time.UTC),
			Summary: "Financing a livable planet.", Sectors: []string{"climate"},
		},
		{
			ID: "strategy-2025", Kind: types.KindStrategy, Title: "Corporate Scorecard",
			Date: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), Body: "Results and accountability.",
		},
		{
			ID: "bio", Kind: types.KindBiography, Title: "About the President",
			Summary: "Career in the private sector.",
		},
	}
}

func testProfile() *types.StyleProfile {
	return &types.StyleProfile{
		Name:           "envoy",
		CoreTerms:      []string{"climate", "finance"},
		SecondaryTerms: []string{"adaptation"},
		MissionPhrases: []string{"livable planet"},
	}
}

func newTestServer(t *testing.T, analyzer Analyzer, opts ...func(*Dependencies)) *Server {
	t.Helper()
	registry, err := profile.NewRegistry(profile.Default(), testProfile())
	require.NoError(t, err)

	docs := reference.NewMemorySource(testDocuments())
	deps := Dependencies{
		Profiles:  registry,
		Documents: docs,
		Assembler: reference.NewAssembler(docs),
	}
	if analyzer != nil {
		deps.Analyzer = analyzer
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return NewWithDependencies(deps)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandleAnalyze_ScenarioA(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze", `{"text":"`+scenarioA+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 38, resp.OverallScore)
	assert.Equal(t, ScoreComponents{
		CoreAlignment:      20,
		SecondaryAlignment: 8,
		MissionAlignment:   0,
		LengthBonus:        0,
		DensityBonus:       10,
	}, resp.Scores)
	assert.Equal(t, []string{"partnership", "results", "accountability", "together", "direct"}, resp.MatchedKeywords)
	assert.NotEmpty(t, resp.Feedback)
}

func TestHandleAnalyze_ResponseShape(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze", `{"text":"nothing relevant here"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	decodeBody(t, rec, &raw)
	for _, key := range []string{"overallScore", "feedback", "matchedKeywords", "scores"} {
		assert.Contains(t, raw, key)
	}
	scores, ok := raw["scores"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"coreAlignment", "secondaryAlignment", "missionAlignment", "lengthBonus", "densityBonus"} {
		assert.Contains(t, scores, key)
	}
	assert.Equal(t, []any{}, raw["matchedKeywords"])
}

func TestHandleAnalyze_NamedProfile(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze",
		`{"text":"Climate finance for a livable planet.","profile":"envoy"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalyzeResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, []string{"climate", "finance", "livable planet"}, resp.MatchedKeywords)
	assert.Equal(t, 50, resp.Scores.CoreAlignment)
	assert.Equal(t, 10, resp.Scores.MissionAlignment)
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "missing text", body: `{}`, wantMsg: "text is required"},
		{name: "empty text", body: `{"text":""}`, wantMsg: "text is required"},
		{name: "whitespace text", body: `{"text":"   \n\t"}`, wantMsg: "text is required"},
		{name: "malformed json", body: `{"text":`, wantMsg: "invalid request body"},
		{name: "empty body", body: ``, wantMsg: "request body is required"},
		{name: "unknown profile", body: `{"text":"hello","profile":"nobody"}`, wantMsg: "style profile not found: nobody"},
		{name: "profile name too long", body: `{"text":"hello","profile":"` + strings.Repeat("x", 65) + `"}`, wantMsg: "Profile"},
	}

	s := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			decodeBody(t, rec, &resp)
			assert.Contains(t, resp["error"], tt.wantMsg)
		})
	}
}

func TestHandleAnalyze_MinChars(t *testing.T) {
	s := newTestServer(t, nil, func(d *Dependencies) { d.MinChars = 20 })

	rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze", `{"text":"too short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "need at least 20")
}

func TestHandleAnalyze_NoProfiles(t *testing.T) {
	s := NewWithDependencies(Dependencies{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze", `{"text":"hello"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"style profile unavailable"}`, rec.Body.String())
}

func TestHandleAnalyze_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/analyze", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleAnalyzeFull(t *testing.T) {
	analyzer := &fakeAnalyzer{analysis: &types.LLMAnalysis{
		AlignmentScore: 72,
		ToneAssessment: "Measured and direct",
		Strengths:      []string{"names the climate agenda"},
		Improvements:   []string{"add a concrete result"},
	}}
	s := newTestServer(t, analyzer)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze/full",
		`{"text":"Our climate work must deliver results."}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp FullAnalysisResponse
	decodeBody(t, rec, &resp)
	require.NotNil(t, resp.Heuristic)
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, 72, resp.Analysis.AlignmentScore)
	assert.Empty(t, resp.AnalysisError)
	require.Len(t, resp.ContextDocuments, 1)
	assert.Equal(t, ContextDocument{ID: "speech-climate", Title: "Climate Finance Remarks", Kind: types.KindSpeech, Date: "2024-10-25"}, resp.ContextDocuments[0])

	assert.Equal(t, "default", analyzer.lastPerson)
	assert.Contains(t, analyzer.lastCtx, "Title: Climate Finance Remarks")
}

func TestHandleAnalyzeFull_AnalyzerFailureKeepsHeuristic(t *testing.T) {
	analyzer := &fakeAnalyzer{err: &llm.ParseError{Message: "bad json", Cause: errors.New("unexpected end")}}
	s := newTestServer(t, analyzer)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze/full", `{"text":"`+scenarioA+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp FullAnalysisResponse
	decodeBody(t, rec, &resp)
	require.NotNil(t, resp.Heuristic)
	assert.Equal(t, 38, resp.Heuristic.OverallScore)
	assert.Nil(t, resp.Analysis)
	assert.Equal(t, "analysis failed", resp.AnalysisError)
	assert.Empty(t, resp.ContextDocuments)
}

func TestHandleAnalyzeFull_NoAnalyzer(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze/full", `{"text":"`+scenarioA+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FullAnalysisResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, 38, resp.Heuristic.OverallScore)
	assert.Contains(t, resp.AnalysisError, "LLM analysis is not available")
}

func TestHandleAnalyzeFull_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		minChars int
		wantErr  string
	}{
		{name: "whitespace", body: `{"text":"   "}`, wantErr: "text is required"},
		{name: "padded undersized", body: `{"text":"      ab      "}`, minChars: 10, wantErr: "text is too short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{analysis: &types.LLMAnalysis{}}
			store := &countingStore{Store: reference.NewMemorySource(testDocuments())}
			s := newTestServer(t, analyzer, func(d *Dependencies) {
				d.Documents = store
				d.Assembler = reference.NewAssembler(store)
				d.MinChars = tt.minChars
			})

			rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze/full", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantErr)
			assert.Zero(t, analyzer.callCount(), "analyzer must not run for rejected text")
			assert.Zero(t, store.queryCount(), "corpus must not be queried for rejected text")
		})
	}
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if current.name != "" {
				events = append(events, current)
			}
			current = sseEvent{}
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestHandleAnalyzeStream(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{analysis: &types.LLMAnalysis{AlignmentScore: 64, ToneAssessment: "Warm"}})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze/stream", `{"text":"`+scenarioA+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := readEvents(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "heuristic", events[0].name)
	assert.Equal(t, "analysis", events[1].name)
	assert.Equal(t, "complete", events[2].name)

	var heuristic AnalyzeResponse
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &heuristic))
	assert.Equal(t, 38, heuristic.OverallScore)

	var analysis types.LLMAnalysis
	require.NoError(t, json.Unmarshal([]byte(events[1].data), &analysis))
	assert.Equal(t, 64, analysis.AlignmentScore)
	assert.JSONEq(t, `{"status":"ok"}`, events[2].data)
}

func TestHandleAnalyzeStream_AnalyzerFailure(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{err: &llm.APICallError{Message: "quota exceeded"}})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze/stream", `{"text":"`+scenarioA+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	events := readEvents(t, rec.Body.String())
	require.Len(t, events, 3)
	assert.Equal(t, "heuristic", events[0].name)
	assert.Equal(t, "error", events[1].name)
	assert.JSONEq(t, `{"error":"analysis failed"}`, events[1].data)
	assert.JSONEq(t, `{"status":"partial"}`, events[2].data)
}

func TestHandleAnalyzeStream_InvalidInputIsPlainJSON(t *testing.T) {
	s := newTestServer(t, &fakeAnalyzer{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/analyze/stream", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHandleRewrite(t *testing.T) {
	analyzer := &fakeAnalyzer{rewrite: "Together we deliver results through partnership, accountability and impact for a livable planet."}
	s := newTestServer(t, analyzer)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/rewrite", `{"text":"`+scenarioA+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp RewriteResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, analyzer.rewrite, resp.Rewrite)
	assert.Equal(t, 38, resp.OriginalScore)
	require.NotNil(t, resp.RewriteScore)
	assert.Greater(t, *resp.RewriteScore, resp.OriginalScore)
}

func TestHandleRewrite_Errors(t *testing.T) {
	t.Run("analyzer failure", func(t *testing.T) {
		s := newTestServer(t, &fakeAnalyzer{err: &llm.APICallError{Message: "timeout"}})
		rec := doJSON(t, s.Handler(), http.MethodPost, "/rewrite", `{"text":"`+scenarioA+`"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"analysis failed","originalScore":38}`, rec.Body.String())
	})

	t.Run("no analyzer", func(t *testing.T) {
		s := newTestServer(t, nil)
		rec := doJSON(t, s.Handler(), http.MethodPost, "/rewrite", `{"text":"`+scenarioA+`"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "rewrite is not available")
	})

	t.Run("empty text", func(t *testing.T) {
		s := newTestServer(t, &fakeAnalyzer{rewrite: "x"})
		rec := doJSON(t, s.Handler(), http.MethodPost, "/rewrite", `{"text":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleContext(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name      string
		path      string
		wantRoute string
		wantIDs   []string
	}{
		{name: "climate route", path: "/context?q=climate+adaptation", wantRoute: "climate", wantIDs: []string{"speech-climate"}},
		{name: "leadership route", path: "/context?q=the+president", wantRoute: "leadership", wantIDs: []string{"bio"}},
		{name: "full text", path: "/context?q=scorecard", wantRoute: reference.RouteFullText, wantIDs: []string{"strategy-2025"}},
		{name: "no match", path: "/context?q=zzz", wantRoute: "", wantIDs: []string{}},
		{name: "max limits", path: "/context?max=1", wantRoute: reference.RouteFullText, wantIDs: []string{"speech-climate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s.Handler(), http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)

			var resp ContextResponse
			decodeBody(t, rec, &resp)
			assert.Equal(t, tt.wantRoute, resp.Route)

			ids := make([]string, 0, len(resp.Documents))
			for _, d := range resp.Documents {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			if len(ids) == 0 {
				assert.Empty(t, resp.Context)
			} else {
				assert.Contains(t, resp.Context, "Title: ")
			}
		})
	}
}

func TestHandleContext_InvalidMax(t *testing.T) {
	s := newTestServer(t, nil)

	for _, raw := range []string{"0", "21", "abc"} {
		rec := doJSON(t, s.Handler(), http.MethodGet, "/context?q=x&max="+raw, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, raw)
	}
}

func TestHandleContext_UnavailableCorpusDegrades(t *testing.T) {
	s := newTestServer(t, nil, func(d *Dependencies) {
		d.Documents = failingStore{}
		d.Assembler = reference.NewAssembler(failingStore{})
	})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/context?q=climate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ContextResponse
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.Context)
	assert.Empty(t, resp.Documents)
}

func TestHandleDocuments(t *testing.T) {
	s := newTestServer(t, nil)

	t.Run("list newest first", func(t *testing.T) {
		rec := doJSON(t, s.Handler(), http.MethodGet, "/documents", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Documents []types.ReferenceDocument `json:"documents"`
			Count     int                       `json:"count"`
		}
		decodeBody(t, rec, &resp)
		assert.Equal(t, 3, resp.Count)
		assert.Equal(t, "strategy-2025", resp.Documents[0].ID)
		assert.Equal(t, "bio", resp.Documents[2].ID)
	})

	t.Run("filter by kind", func(t *testing.T) {
		rec := doJSON(t, s.Handler(), http.MethodGet, "/documents?kind=biography", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"count":1`)
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := doJSON(t, s.Handler(), http.MethodGet, "/documents?limit=-1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get by id", func(t *testing.T) {
		rec := doJSON(t, s.Handler(), http.MethodGet, "/documents/bio", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var doc types.ReferenceDocument
		decodeBody(t, rec, &doc)
		assert.Equal(t, "About the President", doc.Title)
	})

	t.Run("missing id", func(t *testing.T) {
		rec := doJSON(t, s.Handler(), http.MethodGet, "/documents/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleDocuments_StoreFailure(t *testing.T) {
	s := newTestServer(t, nil, func(d *Dependencies) { d.Documents = failingStore{} })

	rec := doJSON(t, s.Handler(), http.MethodGet, "/documents", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestHandleProfiles(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Profiles []types.StyleProfile `json:"profiles"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Profiles, 2)
	assert.Equal(t, "default", list.Profiles[0].Name)
	assert.Equal(t, "envoy", list.Profiles[1].Name)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/profiles/envoy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p types.StyleProfile
	decodeBody(t, rec, &p)
	assert.Equal(t, []string{"climate", "finance"}, p.CoreTerms)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/profiles/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	t.Run("any origin", func(t *testing.T) {
		s := newTestServer(t, nil)
		req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
		req.Header.Set("Origin", "https://example.org")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("allow list", func(t *testing.T) {
		s := newTestServer(t, nil, func(d *Dependencies) {
			d.AllowedOrigins = []string{"https://app.example.org"}
		})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://app.example.org")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, "https://app.example.org", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec = httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  2,
		DefaultWindow: time.Minute,
	})
	t.Cleanup(limiter.Stop)
	s := newTestServer(t, nil, func(d *Dependencies) { d.RateLimiter = limiter })

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = doJSON(t, s.Handler(), http.MethodPost, "/analyze", `{"text":"`+scenarioA+`"}`)
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	var resp map[string]any
	decodeBody(t, last, &resp)
	assert.Equal(t, "rate_limit_exceeded", resp["error"])
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: &ErrValidation{Field: "text", Message: "required"}, want: http.StatusBadRequest},
		{name: "unknown profile", err: &profile.NotFoundError{Name: "x"}, want: http.StatusBadRequest},
		{name: "unavailable", err: &ErrUnavailable{Feature: "rewrite"}, want: http.StatusServiceUnavailable},
		{name: "llm", err: &llm.APICallError{Message: "boom"}, want: http.StatusInternalServerError},
		{name: "plain", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
