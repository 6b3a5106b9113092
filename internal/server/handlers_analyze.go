package server

import (
	"context"
	"errors"
	"math"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/alignment-checker/internal/alignment"
	"github.com/jonathan/alignment-checker/internal/server/middleware"
	"github.com/jonathan/alignment-checker/internal/types"
)

// AnalyzeRequest is the body shared by the analyze and rewrite endpoints.
// Empty text is rejected by the scorer so the error carries its reason.
type AnalyzeRequest struct {
	Text    string `json:"text"`
	Profile string `json:"profile,omitempty" validate:"omitempty,max=64"`
}

// ScoreComponents are the rounded per-category sub-scores
type ScoreComponents struct {
	CoreAlignment      int `json:"coreAlignment"`
	SecondaryAlignment int `json:"secondaryAlignment"`
	MissionAlignment   int `json:"missionAlignment"`
	LengthBonus        int `json:"lengthBonus"`
	DensityBonus       int `json:"densityBonus"`
}

// AnalyzeResponse is the heuristic score as returned by POST /analyze
type AnalyzeResponse struct {
	OverallScore    int             `json:"overallScore"`
	Feedback        string          `json:"feedback"`
	MatchedKeywords []string        `json:"matchedKeywords"`
	Scores          ScoreComponents `json:"scores"`
}

// ContextDocument identifies a reference document used to build a prompt
type ContextDocument struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind,omitempty"`
	Date  string `json:"date,omitempty"`
}

// FullAnalysisResponse combines the heuristic score with the LLM analysis.
// A failed analysis leaves Analysis nil and sets AnalysisError.
type FullAnalysisResponse struct {
	Heuristic        *AnalyzeResponse   `json:"heuristic"`
	Analysis         *types.LLMAnalysis `json:"analysis,omitempty"`
	AnalysisError    string             `json:"analysisError,omitempty"`
	ContextDocuments []ContextDocument  `json:"contextDocuments"`
}

func newAnalyzeResponse(b *types.ScoreBreakdown) *AnalyzeResponse {
	return &AnalyzeResponse{
		OverallScore:    b.OverallScore,
		Feedback:        b.Feedback,
		MatchedKeywords: b.MatchedKeywords(),
		Scores: ScoreComponents{
			CoreAlignment:      roundScore(b.CoreScore),
			SecondaryAlignment: roundScore(b.SecondaryScore),
			MissionAlignment:   roundScore(b.MissionScore),
			LengthBonus:        roundScore(b.LengthScore),
			DensityBonus:       roundScore(b.DensityScore),
		},
	}
}

func roundScore(v float64) int {
	return int(math.Round(v))
}

func contextDocuments(docs []types.ReferenceDocument) []ContextDocument {
	out := make([]ContextDocument, 0, len(docs))
	for _, doc := range docs {
		cd := ContextDocument{ID: doc.ID, Title: doc.Title, Kind: doc.Kind}
		if !doc.Date.IsZero() {
			cd.Date = doc.Date.Format("2006-01-02")
		}
		out = append(out, cd)
	}
	return out
}

// score resolves the requested profile and runs the heuristic scorer
func (s *Server) score(req *AnalyzeRequest) (*types.ScoreBreakdown, *types.StyleProfile, error) {
	if s.profiles == nil {
		return nil, nil, &alignment.ReferenceUnavailableError{Resource: "style profile", Message: "no profiles loaded"}
	}
	p, err := s.profiles.Get(req.Profile)
	if err != nil {
		return nil, nil, err
	}
	b, err := alignment.Score(req.Text, p, alignment.WithMinChars(s.minChars))
	if err != nil {
		return nil, nil, err
	}
	return b, p, nil
}

// handleAnalyze scores text with the heuristic scorer only
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	b, _, err := s.score(&req)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, newAnalyzeResponse(b))
}

// runFullAnalysis scores the text and, concurrently, asks the analyzer for a review.
// Invalid text is rejected before the corpus or the analyzer is consulted. Heuristic failures cancel the analysis and fail the request; analyzer failures are
// reported alongside the score.
func (s *Server) runFullAnalysis(ctx context.Context, req *AnalyzeRequest) (*FullAnalysisResponse, error) {
	if s.profiles == nil {
		return nil, &alignment.ReferenceUnavailableError{Resource: "style profile", Message: "no profiles loaded"}
	}
	p, err := s.profiles.Get(req.Profile)
	if err != nil {
		return nil, err
	}
	if err := alignment.CheckInput(req.Text, s.minChars); err != nil {
		return nil, err
	}

	docs, route := s.assembler.Select(ctx, req.Text, s.maxContextDocs)
	referenceContext := s.assembler.Render(docs)

	var (
		breakdown   *types.ScoreBreakdown
		analysis    *types.LLMAnalysis
		analysisErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := alignment.Score(req.Text, p, alignment.WithMinChars(s.minChars))
		if err != nil {
			return err
		}
		breakdown = b
		return nil
	})
	if s.analyzer != nil {
		g.Go(func() error {
			analysis, analysisErr = s.analyzer.Analyze(gctx, req.Text, p, referenceContext)
			return nil
		})
	} else {
		analysisErr = &ErrUnavailable{Feature: "LLM analysis"}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &FullAnalysisResponse{
		Heuristic:        newAnalyzeResponse(breakdown),
		ContextDocuments: contextDocuments(docs),
	}
	if analysisErr != nil {
		s.logger.Warn("LLM analysis failed, returning heuristic score only",
			zap.String("route", route),
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(analysisErr))
		resp.AnalysisError = publicMessage(analysisErr)
		return resp, nil
	}
	resp.Analysis = analysis
	return resp, nil
}

// handleAnalyzeFull returns the heuristic score together with the LLM analysis
func (s *Server) handleAnalyzeFull(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	resp, err := s.runFullAnalysis(r.Context(), &req)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleAnalyzeStream streams the heuristic score first and the LLM analysis when it arrives
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	// Validate before switching to an event stream so bad input still gets a plain 400
	b, p, err := s.score(&req)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	if err := sse.WriteEvent(eventHeuristic, newAnalyzeResponse(b)); err != nil {
		s.logger.Warn("client went away during stream", zap.Error(err))
		return
	}

	if s.analyzer == nil {
		_ = sse.WriteError((&ErrUnavailable{Feature: "LLM analysis"}).Error())
		_ = sse.WriteComplete("partial")
		return
	}

	referenceContext := s.assembler.Assemble(ctx, req.Text, s.maxContextDocs)
	analysis, err := s.analyzer.Analyze(ctx, req.Text, p, referenceContext)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn("LLM analysis failed during stream",
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(err))
		_ = sse.WriteError(publicMessage(err))
		_ = sse.WriteComplete("partial")
		return
	}

	if err := sse.WriteEvent(eventAnalysis, analysis); err != nil {
		return
	}
	_ = sse.WriteComplete("ok")
}
