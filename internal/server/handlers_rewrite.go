package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/alignment-checker/internal/alignment"
	"github.com/jonathan/alignment-checker/internal/server/middleware"
)

// RewriteResponse carries the rewritten text and its heuristic score next to the original's.
// RewriteScore is nil when the rewrite itself could not be scored.
type RewriteResponse struct {
	Rewrite       string `json:"rewrite"`
	OriginalScore int    `json:"originalScore"`
	RewriteScore  *int   `json:"rewriteScore"`
}

// RewriteFailure reports a failed rewrite together with the score of the original text
type RewriteFailure struct {
	Error         string `json:"error"`
	OriginalScore int    `json:"originalScore"`
}

// handleRewrite asks the analyzer to rewrite text in the profile's voice and re-scores the result
func (s *Server) handleRewrite(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	original, p, err := s.score(&req)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	if s.analyzer == nil {
		s.failure(w, r, &ErrUnavailable{Feature: "rewrite"})
		return
	}

	ctx := r.Context()
	referenceContext := s.assembler.Assemble(ctx, req.Text, s.maxContextDocs)
	rewrite, err := s.analyzer.Rewrite(ctx, req.Text, p, referenceContext)
	if err != nil {
		s.logger.Error("rewrite failed",
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(err))
		s.jsonResponse(w, HTTPStatus(err), RewriteFailure{
			Error:         publicMessage(err),
			OriginalScore: original.OverallScore,
		})
		return
	}

	resp := RewriteResponse{
		Rewrite:       rewrite,
		OriginalScore: original.OverallScore,
	}
	rescored, err := alignment.Score(rewrite, p)
	if err != nil {
		s.logger.Warn("rewrite could not be scored", zap.Error(err))
	} else {
		resp.RewriteScore = &rescored.OverallScore
	}

	s.jsonResponse(w, http.StatusOK, resp)
}
