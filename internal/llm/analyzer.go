package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jonathan/alignment-checker/internal/prompts"
	"github.com/jonathan/alignment-checker/internal/schemas"
	"github.com/jonathan/alignment-checker/internal/types"
)

// Prompt keys in prompts.AlignmentFile
const (
	promptSystemRole = "system-role"
	promptAnalyze    = "analyze-alignment"
	promptRewrite    = "rewrite-aligned"
	promptNoContext  = "no-context"
)

// Analyzer runs the alignment analysis and rewrite prompts against a completion client.
// The heuristic score is computed elsewhere; the analyzer only handles the model call.
type Analyzer struct {
	client       Client
	timeout      time.Duration
	analysisTier ModelTier
	rewriteTier  ModelTier
}

// NewAnalyzer creates an analyzer. A nil config uses DefaultConfig.
func NewAnalyzer(client Client, config *Config) *Analyzer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Analyzer{
		client:       client,
		timeout:      config.Timeout,
		analysisTier: TierStandard,
		rewriteTier:  TierAdvanced,
	}
}

// Analyze asks the model for a structured assessment of text against the profile and reference context.
// Errors are *APICallError, *ParseError or *SchemaError.
func (a *Analyzer) Analyze(ctx context.Context, text string, profile *types.StyleProfile, referenceContext string) (*types.LLMAnalysis, error) {
	prompt, err := BuildPrompt(promptAnalyze, text, profile, referenceContext)
	if err != nil {
		return nil, err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	raw, err := a.client.GenerateJSON(ctx, prompt, a.analysisTier)
	if err != nil {
		return nil, tagAPIError("analysis request failed", err)
	}

	return ParseAnalysis(raw)
}

// Rewrite asks the model to rewrite text in the profile's voice and returns the plain rewritten text
func (a *Analyzer) Rewrite(ctx context.Context, text string, profile *types.StyleProfile, referenceContext string) (string, error) {
	prompt, err := BuildPrompt(promptRewrite, text, profile, referenceContext)
	if err != nil {
		return "", err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	raw, err := a.client.GenerateContent(ctx, prompt, a.rewriteTier)
	if err != nil {
		return "", tagAPIError("rewrite request failed", err)
	}

	rewrite := cleanRewrite(raw)
	if rewrite == "" {
		return "", &APICallError{Message: "model returned an empty rewrite"}
	}
	return rewrite, nil
}

// ParseAnalysis decodes and validates a model response into an LLMAnalysis
func ParseAnalysis(raw string) (*types.LLMAnalysis, error) {
	cleaned := CleanJSONBlock(raw)
	if !json.Valid([]byte(cleaned)) {
		return nil, &ParseError{Message: "model response is not valid JSON"}
	}

	if err := schemas.ValidateBytes(schemas.LLMAnalysis, []byte(cleaned)); err != nil {
		return nil, &SchemaError{Cause: err}
	}

	var analysis types.LLMAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, &ParseError{Message: "failed to decode analysis", Cause: err}
	}
	return &analysis, nil
}

// BuildPrompt renders one of the alignment prompt templates
func BuildPrompt(key, text string, profile *types.StyleProfile, referenceContext string) (string, error) {
	if profile == nil {
		profile = &types.StyleProfile{}
	}

	role, err := prompts.Get(prompts.AlignmentFile, promptSystemRole)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(referenceContext) == "" {
		referenceContext, err = prompts.Get(prompts.AlignmentFile, promptNoContext)
		if err != nil {
			return "", err
		}
	}

	return prompts.Render(prompts.AlignmentFile, key, map[string]string{
		"SystemRole":     role,
		"ProfileName":    profile.Name,
		"CoreTerms":      listOrNone(profile.CoreTerms),
		"SecondaryTerms": listOrNone(profile.SecondaryTerms),
		"MissionPhrases": listOrNone(profile.MissionPhrases),
		"Context":        referenceContext,
		"Text":           text,
	})
}

func (a *Analyzer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// tagAPIError keeps typed client errors and wraps anything else as an APICallError
func tagAPIError(message string, err error) error {
	var apiErr *APICallError
	if errors.As(err, &apiErr) {
		return err
	}
	return &APICallError{Message: message, Cause: err}
}

// cleanRewrite strips code fences and surrounding quotes models sometimes add
func cleanRewrite(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.Index(text, "\n"); idx >= 0 && !strings.Contains(text[:idx], " ") {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, `"""`)
	text = strings.TrimSuffix(text, `"""`)
	return strings.TrimSpace(text)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
