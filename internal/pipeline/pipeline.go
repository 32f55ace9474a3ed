package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/run-llama/autorfp/apimodels"
	"github.com/run-llama/autorfp/internal/config"
	"github.com/run-llama/autorfp/internal/llm"
	"github.com/run-llama/autorfp/internal/retrieval"
)

// fallbackResponseConfidence is reported when the pipeline degrades to
// single-call generation.
const fallbackResponseConfidence = 0.5

// Pipeline is the multi-step response generator. It is stateless: every
// invocation owns its own data, so one Pipeline serves concurrent requests.
type Pipeline struct {
	llm       llm.Provider
	retriever retrieval.Retriever
	cfg       config.PipelineConfig
	model     string
}

// Request is one question to answer, with its resolved index selector.
type Request struct {
	Question   string
	QuestionID string
	Selector   retrieval.Selector

	// Model and Temperature optionally override the gateway defaults for
	// this request.
	Model       string
	Temperature float64
}

func New(provider llm.Provider, retriever retrieval.Retriever, cfg config.PipelineConfig, defaultModel string) *Pipeline {
	if cfg.TimeoutPerStep <= 0 {
		cfg.TimeoutPerStep = 30 * time.Second
	}
	if cfg.MinConfidenceThreshold <= 0 {
		cfg.MinConfidenceThreshold = 0.6
	}
	return &Pipeline{
		llm:       provider,
		retriever: retriever,
		cfg:       cfg,
		model:     defaultModel,
	}
}

// run carries the request-scoped state for one pipeline invocation.
type run struct {
	p   *Pipeline
	req Request

	// llmSucceeded records whether any primary gateway call produced usable
	// output; when none did, the response metadata reports degraded mode.
	llmSucceeded bool
	llmAttempted bool
}

// completeJSON issues one language-model call expecting a JSON payload and
// parses it tolerantly into v.
func (r *run) completeJSON(ctx context.Context, prompt, system string, v any) error {
	r.llmAttempted = true
	resp, err := r.p.llm.Complete(ctx, prompt,
		llm.WithSystem(system),
		llm.WithFormat(llm.FormatJSON),
		llm.WithModel(r.req.Model),
		llm.WithTemperature(r.req.Temperature),
	)
	if err != nil {
		return fmt.Errorf("gateway call failed: %w", err)
	}
	if err := extractJSON(resp.Content, v); err != nil {
		return err
	}
	r.llmSucceeded = true
	return nil
}

// Generate answers one question through the five-stage pipeline.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*apimodels.MultiStepResponse, error) {
	return p.generate(ctx, req, nil)
}

// GenerateStream behaves like Generate but additionally invokes onStep with
// every terminal StepResult, in stage execution order, before returning the
// final response.
func (p *Pipeline) GenerateStream(ctx context.Context, req Request, onStep func(apimodels.StepResult)) (*apimodels.MultiStepResponse, error) {
	return p.generate(ctx, req, onStep)
}

func (p *Pipeline) generate(ctx context.Context, req Request, onStep func(apimodels.StepResult)) (*apimodels.MultiStepResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	started := time.Now()
	slog.Info("pipeline started", "question_id", req.QuestionID, "indexes", len(req.Selector.IndexIDs))

	r := &run{p: p, req: req}
	var steps []apimodels.StepResult
	emit := func(s apimodels.StepResult) {
		steps = append(steps, s)
		if onStep != nil {
			onStep(s)
		}
		if p.cfg.EnableDetailedLogging {
			slog.Debug("step recorded", "step", s.Type, "status", s.Status, "duration_ms", s.Duration)
		}
	}

	analysisStep, analysis, err := runStep(ctx, p.cfg.TimeoutPerStep, StageAnalysis,
		"Question Analysis", "Classifying the question and planning retrieval queries",
		func(ctx context.Context) (QuestionAnalysis, error) {
			return r.analyzeQuestion(ctx), nil
		})
	emit(analysisStep)
	if err != nil {
		return p.fallbackGenerate(ctx, r, steps, started, err)
	}

	searchStep, results, err := runStep(ctx, p.cfg.TimeoutPerStep, StageSearch,
		"Document Search", "Searching the selected indexes for each planned query",
		func(ctx context.Context) ([]DocumentSearchResult, error) {
			return r.searchDocuments(ctx, analysis.SearchQueries), nil
		})
	emit(searchStep)
	if err != nil {
		return p.fallbackGenerate(ctx, r, steps, started, err)
	}

	extractionStep, extraction, err := runStep(ctx, p.cfg.TimeoutPerStep, StageExtraction,
		"Information Extraction", "Extracting question-relevant facts from the retrieved snippets",
		func(ctx context.Context) (InformationExtraction, error) {
			return r.extractInformation(ctx, results), nil
		})
	emit(extractionStep)
	if err != nil {
		return p.fallbackGenerate(ctx, r, steps, started, err)
	}

	synthesisStep, synthesis, err := runStep(ctx, p.cfg.TimeoutPerStep, StageSynthesis,
		"Response Synthesis", "Composing the draft response from the extracted facts",
		func(ctx context.Context) (ResponseSynthesis, error) {
			return r.synthesizeResponse(ctx, analysis, extraction), nil
		})
	emit(synthesisStep)
	if err != nil {
		return p.fallbackGenerate(ctx, r, steps, started, err)
	}

	validationStep, validation, err := runStep(ctx, p.cfg.TimeoutPerStep, StageValidation,
		"Response Validation", "Reviewing the draft response and settling final confidence",
		func(ctx context.Context) (ResponseValidation, error) {
			return r.validateResponse(ctx, analysis, synthesis), nil
		})
	emit(validationStep)
	if err != nil {
		return p.fallbackGenerate(ctx, r, steps, started, err)
	}

	ended := time.Now()
	resp := &apimodels.MultiStepResponse{
		ID:                uuid.NewString(),
		QuestionID:        req.QuestionID,
		Steps:             steps,
		FinalResponse:     synthesis.MainResponse,
		OverallConfidence: clampUnit(validation.FinalConfidence),
		TotalDuration:     ended.Sub(started).Milliseconds(),
		Sources:           resolveSources(synthesis.Sources, results),
		Metadata: apimodels.ResponseMetadata{
			ModelUsed:           r.modelUsed(),
			TokensUsed:          estimateStepTokens(steps),
			StepsCompleted:      countCompleted(steps),
			ProcessingStartTime: started,
			ProcessingEndTime:   ended,
		},
	}

	slog.Info("pipeline completed",
		"question_id", req.QuestionID,
		"confidence", resp.OverallConfidence,
		"steps_completed", resp.Metadata.StepsCompleted,
		"duration_ms", resp.TotalDuration,
	)
	return resp, nil
}

// fallbackGenerate is the pipeline's terminal fallback state: a single
// retrieval+completion call bypassing the five-stage structure. The steps that
// completed before the abort are preserved in the response. A failure here is
// a hard failure surfaced to the caller.
func (p *Pipeline) fallbackGenerate(ctx context.Context, r *run, steps []apimodels.StepResult, started time.Time, cause error) (*apimodels.MultiStepResponse, error) {
	if !p.cfg.FallbackToSingleStep {
		return nil, fmt.Errorf("pipeline aborted: %w", cause)
	}
	slog.Warn("pipeline aborted, degrading to single-step generation", "question_id", r.req.QuestionID, "cause", cause)

	var contextBlock strings.Builder
	var sources []apimodels.ResponseSource
	if res, err := p.retriever.Query(ctx, r.req.Question, r.req.Selector); err == nil {
		for _, src := range res.Sources {
			fmt.Fprintf(&contextBlock, "[%s]\n%s\n\n", src.Title, src.Snippet)
			sources = append(sources, apimodels.ResponseSource{
				ID:          src.ID,
				FileName:    src.Title,
				Relevance:   src.RelevanceScore,
				PageNumber:  src.PageNumber,
				TextContent: src.Snippet,
			})
		}
	} else {
		slog.Warn("fallback retrieval failed, generating without context", "error", err)
	}

	prompt := fmt.Sprintf(`Answer the following RFP question professionally. Use the document excerpts below when they are relevant; otherwise state clearly what information is missing.

Question: %s

Document excerpts:
%s`, r.req.Question, contextBlock.String())

	resp, err := p.llm.Complete(ctx, prompt,
		llm.WithModel(r.req.Model),
		llm.WithTemperature(r.req.Temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("single-step fallback generation failed: %w", err)
	}

	ended := time.Now()
	return &apimodels.MultiStepResponse{
		ID:                uuid.NewString(),
		QuestionID:        r.req.QuestionID,
		Steps:             steps,
		FinalResponse:     resp.Content,
		OverallConfidence: fallbackResponseConfidence,
		TotalDuration:     ended.Sub(started).Milliseconds(),
		Sources:           sources,
		Metadata: apimodels.ResponseMetadata{
			ModelUsed:           "fallback",
			TokensUsed:          int(resp.Usage.TotalTokens),
			StepsCompleted:      countCompleted(steps),
			ProcessingStartTime: started,
			ProcessingEndTime:   ended,
		},
	}, nil
}

// resolveSources maps the synthesis sources back to the retrieval identities
// gathered in the search stage, recovering file names and snippets for
// citation display.
func resolveSources(synthSources []SynthesisSource, results []DocumentSearchResult) []apimodels.ResponseSource {
	byID := make(map[string]retrieval.Source)
	for _, res := range results {
		for _, src := range res.RelevantSources {
			if _, ok := byID[src.ID]; !ok {
				byID[src.ID] = src
			}
			// Synthesis sources frequently carry titles rather than IDs.
			if _, ok := byID[src.Title]; !ok && src.Title != "" {
				byID[src.Title] = src
			}
		}
	}

	resolved := make([]apimodels.ResponseSource, 0, len(synthSources))
	for _, s := range synthSources {
		if !s.UsedInResponse {
			continue
		}
		out := apimodels.ResponseSource{
			ID:        s.ID,
			FileName:  s.ID,
			Relevance: clampUnit(s.Relevance),
		}
		if match, ok := byID[s.ID]; ok {
			out.ID = match.ID
			out.FileName = match.Title
			out.PageNumber = match.PageNumber
			out.TextContent = match.Snippet
		}
		resolved = append(resolved, out)
	}
	return resolved
}

func (r *run) modelUsed() string {
	model := r.req.Model
	if model == "" {
		model = r.p.model
	}
	if r.llmAttempted && !r.llmSucceeded {
		// Every primary gateway call failed; the answer came entirely from
		// the deterministic stage fallbacks.
		return "heuristic"
	}
	return model
}

func countCompleted(steps []apimodels.StepResult) int {
	n := 0
	for _, s := range steps {
		if s.Status == apimodels.StepCompleted {
			n++
		}
	}
	return n
}

// estimateStepTokens sizes the serialized step outputs. Approximate by
// construction; see ResponseMetadata.TokensUsed.
func estimateStepTokens(steps []apimodels.StepResult) int {
	total := 0
	for _, s := range steps {
		if s.Output == nil {
			continue
		}
		if payload, err := json.Marshal(s.Output); err == nil {
			total += estimateTokens(string(payload))
		}
	}
	return total
}
