package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const analysisSystemPrompt = `You are an expert at analyzing RFP questions to plan document retrieval.`

const analysisPromptTemplate = `Analyze the following RFP question and return a JSON object with this exact shape:
{
  "complexity": "simple" | "moderate" | "complex" | "multi-part",
  "requiredInformation": ["category of information needed", ...],
  "specificEntities": ["named entity mentioned in the question", ...],
  "searchQueries": ["search query to run against the document index", ...],
  "expectedSources": <integer estimate of sources needed>,
  "reasoning": "brief justification of the classification"
}

Produce between 1 and 4 focused search queries. Queries should be short noun phrases, not full sentences.

Question: %s`

// analyzeQuestion classifies the question and proposes retrieval queries. It
// never fails outward: any gateway or parse error degrades to the word-count
// heuristic, so SearchQueries is always populated.
func (r *run) analyzeQuestion(ctx context.Context) QuestionAnalysis {
	prompt := fmt.Sprintf(analysisPromptTemplate, r.req.Question)

	var analysis QuestionAnalysis
	if err := r.completeJSON(ctx, prompt, analysisSystemPrompt, &analysis); err != nil {
		slog.Warn("question analysis degraded to heuristic", "error", err)
		return heuristicAnalysis(r.req.Question)
	}

	return sanitizeAnalysis(analysis, r.req.Question)
}

// heuristicAnalysis derives an analysis from the question text alone.
// Complexity follows word count; the raw question becomes the sole query.
func heuristicAnalysis(question string) QuestionAnalysis {
	words := len(strings.Fields(question))

	complexity := ComplexitySimple
	expectedSources := 2
	switch {
	case words > 20:
		complexity = ComplexityComplex
		expectedSources = 4
	case words > 10:
		complexity = ComplexityModerate
		expectedSources = 3
	}

	return QuestionAnalysis{
		Complexity:      complexity,
		SearchQueries:   []string{question},
		ExpectedSources: expectedSources,
		Reasoning:       "heuristic analysis based on question length",
	}
}

// sanitizeAnalysis enforces the stage invariants on model output.
func sanitizeAnalysis(a QuestionAnalysis, question string) QuestionAnalysis {
	switch a.Complexity {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex, ComplexityMultiPart:
	default:
		a.Complexity = heuristicAnalysis(question).Complexity
	}

	queries := make([]string, 0, len(a.SearchQueries))
	for _, q := range a.SearchQueries {
		if strings.TrimSpace(q) != "" {
			queries = append(queries, strings.TrimSpace(q))
		}
	}
	if len(queries) == 0 {
		queries = []string{question}
	}
	a.SearchQueries = queries

	if a.ExpectedSources < 1 {
		a.ExpectedSources = 1
	}
	return a
}
