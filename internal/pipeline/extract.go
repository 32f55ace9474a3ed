package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/run-llama/autorfp/internal/retrieval"
)

const (
	// minFactLength discards near-empty or boilerplate facts
	minFactLength = 20

	fallbackFactCap        = 5
	fallbackMinSnippetLen  = 50
	fallbackSnippetExcerpt = 200
)

const extractionSystemPrompt = `You are an expert at extracting relevant facts from RFP supporting documents.`

const extractionPromptTemplate = `Given the question and the document excerpts below, extract the facts that help answer the question. Synthesize each fact in your own words; do not quote excerpts verbatim. Calibrate each fact's confidence to how directly it answers the question.

Return a JSON object with this exact shape:
{
  "extractedFacts": [{"fact": "...", "source": "<source title>", "confidence": <0.0-1.0>}],
  "missingInformation": ["description of an information gap", ...],
  "conflictingInformation": [{"topic": "...", "conflictingSources": ["...", "..."]}]
}

Question: %s

Document excerpts:
%s`

// extractInformation reads the snippets gathered by the search stage and
// produces question-relevant facts. With no snippets it short-circuits without
// a gateway call; on gateway or parse failure it builds facts directly from
// the top sources.
func (r *run) extractInformation(ctx context.Context, results []DocumentSearchResult) InformationExtraction {
	sources := flattenSources(results)
	if len(sources) == 0 {
		return InformationExtraction{
			ExtractedFacts:     []ExtractedFact{},
			MissingInformation: []string{"No relevant documents were found in the selected indexes for this question."},
		}
	}

	var body strings.Builder
	for _, src := range sources {
		fmt.Fprintf(&body, "[Source: %s]\n%s\n\n", src.Title, src.Snippet)
	}

	prompt := fmt.Sprintf(extractionPromptTemplate, r.req.Question, body.String())

	var extraction InformationExtraction
	if err := r.completeJSON(ctx, prompt, extractionSystemPrompt, &extraction); err != nil {
		slog.Warn("information extraction degraded to source-based facts", "error", err)
		return fallbackExtraction(sources)
	}

	return sanitizeExtraction(extraction)
}

// flattenSources collects every unique source across all search results,
// preserving query order.
func flattenSources(results []DocumentSearchResult) []retrieval.Source {
	seen := make(map[string]bool)
	var out []retrieval.Source
	for _, res := range results {
		for _, src := range res.RelevantSources {
			if seen[src.ID] {
				continue
			}
			seen[src.ID] = true
			out = append(out, src)
		}
	}
	return out
}

func sanitizeExtraction(e InformationExtraction) InformationExtraction {
	facts := make([]ExtractedFact, 0, len(e.ExtractedFacts))
	for _, f := range e.ExtractedFacts {
		if len(strings.TrimSpace(f.Fact)) < minFactLength {
			continue
		}
		f.Confidence = clampUnit(f.Confidence)
		facts = append(facts, f)
	}
	e.ExtractedFacts = facts
	return e
}

// fallbackExtraction turns the highest-relevance sources with substantial
// snippets into templated facts. Confidence rides on the source's relevance
// score with a small boost, capped below 1.0.
func fallbackExtraction(sources []retrieval.Source) InformationExtraction {
	ranked := make([]retrieval.Source, len(sources))
	copy(ranked, sources)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	facts := make([]ExtractedFact, 0, fallbackFactCap)
	for _, src := range ranked {
		if len(facts) == fallbackFactCap {
			break
		}
		snippet := strings.TrimSpace(src.Snippet)
		if len(snippet) < fallbackMinSnippetLen {
			continue
		}
		confidence := src.RelevanceScore + 0.1
		if confidence > 0.9 {
			confidence = 0.9
		}
		facts = append(facts, ExtractedFact{
			Fact:       fmt.Sprintf("According to %s: %s", src.Title, truncate(snippet, fallbackSnippetExcerpt)),
			Source:     src.Title,
			Confidence: confidence,
		})
	}

	extraction := InformationExtraction{ExtractedFacts: facts}
	if len(sources) < 3 {
		extraction.MissingInformation = append(extraction.MissingInformation,
			"Limited document coverage: fewer than three sources matched the search queries.")
	}
	return extraction
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
