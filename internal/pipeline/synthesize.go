package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	insufficientInfoConfidence = 0.1
	fallbackSynthesisCap       = 0.85
)

const synthesisSystemPrompt = `You are an expert RFP response writer producing polished, professional answers.`

const synthesisPromptTemplate = `Write a response to the RFP question below using only the extracted facts provided. Structure the response professionally with markdown headings and bullet points where appropriate.

Return a JSON object with this exact shape:
{
  "mainResponse": "the formatted response text",
  "confidence": <0.0-1.0>,
  "sources": [{"id": "<source title>", "relevance": <0.0-1.0>, "usedInResponse": true|false}],
  "limitations": ["caveat the reader should know", ...],
  "recommendations": ["suggested next step", ...]
}

Question: %s
Question complexity: %s
Required information: %s

Extracted facts:
%s`

const insufficientInfoResponse = `## Insufficient Information

We were unable to locate relevant information in the connected document indexes to answer this question.

### Recommended Next Steps
- Upload additional supporting documents covering this topic
- Verify that the correct document indexes are selected for this project
- Consider answering this question manually and saving it to the knowledge base`

// synthesizeResponse produces the final user-facing prose from the extracted
// facts. With no facts it short-circuits to a fixed low-confidence response
// without a gateway call; on gateway or parse failure it assembles a
// deterministic markdown response grouped by source.
func (r *run) synthesizeResponse(ctx context.Context, analysis QuestionAnalysis, extraction InformationExtraction) ResponseSynthesis {
	if len(extraction.ExtractedFacts) == 0 {
		return ResponseSynthesis{
			MainResponse: insufficientInfoResponse,
			Confidence:   insufficientInfoConfidence,
			Sources:      []SynthesisSource{},
			Limitations:  []string{"No supporting documents were found for this question."},
			Recommendations: []string{
				"Upload additional supporting documents",
				"Verify the selected document indexes",
				"Answer manually and save to the knowledge base",
			},
		}
	}

	var facts strings.Builder
	for _, f := range extraction.ExtractedFacts {
		fmt.Fprintf(&facts, "- %s (source: %s, confidence: %.2f)\n", f.Fact, f.Source, f.Confidence)
	}

	prompt := fmt.Sprintf(synthesisPromptTemplate,
		r.req.Question,
		analysis.Complexity,
		strings.Join(analysis.RequiredInformation, ", "),
		facts.String(),
	)

	var synthesis ResponseSynthesis
	if err := r.completeJSON(ctx, prompt, synthesisSystemPrompt, &synthesis); err != nil {
		slog.Warn("response synthesis degraded to deterministic assembly", "error", err)
		return fallbackSynthesis(extraction)
	}

	return sanitizeSynthesis(synthesis, extraction)
}

func sanitizeSynthesis(s ResponseSynthesis, extraction InformationExtraction) ResponseSynthesis {
	s.Confidence = clampUnit(s.Confidence)

	// A missing or empty sources array is reconstructed from the facts.
	if len(s.Sources) == 0 {
		s.Sources = sourcesFromFacts(extraction.ExtractedFacts)
	} else {
		for i := range s.Sources {
			s.Sources[i].Relevance = clampUnit(s.Sources[i].Relevance)
		}
	}
	return s
}

func sourcesFromFacts(facts []ExtractedFact) []SynthesisSource {
	seen := make(map[string]bool, len(facts))
	sources := make([]SynthesisSource, 0, len(facts))
	for _, f := range facts {
		if seen[f.Source] {
			continue
		}
		seen[f.Source] = true
		sources = append(sources, SynthesisSource{
			ID:             f.Source,
			Relevance:      f.Confidence,
			UsedInResponse: true,
		})
	}
	return sources
}

// fallbackSynthesis assembles a structured markdown response without the
// model: facts grouped by source (or listed flatly for a single source), a
// Limitations section when information gaps exist, and a Next Steps section.
// Confidence is the mean of per-fact confidences, capped below a high ceiling.
func fallbackSynthesis(extraction InformationExtraction) ResponseSynthesis {
	bySource := make(map[string][]ExtractedFact)
	var order []string
	for _, f := range extraction.ExtractedFacts {
		if _, ok := bySource[f.Source]; !ok {
			order = append(order, f.Source)
		}
		bySource[f.Source] = append(bySource[f.Source], f)
	}

	var body strings.Builder
	body.WriteString("## Response\n\n")
	if len(order) == 1 {
		for _, f := range extraction.ExtractedFacts {
			fmt.Fprintf(&body, "- %s\n", f.Fact)
		}
	} else {
		for _, source := range order {
			fmt.Fprintf(&body, "### %s\n\n", source)
			for _, f := range bySource[source] {
				fmt.Fprintf(&body, "- %s\n", f.Fact)
			}
			body.WriteString("\n")
		}
	}

	var limitations []string
	if len(extraction.MissingInformation) > 0 {
		body.WriteString("\n## Limitations\n\n")
		for _, gap := range extraction.MissingInformation {
			fmt.Fprintf(&body, "- %s\n", gap)
			limitations = append(limitations, gap)
		}
	}

	body.WriteString("\n## Next Steps\n\n- Review the cited sources for additional context\n- Validate this draft with a subject-matter expert before submission\n")

	var sum float64
	for _, f := range extraction.ExtractedFacts {
		sum += f.Confidence
	}
	confidence := sum / float64(len(extraction.ExtractedFacts))
	if confidence > fallbackSynthesisCap {
		confidence = fallbackSynthesisCap
	}

	return ResponseSynthesis{
		MainResponse: body.String(),
		Confidence:   confidence,
		Sources:      sourcesFromFacts(extraction.ExtractedFacts),
		Limitations:  limitations,
		Recommendations: []string{
			"Review the cited sources for additional context",
			"Validate this draft with a subject-matter expert before submission",
		},
	}
}
