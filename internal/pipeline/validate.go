package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	maxAcceptableLimitations = 3
	minSourcesUsed           = 2
	validationBoostFactor    = 1.05
)

const validationSystemPrompt = `You are a quality reviewer for RFP responses.`

const validationPromptTemplate = `Judge whether the response below adequately addresses the question, given its complexity and the information it requires.

Return a JSON object with this exact shape:
{
  "isValid": true|false,
  "improvements": ["concrete improvement suggestion", ...],
  "finalConfidence": <0.0-1.0>
}

Question: %s
Question complexity: %s
Synthesis confidence: %.2f

Response:
%s`

// validateResponse sanity-checks the synthesized response and settles the
// final confidence. On gateway or parse failure it applies deterministic
// rule-based checks instead.
func (r *run) validateResponse(ctx context.Context, analysis QuestionAnalysis, synthesis ResponseSynthesis) ResponseValidation {
	prompt := fmt.Sprintf(validationPromptTemplate,
		r.req.Question,
		analysis.Complexity,
		synthesis.Confidence,
		synthesis.MainResponse,
	)

	var validation ResponseValidation
	if err := r.completeJSON(ctx, prompt, validationSystemPrompt, &validation); err != nil {
		slog.Warn("response validation degraded to rule-based checks", "error", err)
		return fallbackValidation(synthesis, r.p.cfg.MinConfidenceThreshold)
	}

	validation.FinalConfidence = clampUnit(validation.FinalConfidence)
	return validation
}

// fallbackValidation applies fixed rules: low synthesis confidence, too many
// limitations, and thin sourcing each produce an improvement note. The final
// confidence is the synthesis confidence with a small boost, capped at 1.0.
func fallbackValidation(synthesis ResponseSynthesis, threshold float64) ResponseValidation {
	var improvements []string

	if synthesis.Confidence < threshold {
		improvements = append(improvements,
			fmt.Sprintf("Response confidence %.2f is below the %.2f threshold; consider adding more supporting documents.", synthesis.Confidence, threshold))
	}
	if len(synthesis.Limitations) > maxAcceptableLimitations {
		improvements = append(improvements,
			"Response carries many limitations; narrowing the question or adding documents may help.")
	}

	used := 0
	for _, s := range synthesis.Sources {
		if s.UsedInResponse {
			used++
		}
	}
	if used < minSourcesUsed {
		improvements = append(improvements,
			"Response draws on fewer than two sources; corroboration from additional documents is recommended.")
	}

	return ResponseValidation{
		IsValid:         synthesis.Confidence >= threshold,
		Improvements:    improvements,
		FinalConfidence: clampUnit(synthesis.Confidence * validationBoostFactor),
	}
}
