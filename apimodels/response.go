package apimodels

import "time"

type StepStatus string

const (
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// StepResult is the uniform record produced for every pipeline stage.
type StepResult struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime,omitempty"`

	// Duration of the step in milliseconds
	Duration int64 `json:"duration"`

	// Output is the stage-specific payload, present iff Status is completed
	Output any `json:"output,omitempty"`

	// Error message, present iff Status is failed
	Error string `json:"error,omitempty"`
}

// ResponseSource is a cited document fragment resolved from the search results.
type ResponseSource struct {
	ID          string  `json:"id"`
	FileName    string  `json:"fileName"`
	Relevance   float64 `json:"relevance"`
	PageNumber  int     `json:"pageNumber,omitempty"`
	TextContent string  `json:"textContent,omitempty"`
}

type ResponseMetadata struct {
	// Model used for generation, or "fallback" when the pipeline degraded
	// to single-call generation
	ModelUsed string `json:"modelUsed"`

	// Estimated token usage; approximate diagnostic, not billing-accurate
	TokensUsed int `json:"tokensUsed"`

	// StepsCompleted counts steps with status=completed
	StepsCompleted int `json:"stepsCompleted"`

	ProcessingStartTime time.Time `json:"processingStartTime"`
	ProcessingEndTime   time.Time `json:"processingEndTime"`
}

// MultiStepResponse is the final aggregate returned to callers.
type MultiStepResponse struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`

	// Steps in execution order; may hold fewer than five entries when the
	// pipeline degraded to the single-call fallback
	Steps []StepResult `json:"steps"`

	FinalResponse     string  `json:"finalResponse"`
	OverallConfidence float64 `json:"overallConfidence"`

	// TotalDuration is wall-clock milliseconds from pipeline start to completion
	TotalDuration int64 `json:"totalDuration"`

	Sources  []ResponseSource `json:"sources"`
	Metadata ResponseMetadata `json:"metadata"`
}
