package apimodels

type GenerateRequest struct {
	// Question is the RFP question to answer
	Question string `json:"question"`

	// QuestionID identifies the question record in the surrounding application
	QuestionID string `json:"questionId"`

	// ProjectID selects the project whose document indexes should be searched
	ProjectID string `json:"projectId"`

	// IndexIDs optionally narrows the search to specific indexes within the project
	IndexIDs []string `json:"indexIds,omitempty"`

	// Optional parameters to control generation behavior
	Options GenerateOptions `json:"options,omitempty"`
}

type GenerateOptions struct {
	// Model specifies which LLM model to use (e.g. "gpt-4o")
	Model string `json:"model,omitempty"`

	// Temperature controls randomness (0.0-1.0)
	Temperature float64 `json:"temperature,omitempty"`
}
