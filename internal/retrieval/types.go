package retrieval

import "context"

// Source is a single retrieved document fragment.
type Source struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	RelevanceScore float64 `json:"relevanceScore"`
	Snippet        string  `json:"snippet"`
	PageNumber     int     `json:"pageNumber,omitempty"`
}

// Result is the shaped output of one retrieval query.
type Result struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Selector names the document indexes a query should search. It is built once
// per pipeline invocation and passed by value on every call; the client itself
// is never reconfigured.
type Selector struct {
	ProjectID string
	IndexIDs  []string
}

type Retriever interface {
	// Query issues one retrieval call against the selected indexes. Safe for
	// concurrent use by multiple pipeline invocations.
	Query(ctx context.Context, text string, sel Selector) (*Result, error)
}
