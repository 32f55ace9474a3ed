// Package project resolves caller-supplied project and index identifiers into
// the immutable selector the retrieval gateway understands. The resolution
// happens once per request, before the pipeline starts; the retrieval client
// itself is never mutated.
package project

import (
	"fmt"
	"log/slog"

	"github.com/run-llama/autorfp/internal/retrieval"
)

// Resolver validates and normalizes index selection for a project. Index
// membership is enforced upstream by the application database; here we only
// guarantee a well-formed, duplicate-free selector.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

func (r *Resolver) Resolve(projectID string, indexIDs []string) (retrieval.Selector, error) {
	if projectID == "" {
		return retrieval.Selector{}, fmt.Errorf("project ID cannot be empty")
	}

	seen := make(map[string]bool, len(indexIDs))
	deduped := make([]string, 0, len(indexIDs))
	for _, id := range indexIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)
	}

	slog.Debug("resolved index selector", "project", projectID, "indexes", len(deduped))
	return retrieval.Selector{
		ProjectID: projectID,
		IndexIDs:  deduped,
	}, nil
}
