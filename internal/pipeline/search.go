package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/run-llama/autorfp/internal/retrieval"
)

// searchDocuments issues one retrieval call per query, in order. A failing
// query yields an insufficient-coverage result with zero sources rather than
// aborting the batch, so the output always has the same cardinality as the
// input queries.
func (r *run) searchDocuments(ctx context.Context, queries []string) []DocumentSearchResult {
	results := make([]DocumentSearchResult, 0, len(queries))
	for _, query := range queries {
		res, err := r.p.retriever.Query(ctx, query, r.req.Selector)
		if err != nil {
			slog.Warn("search query failed, recording empty result", "query", query, "error", err)
			results = append(results, DocumentSearchResult{
				Query:    query,
				Coverage: CoverageInsufficient,
			})
			continue
		}

		sources := dedupeSources(res.Sources)
		results = append(results, DocumentSearchResult{
			Query:           query,
			DocumentsFound:  len(res.Sources),
			RelevantSources: sources,
			Coverage:        computeCoverage(query, len(res.Sources)),
		})
	}
	return results
}

// dedupeSources drops repeated source IDs, keeping first (highest-ranked)
// occurrences.
func dedupeSources(sources []retrieval.Source) []retrieval.Source {
	seen := make(map[string]bool, len(sources))
	out := make([]retrieval.Source, 0, len(sources))
	for _, s := range sources {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

// computeCoverage judges retrieval sufficiency relative to query complexity:
// no sources is insufficient, at least half the query's word count is
// complete, anything between is partial.
func computeCoverage(query string, count int) Coverage {
	if count == 0 {
		return CoverageInsufficient
	}
	words := len(strings.Fields(query))
	if float64(count) >= float64(words)/2 {
		return CoverageComplete
	}
	return CoveragePartial
}
