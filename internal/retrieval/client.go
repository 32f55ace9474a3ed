package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/run-llama/autorfp/internal/config"
)

// Client talks to the managed index service's retrieval endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	topK       int
}

func NewClient(cfg *config.LlamaCloudConfig) (*Client, error) {
	slog.Info("Creating retrieval client", "endpoint", cfg.APIEndpoint)
	if cfg.APIEndpoint == "" {
		return nil, fmt.Errorf("retrieval endpoint cannot be empty")
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil

	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}

	return &Client{
		httpClient: rc.StandardClient(),
		endpoint:   cfg.APIEndpoint,
		apiKey:     cfg.APIKey,
		topK:       topK,
	}, nil
}

type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"dense_similarity_top_k"`
}

type retrieveResponse struct {
	Nodes []struct {
		Node struct {
			ID       string `json:"id_"`
			Text     string `json:"text"`
			Metadata struct {
				FileName  string `json:"file_name"`
				PageLabel int    `json:"page_label"`
			} `json:"metadata"`
		} `json:"node"`
		Score float64 `json:"score"`
	} `json:"retrieval_nodes"`
}

// Query fans out to every selected index, merges the ranked snippets, and
// keeps the topK highest-scoring unique sources.
func (c *Client) Query(ctx context.Context, text string, sel Selector) (*Result, error) {
	if len(sel.IndexIDs) == 0 {
		return &Result{}, nil
	}

	seen := make(map[string]bool)
	var sources []Source
	for _, indexID := range sel.IndexIDs {
		nodes, err := c.retrieve(ctx, indexID, text)
		if err != nil {
			return nil, fmt.Errorf("retrieve from index %s: %w", indexID, err)
		}
		for _, src := range nodes {
			if seen[src.ID] {
				continue
			}
			seen[src.ID] = true
			sources = append(sources, src)
		}
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].RelevanceScore > sources[j].RelevanceScore
	})
	if len(sources) > c.topK {
		sources = sources[:c.topK]
	}

	var combined bytes.Buffer
	for _, src := range sources {
		combined.WriteString(src.Snippet)
		combined.WriteString("\n\n")
	}

	return &Result{
		Text:    combined.String(),
		Sources: sources,
	}, nil
}

func (c *Client) retrieve(ctx context.Context, indexID, query string) ([]Source, error) {
	body, err := json.Marshal(retrieveRequest{Query: query, TopK: c.topK})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v1/pipelines/%s/retrieve", c.endpoint, indexID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("retrieval returned status %d: %s", resp.StatusCode, string(payload))
	}

	var parsed retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode retrieval response: %w", err)
	}

	sources := make([]Source, 0, len(parsed.Nodes))
	for _, n := range parsed.Nodes {
		sources = append(sources, Source{
			ID:             n.Node.ID,
			Title:          n.Node.Metadata.FileName,
			RelevanceScore: clampScore(n.Score),
			Snippet:        n.Node.Text,
			PageNumber:     n.Node.Metadata.PageLabel,
		})
	}
	slog.Debug("retrieval query completed", "index", indexID, "hits", len(sources))
	return sources, nil
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
