package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-llama/autorfp/apimodels"
	"github.com/run-llama/autorfp/internal/config"
	"github.com/run-llama/autorfp/internal/llm"
	"github.com/run-llama/autorfp/internal/pipeline"
	"github.com/run-llama/autorfp/internal/project"
	"github.com/run-llama/autorfp/internal/retrieval"
)

type scriptedLLM struct{}

func (scriptedLLM) Complete(ctx context.Context, prompt string, opts ...llm.Option) (*llm.Response, error) {
	switch {
	case strings.Contains(prompt, "Analyze the following RFP question"):
		return &llm.Response{Content: `{"complexity":"simple","requiredInformation":[],"specificEntities":[],"searchQueries":["security certifications"],"expectedSources":2,"reasoning":"r"}`}, nil
	case strings.Contains(prompt, "extract the facts"):
		return &llm.Response{Content: `{"extractedFacts":[{"fact":"The platform holds SOC 2 Type II certification.","source":"compliance.pdf","confidence":0.9}],"missingInformation":[],"conflictingInformation":[]}`}, nil
	case strings.Contains(prompt, "Write a response to the RFP question"):
		return &llm.Response{Content: `{"mainResponse":"We hold SOC 2 Type II certification [compliance.pdf].","confidence":0.85,"sources":[{"id":"compliance.pdf","relevance":0.9,"usedInResponse":true}],"limitations":[],"recommendations":[]}`}, nil
	case strings.Contains(prompt, "Judge whether the response"):
		return &llm.Response{Content: `{"isValid":true,"improvements":[],"finalConfidence":0.88}`}, nil
	}
	return nil, errors.New("unexpected prompt")
}

type staticRetriever struct{}

func (staticRetriever) Query(ctx context.Context, text string, sel retrieval.Selector) (*retrieval.Result, error) {
	return &retrieval.Result{Sources: []retrieval.Source{
		{ID: "c1", Title: "compliance.pdf", RelevanceScore: 0.9, Snippet: strings.Repeat("SOC 2 Type II audit evidence. ", 5)},
	}}, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0"},
		Pipeline: config.PipelineConfig{
			MaxSteps:               5,
			TimeoutPerStep:         5 * time.Second,
			MinConfidenceThreshold: 0.6,
			FallbackToSingleStep:   true,
		},
	}
	p := pipeline.New(scriptedLLM{}, staticRetriever{}, cfg.Pipeline, "gpt-4o-mini")
	return New(cfg, p, project.NewResolver())
}

func TestHandleGenerate(t *testing.T) {
	s := testServer(t)

	body := `{"question":"What security certifications do you hold?","questionId":"q-9","projectId":"proj-1","indexIds":["idx-1"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp apimodels.MultiStepResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "q-9", resp.QuestionID)
	assert.Len(t, resp.Steps, 5)
	assert.Contains(t, resp.FinalResponse, "SOC 2")
	assert.Greater(t, resp.OverallConfidence, 0.7)
}

func TestHandleGenerateInvalidBody(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGenerateEmptyQuestion(t *testing.T) {
	s := testServer(t)

	body := `{"question":"  ","questionId":"q-9","projectId":"proj-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGenerateMissingProject(t *testing.T) {
	s := testServer(t)

	body := `{"question":"What certifications do you hold?","questionId":"q-9"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGenerateStream(t *testing.T) {
	s := testServer(t)

	body := `{"question":"What security certifications do you hold?","questionId":"q-9","projectId":"proj-1","indexIds":["idx-1"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate/stream", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	payload := rec.Body.String()
	assert.Equal(t, 5, strings.Count(payload, "event: step"))
	assert.Equal(t, 1, strings.Count(payload, "event: response"))

	// Step events precede the final response event.
	assert.Less(t, strings.Index(payload, "event: step"), strings.Index(payload, "event: response"))
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
