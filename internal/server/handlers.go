package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/run-llama/autorfp/apimodels"
	"github.com/run-llama/autorfp/internal/pipeline"
)

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.pipeline.Generate(r.Context(), req)
	if err != nil {
		slog.Error("generate request failed", "question_id", req.QuestionID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleGenerateStream emits one SSE "step" event per terminal StepResult in
// execution order, then a final "response" event carrying the aggregate.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent := func(event string, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.Error("failed to marshal SSE payload", "event", event, "error", err)
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	result, err := s.pipeline.GenerateStream(r.Context(), req, func(step apimodels.StepResult) {
		writeEvent("step", step)
	})
	if err != nil {
		slog.Error("streaming generate failed", "question_id", req.QuestionID, "error", err)
		writeEvent("error", map[string]string{"error": err.Error()})
		return
	}

	writeEvent("response", result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) decodeRequest(r *http.Request) (pipeline.Request, error) {
	var body apimodels.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return pipeline.Request{}, fmt.Errorf("invalid request: %w", err)
	}
	defer r.Body.Close()

	if strings.TrimSpace(body.Question) == "" {
		return pipeline.Request{}, fmt.Errorf("question cannot be empty")
	}

	selector, err := s.resolver.Resolve(body.ProjectID, body.IndexIDs)
	if err != nil {
		return pipeline.Request{}, err
	}

	return pipeline.Request{
		Question:    body.Question,
		QuestionID:  body.QuestionID,
		Selector:    selector,
		Model:       body.Options.Model,
		Temperature: body.Options.Temperature,
	}, nil
}
