package main

import (
	"log"

	"github.com/run-llama/autorfp/internal/config"
	"github.com/run-llama/autorfp/internal/llm"
	"github.com/run-llama/autorfp/internal/pipeline"
	"github.com/run-llama/autorfp/internal/project"
	"github.com/run-llama/autorfp/internal/retrieval"
	"github.com/run-llama/autorfp/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	llmProvider, err := llm.NewOpenAI(&cfg.OpenAI)
	if err != nil {
		log.Fatalf("failed to create LLM provider: %v", err)
	}

	retriever, err := retrieval.NewClient(&cfg.LlamaCloud)
	if err != nil {
		log.Fatalf("failed to create retrieval client: %v", err)
	}

	p := pipeline.New(llmProvider, retriever, cfg.Pipeline, cfg.OpenAI.Model)

	srv := server.New(*cfg, p, project.NewResolver())
	if err := srv.Run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
