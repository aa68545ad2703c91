// Package service wires retrieval and generation into the query flow.
package service

import (
	"context"
	"fmt"

	"bookrag/internal/domain"
	"bookrag/internal/embedding"
	"bookrag/internal/generate"
	"bookrag/internal/retriever"
)

// QueryRequest is one generation request.
type QueryRequest struct {
	UserPrompt   string `json:"userPrompt"`
	Platform     string `json:"platform,omitempty"`
	SourceOption string `json:"sourceOption"`
	StockContext string `json:"stockContext,omitempty"`
}

// QueryResponse carries the generated report.
type QueryResponse struct {
	Response  string `json:"response"`
	WordCount int    `json:"wordCount"`
}

// ReportService answers user prompts, optionally grounded in stored chunks.
type ReportService struct {
	embedder  embedding.Embedder
	store     domain.ChunkStore
	generator domain.Generator
	topK      int
}

// NewReportService assembles the query flow. topK bounds how many retrieved
// chunks are injected into the prompt; non-positive values use the default.
func NewReportService(emb embedding.Embedder, store domain.ChunkStore, gen domain.Generator, topK int) *ReportService {
	if topK <= 0 {
		topK = retriever.DefaultTopK
	}
	return &ReportService{embedder: emb, store: store, generator: gen, topK: topK}
}

// Answer runs the query flow: embed the prompt, retrieve the most similar
// chunks, and forward them plus the prompt to the generation service. With
// sourceOption "model" retrieval is skipped entirely and the model answers
// from its own knowledge.
func (s *ReportService) Answer(ctx context.Context, req QueryRequest) (QueryResponse, error) {
	option := generate.SourceOption(req.SourceOption)

	var sourceContext string
	if option.UsesRetrieval() {
		vec, err := s.embedder.Embed(ctx, req.UserPrompt)
		if err != nil {
			return QueryResponse{}, fmt.Errorf("embedding prompt: %w", err)
		}
		corpus, err := s.store.AllChunks(ctx)
		if err != nil {
			return QueryResponse{}, fmt.Errorf("loading corpus: %w", err)
		}
		scored, err := retriever.Retrieve(vec, corpus, s.topK)
		if err != nil {
			return QueryResponse{}, err
		}
		sourceContext = generate.FormatSources(scored)
	}

	prompt := generate.BuildPrompt(req.UserPrompt, option, sourceContext, req.StockContext)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return QueryResponse{}, err
	}
	return QueryResponse{
		Response:  text,
		WordCount: generate.WordCount(text),
	}, nil
}
