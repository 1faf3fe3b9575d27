package rag

import (
	"context"

	"pdf-assistant/internal/config"
	"pdf-assistant/internal/models"
)

// Result is an answered question with the chunks it was answered from
type Result struct {
	Query   *models.AnsweredQuery
	Sources models.RetrievalResult
}

// RAG answers questions against one built index
type RAG struct {
	retriever *Retriever
	answers   *AnswerService
	topK      int
}

func NewRAG(retriever *Retriever, answers *AnswerService, topK int) *RAG {
	return &RAG{retriever: retriever, answers: answers, topK: topK}
}

// Query runs one question through retrieval and a single model call
func (r *RAG) Query(ctx context.Context, question string, params config.LLMConfig) (*Result, error) {
	sources, err := r.retriever.Retrieve(ctx, question, r.topK)
	if err != nil {
		return nil, err
	}
	q, err := r.answers.Answer(ctx, question, sources, params)
	if err != nil {
		return nil, err
	}
	return &Result{Query: q, Sources: sources}, nil
}
