// Package rag wires retrieval, prompting and generation into the
// question-answering flow.
package rag

import (
	"context"
	"log"

	"yt-transcript-rag/internal/llm"
	"yt-transcript-rag/internal/models"
	"yt-transcript-rag/internal/prompt"
	"yt-transcript-rag/internal/retriever"
	"yt-transcript-rag/internal/rewriter"
)

// NoAnswerText is returned when retrieval yields no passages; the language
// model is not invoked in that case.
const NoAnswerText = "I couldn't find any relevant information in the transcript to answer your question."

const defaultTopK = 3

// System answers questions over indexed transcripts.
type System struct {
	Retriever *retriever.Retriever
	Generator llm.Generator
	Rewriter  *rewriter.Rewriter
}

// New creates a question-answering system.
func New(r *retriever.Retriever, g llm.Generator) *System {
	return &System{
		Retriever: r,
		Generator: g,
		Rewriter:  &rewriter.Rewriter{Generator: g},
	}
}

// Options control a single query.
type Options struct {
	Mode            retriever.Mode
	TopK            int
	RewriteStrategy rewriter.Strategy
}

// Query runs the full retrieve-then-generate flow for one question.
func (s *System) Query(ctx context.Context, question, indexName string, opts Options) (*models.Answer, error) {
	if opts.Mode == "" {
		opts.Mode = retriever.Hybrid
	}
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}

	searchQuery := question
	if opts.RewriteStrategy != "" {
		rewritten, _, err := s.Rewriter.Rewrite(ctx, question, opts.RewriteStrategy)
		if err != nil {
			return nil, err
		}
		if rewritten != question {
			log.Printf("Rewrote query to: %s", rewritten)
		}
		searchQuery = rewritten
	}

	passages, err := s.Retriever.Search(ctx, searchQuery, indexName, opts.Mode, opts.TopK)
	if err != nil {
		return nil, err
	}
	if len(passages) == 0 {
		return &models.Answer{Text: NoAnswerText}, nil
	}

	p := prompt.Build(question, passages)
	text, err := s.Generator.Complete(ctx, p)
	if err != nil {
		return nil, err
	}
	return &models.Answer{Text: text, Prompt: p, Passages: passages}, nil
}
