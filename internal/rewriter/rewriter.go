// Package rewriter produces alternative phrasings of user queries by
// delegating to the generator.
package rewriter

import (
	"context"
	"fmt"
	"log"
	"strings"

	"yt-transcript-rag/internal/llm"
	"yt-transcript-rag/internal/prompt"
)

// Strategy selects the rewrite prompt template.
type Strategy string

const (
	ChainOfThought Strategy = "chain_of_thought"
	ReAct          Strategy = "react"
)

// Rewriter rewrites queries through a generator.
type Rewriter struct {
	Generator llm.Generator
}

// New creates a rewriter on top of gen.
func New(gen llm.Generator) *Rewriter {
	return &Rewriter{Generator: gen}
}

// Rewrite returns the rewritten query and the prompt that produced it. On
// generator failure the original query is returned unchanged together with
// the attempted prompt; callers detect rewritten == original as the
// soft-failure signal.
func (r *Rewriter) Rewrite(ctx context.Context, query string, strategy Strategy) (string, string, error) {
	var p string
	switch strategy {
	case ChainOfThought:
		p = prompt.ChainOfThoughtRewrite(query)
	case ReAct:
		p = prompt.ReActRewrite(query)
	default:
		return "", "", fmt.Errorf("unknown rewrite strategy %q", strategy)
	}

	rewritten, err := r.Generator.Complete(ctx, p)
	if err != nil {
		log.Printf("Warning: query rewriting failed, using original query: %v", err)
		return query, p, nil
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return query, p, nil
	}
	return rewritten, p, nil
}
