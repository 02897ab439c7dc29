// Package retriever executes queries against a named transcript index in
// one of three modes: lexical, vector, or hybrid.
package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"yt-transcript-rag/internal/embedding"
	"yt-transcript-rag/internal/models"
)

// Mode selects how passages are scored.
type Mode string

const (
	Lexical Mode = "lexical"
	Vector  Mode = "vector"
	Hybrid  Mode = "hybrid"
)

// Hybrid blend weights.
const (
	vectorWeight  = 0.6
	lexicalWeight = 0.4
)

// Store supplies the chunks of a built index.
type Store interface {
	IndexExists(ctx context.Context, indexName string) (bool, error)
	ChunksByIndex(ctx context.Context, indexName string) ([]models.TranscriptChunk, error)
}

// Retriever scores an index's chunks against a query.
type Retriever struct {
	store    Store
	embedder embedding.Embedder
}

// New creates a retriever. The embedder may be nil when only lexical mode
// is used.
func New(store Store, embedder embedding.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Search returns at most topK passages ordered by descending relevance,
// ties broken by original chunk order. A missing index yields
// ErrIndexNotFound; an empty result set is a valid outcome.
func (r *Retriever) Search(ctx context.Context, query, indexName string, mode Mode, topK int) ([]models.RetrievedPassage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if topK <= 0 {
		topK = 3
	}

	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve index %s: %w", indexName, err)
	}
	if !exists {
		return nil, fmt.Errorf("index %s: %w", indexName, models.ErrIndexNotFound)
	}

	chunks, err := r.store.ChunksByIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks for %s: %w", indexName, err)
	}
	if len(chunks) == 0 {
		return []models.RetrievedPassage{}, nil
	}

	useLexical := mode == Lexical || mode == Hybrid
	useVector := mode == Vector || mode == Hybrid
	if !useLexical && !useVector {
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}

	var queryEmbedding []float64
	if useVector {
		if r.embedder == nil {
			return nil, fmt.Errorf("embedder not configured for %s mode", mode)
		}
		queryEmbedding, err = r.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
	}

	terms := splitTerms(query)

	// Lexical scores are normalized by the max so both components share a
	// 0..1 range before blending.
	lexicalScores := make([]float64, len(chunks))
	maxLexical := 0.0
	if useLexical {
		for i, chunk := range chunks {
			score := lexicalScore(chunk.Content, terms)
			lexicalScores[i] = score
			if score > maxLexical {
				maxLexical = score
			}
		}
	}

	passages := make([]models.RetrievedPassage, 0, len(chunks))
	for i, chunk := range chunks {
		breakdown := map[string]float64{}

		vectorScore := 0.0
		if useVector && len(chunk.Embedding) == len(queryEmbedding) && len(queryEmbedding) > 0 {
			vectorScore = normalizeCosine(cosineSimilarity(queryEmbedding, chunk.Embedding))
			breakdown["vector"] = vectorScore
		}

		lexicalNorm := 0.0
		if maxLexical > 0 {
			lexicalNorm = lexicalScores[i] / maxLexical
		}
		if lexicalNorm > 0 {
			breakdown["lexical"] = lexicalNorm
		}

		finalScore := 0.0
		switch {
		case useVector && useLexical:
			finalScore = vectorWeight*vectorScore + lexicalWeight*lexicalNorm
		case useVector:
			finalScore = vectorScore
		case useLexical:
			finalScore = lexicalNorm
		}

		if finalScore <= 0 {
			continue
		}

		chunk.Embedding = nil // not needed downstream
		passages = append(passages, models.RetrievedPassage{
			Chunk:          chunk,
			Score:          finalScore,
			ScoreBreakdown: breakdown,
		})
	}

	// Stable sort keeps original chunk order for equal scores.
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})

	if len(passages) > topK {
		passages = passages[:topK]
	}
	return passages, nil
}

func splitTerms(query string) []string {
	query = strings.ToLower(query)
	parts := strings.FieldsFunc(query, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == ',' || r == '.' ||
			r == ':' || r == ';' || r == '?' || r == '!' || r == '/' || r == '\\'
	})
	var terms []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if len(part) >= 2 {
			terms = append(terms, part)
		}
	}
	return terms
}

func lexicalScore(content string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	content = strings.ToLower(content)
	score := 0.0
	for _, term := range terms {
		score += float64(strings.Count(content, term))
	}
	return score
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalizeCosine maps cosine similarity from [-1, 1] to [0, 1].
func normalizeCosine(score float64) float64 {
	if score < -1 {
		score = -1
	} else if score > 1 {
		score = 1
	}
	return (score + 1) / 2
}
