package evaluator

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"

	"yt-transcript-rag/internal/indexer"
	"yt-transcript-rag/internal/llm"
	"yt-transcript-rag/internal/models"
	"yt-transcript-rag/internal/prompt"
	"yt-transcript-rag/internal/rag"
	"yt-transcript-rag/internal/retriever"
)

// DefaultSeed fixes the sampling order so repeated runs over the same
// question set evaluate the same items.
const DefaultSeed = 1

// EvalStore persists judged answers.
type EvalStore interface {
	IndexExists(ctx context.Context, indexName string) (bool, error)
	AddEvaluation(ctx context.Context, rec *models.EvaluationRecord) error
}

// Evaluator runs the answer-and-judge loop over a ground-truth set.
type Evaluator struct {
	Store     EvalStore
	System    *rag.System
	Judge     llm.Generator
	ModelName string
	Mode      retriever.Mode
	Seed      int64
}

// New creates an evaluator. The judge defaults to the system's own
// generator and sampling to the fixed default seed.
func New(store EvalStore, system *rag.System, modelName string) *Evaluator {
	return &Evaluator{
		Store:     store,
		System:    system,
		Judge:     system.Generator,
		ModelName: modelName,
		Mode:      retriever.Hybrid,
		Seed:      DefaultSeed,
	}
}

type judgeResponse struct {
	Relevance   string `json:"Relevance"`
	Explanation string `json:"Explanation"`
}

// Sample picks sampleSize items without replacement in a seed-determined
// order. A sample size of zero or beyond the set's length selects
// everything.
func (e *Evaluator) Sample(items []models.GroundTruthItem, sampleSize int) []models.GroundTruthItem {
	if sampleSize <= 0 || sampleSize > len(items) {
		sampleSize = len(items)
	}
	rng := rand.New(rand.NewSource(e.Seed))
	perm := rng.Perm(len(items))
	sampled := make([]models.GroundTruthItem, 0, sampleSize)
	for _, idx := range perm[:sampleSize] {
		sampled = append(sampled, items[idx])
	}
	return sampled
}

// Evaluate answers and judges a sample of ground-truth questions. Items
// whose video has no index, and items whose judgement cannot be parsed,
// are logged and skipped; a failed item never aborts the batch.
func (e *Evaluator) Evaluate(ctx context.Context, items []models.GroundTruthItem, sampleSize int) ([]models.EvaluationRecord, error) {
	sampled := e.Sample(items, sampleSize)
	records := make([]models.EvaluationRecord, 0, len(sampled))

	for i, item := range sampled {
		indexName := indexer.IndexName(item.VideoID, e.ModelName)
		exists, err := e.Store.IndexExists(ctx, indexName)
		if err != nil {
			return records, err
		}
		if !exists {
			log.Printf("Warning: no index for video %s, skipping question %q", item.VideoID, item.Question)
			continue
		}

		answer, err := e.System.Query(ctx, item.Question, indexName, rag.Options{Mode: e.Mode})
		if err != nil {
			log.Printf("Warning: answering %q failed: %v", item.Question, err)
			continue
		}

		rec, err := e.judge(ctx, item, answer.Text)
		if err != nil {
			log.Printf("Warning: judging %q failed: %v", item.Question, err)
			continue
		}

		if err := e.Store.AddEvaluation(ctx, rec); err != nil {
			return records, err
		}
		records = append(records, *rec)
		log.Printf("Evaluated %d/%d: %s", i+1, len(sampled), rec.Relevance)
	}

	return records, nil
}

func (e *Evaluator) judge(ctx context.Context, item models.GroundTruthItem, answer string) (*models.EvaluationRecord, error) {
	raw, err := e.Judge.Complete(ctx, prompt.Judge(item.Question, answer))
	if err != nil {
		return nil, err
	}

	var resp judgeResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		return nil, &models.JudgeParseError{Raw: raw, Err: err}
	}

	relevance := resp.Relevance
	switch relevance {
	case models.RelevanceNone, models.RelevancePartly, models.RelevanceFull:
	default:
		relevance = models.RelevanceUnknown
	}

	return &models.EvaluationRecord{
		VideoID:     item.VideoID,
		Question:    item.Question,
		Answer:      answer,
		Relevance:   relevance,
		Explanation: resp.Explanation,
	}, nil
}

// Summarize tallies relevance labels across records.
func Summarize(records []models.EvaluationRecord) map[string]int {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Relevance]++
	}
	return counts
}
