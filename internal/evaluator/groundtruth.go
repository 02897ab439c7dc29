// Package evaluator generates ground-truth questions and judges the
// system's answers to them.
package evaluator

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"yt-transcript-rag/internal/llm"
	"yt-transcript-rag/internal/models"
	"yt-transcript-rag/internal/prompt"
)

// GroundTruthFile is the default location of the question set, relative to
// the data directory.
const GroundTruthFile = "ground-truth-retrieval.csv"

// ChunkStore provides indexed transcript text.
type ChunkStore interface {
	ChunksByIndex(ctx context.Context, indexName string) ([]models.TranscriptChunk, error)
}

type groundTruthResponse struct {
	Questions []string `json:"questions"`
}

// GenerateGroundTruth asks the language model for evaluation questions
// about one indexed video. The transcript text is reassembled from the
// stored chunks.
func GenerateGroundTruth(ctx context.Context, store ChunkStore, gen llm.Generator, videoID, indexName string) ([]models.GroundTruthItem, error) {
	chunks, err := store.ChunksByIndex(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("loading chunks for %s: %w", indexName, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("index %s has no chunks", indexName)
	}

	var sb strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(chunk.Content)
	}

	raw, err := gen.Complete(ctx, prompt.GroundTruth(sb.String()))
	if err != nil {
		return nil, err
	}

	var resp groundTruthResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		return nil, &models.GroundTruthParseError{Raw: raw, Err: err}
	}
	if len(resp.Questions) == 0 {
		return nil, &models.GroundTruthParseError{Raw: raw, Err: fmt.Errorf("response contains no questions")}
	}

	items := make([]models.GroundTruthItem, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		items = append(items, models.GroundTruthItem{VideoID: videoID, Question: q})
	}
	return items, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some
// models wrap JSON responses in despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// SaveGroundTruth appends items to a CSV file, writing the header only when
// the file is new. The data directory is created on first use.
func SaveGroundTruth(path string, items []models.GroundTruthItem) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write([]string{"video_id", "question"}); err != nil {
			return err
		}
	}
	for _, item := range items {
		if err := w.Write([]string{item.VideoID, item.Question}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// LoadGroundTruth reads a question set from CSV.
func LoadGroundTruth(path string) ([]models.GroundTruthItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var items []models.GroundTruthItem
	for i, row := range rows {
		if i == 0 && len(row) >= 1 && row[0] == "video_id" {
			continue
		}
		if len(row) < 2 {
			continue
		}
		items = append(items, models.GroundTruthItem{VideoID: row[0], Question: row[1]})
	}
	return items, nil
}
