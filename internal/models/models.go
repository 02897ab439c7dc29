package models

// Video holds metadata for a processed YouTube video. Created on first
// successful transcript fetch and never mutated afterwards.
type Video struct {
	ID           int    `json:"id"`
	YouTubeID    string `json:"youtube_id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	UploadDate   string `json:"upload_date"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	Duration     string `json:"duration"`
}

// TranscriptChunk is a contiguous span of transcript text. Chunks are
// derived deterministically from a transcript at index-build time and only
// regenerated by rebuilding the index.
type TranscriptChunk struct {
	ID           int       `json:"id"`
	IndexName    string    `json:"index_name"`
	Position     int       `json:"position"`
	Content      string    `json:"content"`
	StartSeconds float64   `json:"start_seconds"`
	Embedding    []float64 `json:"embedding,omitempty"`
}

// RetrievedPassage pairs a chunk with its relevance score for one query.
// Ephemeral, produced per-query.
type RetrievedPassage struct {
	Chunk          TranscriptChunk    `json:"chunk"`
	Score          float64            `json:"score"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown,omitempty"`
}

// Answer is a model response plus the exact prompt that produced it,
// retained for auditability.
type Answer struct {
	Text     string             `json:"text"`
	Prompt   string             `json:"prompt"`
	Passages []RetrievedPassage `json:"passages,omitempty"`
}

// GroundTruthItem is an LLM-generated evaluation question for a video.
type GroundTruthItem struct {
	VideoID  string `json:"video_id"`
	Question string `json:"question"`
}

// EvaluationRecord is one judged answer, appended to the evaluation store
// and never mutated.
type EvaluationRecord struct {
	ID          string `json:"id"`
	VideoID     string `json:"video_id"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Relevance   string `json:"relevance"`
	Explanation string `json:"explanation"`
}

// Relevance labels assigned by the judge model.
const (
	RelevanceNone    = "NON_RELEVANT"
	RelevancePartly  = "PARTLY_RELEVANT"
	RelevanceFull    = "RELEVANT"
	RelevanceUnknown = "UNKNOWN"
)
