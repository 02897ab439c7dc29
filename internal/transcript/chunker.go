package transcript

import (
	"strings"

	"yt-transcript-rag/internal/models"
)

const (
	// MinChunkSize guards against degenerate tiny trailing chunks.
	MinChunkSize = 100
)

// Chunker splits a transcript into retrievable chunks. Consecutive caption
// segments are merged until the chunk reaches ChunkSize characters; a new
// chunk then starts, carrying the last ChunkOverlap characters of the
// previous one. Boundaries only depend on the input, so the same transcript
// always produces the same chunks.
type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewChunker creates a chunker. Non-positive values fall back to defaults.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Chunker{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// Chunk converts a transcript into ordered chunks for indexName.
func (c *Chunker) Chunk(t *Transcript, indexName string) []models.TranscriptChunk {
	var chunks []models.TranscriptChunk

	var sb strings.Builder
	chunkStart := 0.0
	started := false

	flush := func() {
		content := strings.TrimSpace(sb.String())
		if content == "" {
			return
		}
		chunks = append(chunks, models.TranscriptChunk{
			IndexName:    indexName,
			Position:     len(chunks),
			Content:      content,
			StartSeconds: chunkStart,
		})
	}

	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if !started {
			chunkStart = seg.Start
			started = true
		}

		// Long segments are split at sentence boundaries so one run-on
		// caption cannot blow past the chunk size.
		for _, part := range splitOversized(text, c.ChunkSize) {
			if sb.Len() > 0 && sb.Len()+len(part)+1 > c.ChunkSize {
				overlap := tailWords(sb.String(), c.ChunkOverlap)
				flush()
				sb.Reset()
				chunkStart = seg.Start
				if overlap != "" {
					sb.WriteString(overlap)
				}
			}
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(part)
		}
	}

	// A tiny trailing chunk is folded into the previous one.
	tail := strings.TrimSpace(sb.String())
	if tail != "" {
		if len(tail) < MinChunkSize && len(chunks) > 0 {
			chunks[len(chunks)-1].Content += " " + tail
		} else {
			flush()
		}
	}

	return chunks
}

// splitOversized breaks text longer than limit at sentence ends, falling
// back to word boundaries.
func splitOversized(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var sb strings.Builder
	for _, word := range strings.Fields(text) {
		if sb.Len() > 0 && sb.Len()+len(word)+1 > limit {
			parts = append(parts, sb.String())
			sb.Reset()
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(word)
	}
	if sb.Len() > 0 {
		parts = append(parts, sb.String())
	}
	return parts
}

// tailWords returns at most n trailing characters of s, cut at a word
// boundary.
func tailWords(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || s == "" {
		return ""
	}
	if len(s) <= n {
		return s
	}
	cut := s[len(s)-n:]
	if idx := strings.IndexByte(cut, ' '); idx >= 0 {
		cut = cut[idx+1:]
	}
	return strings.TrimSpace(cut)
}
