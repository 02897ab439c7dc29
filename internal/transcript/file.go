package transcript

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"yt-transcript-rag/internal/models"
)

// LoadFile reads a raw transcript from a local .txt or .pdf file and wraps
// it as a Transcript with a synthetic video ID. Supports the
// "use existing transcript" flow where no YouTube fetch happens.
func LoadFile(path string) (*Transcript, error) {
	var text string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = extractPDFText(path)
	default:
		var data []byte
		data, err = os.ReadFile(path)
		if err == nil {
			text = string(data)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript file: %w", err)
	}

	text = normalizeWhitespace(text)
	if text == "" {
		return nil, fmt.Errorf("%s: %w", path, models.ErrTranscriptUnavailable)
	}

	id := "custom"
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name != "" {
		id = "custom_" + name
	}

	return &Transcript{
		VideoID:  id,
		Segments: []Segment{{Text: text, Start: 0}},
		Metadata: models.Video{
			YouTubeID: id,
			Title:     name,
			Author:    "local file",
		},
	}, nil
}

// extractPDFText extracts plain text from a PDF file.
func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract plain text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(b); err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return buf.String(), nil
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
