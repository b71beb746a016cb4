package media

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContentKind tags which representation Item.Content holds.
type ContentKind string

const (
	ContentNone        ContentKind = ""
	ContentText        ContentKind = "text"
	ContentDataURL     ContentKind = "data_url"
	ContentURL         ContentKind = "url"
	ContentPlaceholder ContentKind = "placeholder"
)

// Enrichment is metadata attached once the transcription service answers.
type Enrichment struct {
	TranscriptID string `json:"transcript_id,omitempty"`
	Summary      string `json:"summary,omitempty"`
	Sentiment    any    `json:"sentiment,omitempty"`
}

// Item is one ingested file or link. Category is decided when the item is
// created and downstream stages trust it as stored.
type Item struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	MimeType      string      `json:"mime_type"`
	SizeBytes     int64       `json:"size_bytes"`
	Category      Category    `json:"category"`
	Kind          ContentKind `json:"kind"`
	Content       string      `json:"content,omitempty"`
	ExtractedText string      `json:"extracted_text,omitempty"`
	Enrichment    *Enrichment `json:"enrichment,omitempty"`
	IngestedAt    time.Time   `json:"ingested_at"`
}

// NewItem stamps a fresh id and ingestion time.
func NewItem(name, mimeType string, size int64, category Category) Item {
	return Item{
		ID:         uuid.NewString(),
		Name:       name,
		MimeType:   mimeType,
		SizeBytes:  size,
		Category:   category,
		IngestedAt: time.Now().UTC(),
	}
}

// HasText reports whether Content holds inline decoded text.
func (i Item) HasText() bool {
	return i.Kind == ContentText
}

// Summary returns the enrichment summary, if any.
func (i Item) Summary() string {
	if i.Enrichment == nil {
		return ""
	}
	return i.Enrichment.Summary
}

// Sentiment returns the enrichment sentiment, if any.
func (i Item) Sentiment() any {
	if i.Enrichment == nil {
		return nil
	}
	return i.Enrichment.Sentiment
}

// IsLink reports whether s is an http(s) link.
func IsLink(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsAbsoluteURL reports whether s parses as an absolute URL with a host.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}
