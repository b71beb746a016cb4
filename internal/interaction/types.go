package interaction

import (
	"context"
	"time"

	"github.com/bowerhall/mediaqa/internal/media"
)

// FileSnapshot is the persisted view of the file a query was asked about.
type FileSnapshot struct {
	Name        string    `json:"name" bson:"name"`
	Type        string    `json:"type,omitempty" bson:"type,omitempty"`
	Size        int64     `json:"size,omitempty" bson:"size,omitempty"`
	Category    string    `json:"category" bson:"category"`
	Content     string    `json:"content,omitempty" bson:"content,omitempty"`
	ProcessedAt time.Time `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
	URL         string    `json:"url,omitempty" bson:"url,omitempty"`
}

// Interaction is one query/response cycle. Records are append-only.
type Interaction struct {
	File      *FileSnapshot `json:"file" bson:"file"`
	Query     string        `json:"query" bson:"query"`
	Response  string        `json:"response" bson:"response"`
	Timestamp time.Time     `json:"timestamp" bson:"timestamp"`
}

// Store appends interactions. Recent is read-back for auditing and is not
// needed by the query path.
type Store interface {
	Append(ctx context.Context, in Interaction) error
	Recent(ctx context.Context, limit int) ([]Interaction, error)
	Close() error
}

// SnapshotOf builds the structured snapshot a client can send alongside the
// rendered prompt, so the proxy does not have to parse it back out.
func SnapshotOf(item media.Item, maxContent int) *FileSnapshot {
	snap := &FileSnapshot{
		Name:        item.Name,
		Type:        item.MimeType,
		Size:        item.SizeBytes,
		Category:    item.Category.String(),
		ProcessedAt: item.IngestedAt,
	}

	switch {
	case item.ExtractedText != "":
		snap.Content = clip(item.ExtractedText, maxContent)
	case item.HasText():
		snap.Content = clip(item.Content, maxContent)
	}

	if item.Kind == media.ContentURL || media.IsLink(item.Content) {
		snap.URL = item.Content
		if snap.Content == "" {
			snap.Content = item.Content
		}
	}

	return snap
}

func clip(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
