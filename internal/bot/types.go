package bot

import (
	"context"

	"github.com/bowerhall/mediaqa/internal/extract"
	"github.com/bowerhall/mediaqa/internal/media"
)

type Bot interface {
	Start(ctx context.Context) error
	Send(chatID int64, message string) error
}

// Pipeline is the part of the ingest pipeline the chat front-ends drive.
type Pipeline interface {
	IngestFile(ctx context.Context, sessionID string, src extract.Source) (media.Item, error)
	IngestLink(ctx context.Context, sessionID, link string) (media.Item, error)
	Ask(ctx context.Context, sessionID, query string) (string, error)
	Remove(ctx context.Context, sessionID string) (bool, error)
}

// Message is an incoming chat message reduced to what the pipeline needs.
type Message struct {
	SessionID  string
	Text       string
	Attachment *extract.Source
}
