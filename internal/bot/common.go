package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bowerhall/mediaqa/internal/extract"
	"github.com/bowerhall/mediaqa/internal/ingest"
	"github.com/bowerhall/mediaqa/internal/llm"
	"github.com/bowerhall/mediaqa/internal/logger"
	"github.com/bowerhall/mediaqa/internal/media"
	"github.com/bowerhall/mediaqa/internal/session"
)

// maxMediaSize is the largest attachment the bots will download (20MB).
const maxMediaSize = 20 * 1024 * 1024

const helpText = "Send me a file or a link, then ask questions about it. Send /clear to forget the current item."

// clearWords drop the session's item. Kept minimal to avoid false positives.
var clearWords = []string{"/clear", "clear", "reset", "forget it"}

// stopWords are acknowledged without being sent to the model as a question.
var stopWords = []string{"stop", "cancel", "abort", "nevermind", "never mind", "quit", "halt"}

func isClearCommand(text string) bool {
	return matchesAny(text, clearWords)
}

func isStopCommand(text string) bool {
	return matchesAny(text, stopWords)
}

func matchesAny(text string, words []string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, word := range words {
		if lower == word {
			return true
		}
	}
	return false
}

// handle runs one chat message through the pipeline and returns the reply.
// Shared by every front-end so the platforms only translate messages.
func handle(ctx context.Context, p Pipeline, msg Message) string {
	text := strings.TrimSpace(msg.Text)

	if msg.Attachment != nil {
		item, err := p.IngestFile(ctx, msg.SessionID, *msg.Attachment)
		if err != nil {
			return replyForError(err)
		}
		if text == "" {
			return ingested(item)
		}
		return ask(ctx, p, msg.SessionID, text)
	}

	switch {
	case text == "/start" || text == "/help":
		return helpText
	case isStopCommand(text):
		return "Okay."
	case isClearCommand(text):
		removed, err := p.Remove(ctx, msg.SessionID)
		if err != nil {
			return replyForError(err)
		}
		if !removed {
			return "Nothing to clear."
		}
		return "Cleared."
	case media.IsLink(text) && !strings.ContainsAny(text, " \n"):
		item, err := p.IngestLink(ctx, msg.SessionID, text)
		if err != nil {
			return replyForError(err)
		}
		return ingested(item)
	}

	return ask(ctx, p, msg.SessionID, text)
}

func ask(ctx context.Context, p Pipeline, sessionID, query string) string {
	answer, err := p.Ask(ctx, sessionID, query)
	if err != nil {
		return replyForError(err)
	}
	return answer
}

func ingested(item media.Item) string {
	return fmt.Sprintf("Got %s (%s). Ask me anything about it.", item.Name, item.Category)
}

func replyForError(err error) string {
	var extErr *extract.ExtractionError
	var remoteErr *extract.RemoteProcessingError

	switch {
	case errors.Is(err, session.ErrBusy):
		return "Still working on your last request."
	case errors.Is(err, ingest.ErrNoItem):
		return "Send a file or link first."
	case errors.Is(err, ingest.ErrEmptyQuery):
		return "What would you like to know?"
	case errors.Is(err, extract.ErrTooLarge):
		return "That file is too large."
	case errors.Is(err, extract.ErrInvalidLink):
		return "That link doesn't look valid."
	case errors.As(err, &extErr):
		return "I couldn't read " + extErr.Name + "."
	case errors.As(err, &remoteErr):
		return "I couldn't process that media right now."
	}

	if upErr, ok := llm.AsUpstream(err); ok && upErr.Status != 0 {
		logger.Error("query failed", "status", upErr.Status, "error", err)
		return "Failed to get response from AI."
	}

	logger.Error("pipeline failed", "error", err)
	return "Something went wrong."
}
