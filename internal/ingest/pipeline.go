package ingest

import (
	"context"
	"errors"
	"strings"

	"github.com/bowerhall/mediaqa/internal/extract"
	"github.com/bowerhall/mediaqa/internal/interaction"
	"github.com/bowerhall/mediaqa/internal/llm"
	"github.com/bowerhall/mediaqa/internal/logger"
	"github.com/bowerhall/mediaqa/internal/media"
	"github.com/bowerhall/mediaqa/internal/prompt"
	"github.com/bowerhall/mediaqa/internal/proxy"
	"github.com/bowerhall/mediaqa/internal/session"
)

var (
	ErrEmptyQuery = errors.New("please enter a query")
	ErrNoItem     = errors.New("please upload a file or submit a link first")
)

// Querier sends a built prompt to the proxy.
type Querier interface {
	Query(ctx context.Context, req proxy.Request) (string, error)
}

// Pipeline runs one user action at a time per session: ingest a file or
// link, ask a question about it, or drop it.
type Pipeline struct {
	sessions  *session.Store
	extractor *extract.Extractor
	querier   Querier
}

func New(sessions *session.Store, extractor *extract.Extractor, querier Querier) *Pipeline {
	return &Pipeline{
		sessions:  sessions,
		extractor: extractor,
		querier:   querier,
	}
}

// IngestFile classifies and extracts a local file and makes it the session's
// item. On any failure the previous item is left in place.
func (p *Pipeline) IngestFile(ctx context.Context, sessionID string, src extract.Source) (media.Item, error) {
	sess, err := p.sessions.Acquire(sessionID)
	if err != nil {
		return media.Item{}, err
	}
	defer sess.Release()

	category := media.Classify(src.MimeType, src.Name)

	payload, err := p.extractor.Extract(ctx, src, category)
	if err != nil {
		logger.Warn("ingest failed", "session", sessionID, "name", src.Name, "category", category, "error", err)
		return media.Item{}, err
	}

	item := media.NewItem(src.Name, src.MimeType, int64(len(src.Data)), category)
	payload.Apply(&item)
	sess.SetItem(item)

	logger.Info("file ingested", "session", sessionID, "name", item.Name, "category", category, "size", item.SizeBytes)

	return item, nil
}

// IngestLink makes a submitted URL the session's item. Video links are
// transcribed when a transcription service is available.
func (p *Pipeline) IngestLink(ctx context.Context, sessionID, link string) (media.Item, error) {
	sess, err := p.sessions.Acquire(sessionID)
	if err != nil {
		return media.Item{}, err
	}
	defer sess.Release()

	link = strings.TrimSpace(link)
	category := media.ClassifyLink(link)

	payload, err := p.extractor.ExtractLink(ctx, link, category)
	if err != nil {
		logger.Warn("link ingest failed", "session", sessionID, "link", link, "error", err)
		return media.Item{}, err
	}

	var mimeType string
	if category == media.CategoryVideo {
		mimeType = "video/youtube"
	}

	item := media.NewItem(link, mimeType, 0, category)
	payload.Apply(&item)
	sess.SetItem(item)

	logger.Info("link ingested", "session", sessionID, "link", link, "category", category, "transcribed", item.ExtractedText != "")

	return item, nil
}

// Ask builds the prompt from the session's item and sends it with the
// item's snapshot.
func (p *Pipeline) Ask(ctx context.Context, sessionID, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
	}

	sess, err := p.sessions.Acquire(sessionID)
	if err != nil {
		return "", err
	}
	defer sess.Release()

	item, ok := sess.Item()
	if !ok {
		return "", ErrNoItem
	}

	req := proxy.Request{
		Prompt: prompt.Build(prompt.Assemble([]media.Item{item}), query),
		File:   interaction.SnapshotOf(item, prompt.MaxContentChars),
	}

	logger.Debug("asking", "session", sessionID, "item", item.Name, "prompt_len", len(req.Prompt))

	answer, err := p.querier.Query(ctx, req)
	if err != nil {
		return "", err
	}

	if answer == "" {
		answer = llm.NoResponse
	}

	return answer, nil
}

// Remove drops the session's item and reports whether there was one.
func (p *Pipeline) Remove(ctx context.Context, sessionID string) (bool, error) {
	sess, err := p.sessions.Acquire(sessionID)
	if err != nil {
		return false, err
	}
	defer sess.Release()

	return sess.Remove(), nil
}

// Current returns the session's item, if any.
func (p *Pipeline) Current(sessionID string) (media.Item, bool) {
	return p.sessions.Get(sessionID).Item()
}

// Sessions reports how many sessions are held.
func (p *Pipeline) Sessions() int {
	return p.sessions.Len()
}
