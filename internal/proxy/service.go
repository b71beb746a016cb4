package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bowerhall/mediaqa/internal/extract"
	"github.com/bowerhall/mediaqa/internal/interaction"
	"github.com/bowerhall/mediaqa/internal/llm"
	"github.com/bowerhall/mediaqa/internal/logger"
	"github.com/bowerhall/mediaqa/internal/media"
	"github.com/bowerhall/mediaqa/internal/prompt"
	"github.com/bowerhall/mediaqa/internal/transcribe"
)

var ErrPromptRequired = errors.New("prompt is required")

// Request is a query as sent by a client. File is optional; when present it
// is recorded as is instead of being parsed back out of Prompt.
type Request struct {
	Prompt string                    `json:"prompt"`
	File   *interaction.FileSnapshot `json:"file,omitempty"`
}

type Alerter interface {
	Warn(component, message string, err error)
}

// Service relays prompts to the model and keeps the interaction log.
type Service struct {
	dispatcher  llm.Dispatcher
	store       interaction.Store
	transcriber extract.Transcriber
	alerter     Alerter
	now         func() time.Time
}

// New builds a Service. transcriber and alerter may be nil.
func New(dispatcher llm.Dispatcher, store interaction.Store, transcriber extract.Transcriber, alerter Alerter) *Service {
	return &Service{
		dispatcher:  dispatcher,
		store:       store,
		transcriber: transcriber,
		alerter:     alerter,
		now:         time.Now,
	}
}

// Query dispatches the prompt and records the exchange. A failed dispatch is
// returned unchanged and nothing is recorded. A failed record is logged and
// never affects the answer.
func (s *Service) Query(ctx context.Context, req Request) (string, error) {
	if req.Prompt == "" {
		return "", ErrPromptRequired
	}

	answer, err := s.dispatcher.Dispatch(ctx, req.Prompt)
	if err != nil {
		logger.Error("dispatch failed", "error", err)
		if upErr, ok := llm.AsUpstream(err); ok && (upErr.Status == 0 || upErr.Status >= 500) && s.alerter != nil {
			s.alerter.Warn("llm", "model provider unavailable", err)
		}
		return "", err
	}

	s.record(ctx, req, answer)

	return answer, nil
}

func (s *Service) record(ctx context.Context, req Request, answer string) {
	now := s.now().UTC()
	rec := prompt.Reconstruct(req.Prompt)

	file := rec.File
	if req.File != nil {
		file = normalizeSnapshot(*req.File, now)
	} else if rec.Warning != nil {
		logger.Debug("prompt reconstruction incomplete", "warning", rec.Warning)
	}

	if file != nil && file.ProcessedAt.IsZero() {
		file.ProcessedAt = now
	}

	in := interaction.Interaction{
		File:      file,
		Query:     rec.UserQuery,
		Response:  answer,
		Timestamp: now,
	}

	if s.store == nil {
		return
	}

	if err := s.store.Append(ctx, in); err != nil {
		logger.Error("failed to save interaction", "error", err)
		if s.alerter != nil {
			s.alerter.Warn("interactions", "failed to save interaction", err)
		}
	}
}

func normalizeSnapshot(snap interaction.FileSnapshot, now time.Time) *interaction.FileSnapshot {
	if !media.Category(snap.Category).Valid() {
		snap.Category = media.ParseCategory(snap.Category).String()
	}
	if snap.ProcessedAt.IsZero() {
		snap.ProcessedAt = now
	}
	return &snap
}

// Recent returns the latest recorded interactions, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]interaction.Interaction, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Recent(ctx, limit)
}

// ProcessRemoteVideo sends a video link to the transcription service.
func (s *Service) ProcessRemoteVideo(ctx context.Context, link string) (*transcribe.Result, error) {
	if s.transcriber == nil {
		return nil, transcribe.ErrNotConfigured
	}
	if !media.IsAbsoluteURL(link) {
		return nil, fmt.Errorf("%q: %w", link, extract.ErrInvalidLink)
	}

	result, err := s.transcriber.TranscribeURL(ctx, link)
	if err != nil {
		return nil, &extract.RemoteProcessingError{Source: link, Err: err}
	}

	return result, nil
}

// UploadAudio sends an uploaded audio file to the transcription service.
func (s *Service) UploadAudio(ctx context.Context, name string, data []byte) (*transcribe.Result, error) {
	if s.transcriber == nil {
		return nil, transcribe.ErrNotConfigured
	}

	result, err := s.transcriber.TranscribeFile(ctx, name, data)
	if err != nil {
		return nil, &extract.RemoteProcessingError{Source: name, Err: err}
	}

	return result, nil
}
