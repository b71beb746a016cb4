package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bowerhall/mediaqa/internal/logger"
	"github.com/bowerhall/mediaqa/internal/media"
	"github.com/bowerhall/mediaqa/internal/transcribe"
)

// DefaultMaxBytes caps a single local upload.
const DefaultMaxBytes = 50 << 20

// LocalVideoNotice stands in for a transcript when a local video cannot be
// handed to the transcription service.
const LocalVideoNotice = "Video file uploaded (transcription unavailable for direct uploads without media storage)"

var (
	ErrTooLarge    = errors.New("file exceeds upload limit")
	ErrInvalidLink = errors.New("not an absolute url")
)

// Source is a local file as read from disk or an upload.
type Source struct {
	Name     string
	MimeType string
	Data     []byte
}

// Payload is what extraction produced for one item.
type Payload struct {
	Kind          media.ContentKind
	Content       string
	ExtractedText string
	Enrichment    *media.Enrichment
}

// Apply copies the payload onto item.
func (p Payload) Apply(item *media.Item) {
	item.Kind = p.Kind
	item.Content = p.Content
	item.ExtractedText = p.ExtractedText
	item.Enrichment = p.Enrichment
}

type Transcriber interface {
	TranscribeFile(ctx context.Context, name string, data []byte) (*transcribe.Result, error)
	TranscribeURL(ctx context.Context, url string) (*transcribe.Result, error)
}

// Stager puts local media somewhere the transcription service can fetch it
// and returns that URL.
type Stager interface {
	Stage(ctx context.Context, name, mimeType string, data []byte) (string, error)
}

type Extractor struct {
	transcriber Transcriber
	stager      Stager
	maxBytes    int64
}

// New builds an Extractor. transcriber and stager may be nil; audio and video
// then fall back to placeholders.
func New(transcriber Transcriber, stager Stager, maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Extractor{
		transcriber: transcriber,
		stager:      stager,
		maxBytes:    maxBytes,
	}
}

// Extract turns a local file of the given category into a payload.
func (e *Extractor) Extract(ctx context.Context, src Source, category media.Category) (Payload, error) {
	if int64(len(src.Data)) > e.maxBytes {
		return Payload{}, &ExtractionError{Name: src.Name, Err: ErrTooLarge}
	}

	switch category {
	case media.CategoryText:
		return e.extractText(src)
	case media.CategoryImage:
		return Payload{Kind: media.ContentDataURL, Content: dataURL(src)}, nil
	case media.CategoryAudio:
		return e.extractAudio(ctx, src)
	case media.CategoryVideo:
		return e.extractVideo(ctx, src)
	default:
		return Payload{Kind: media.ContentNone}, nil
	}
}

// ExtractLink handles a submitted URL. Video links go to the transcription
// service when one is configured; everything else is kept as a link and
// never fetched.
func (e *Extractor) ExtractLink(ctx context.Context, link string, category media.Category) (Payload, error) {
	link = strings.TrimSpace(link)
	if !media.IsAbsoluteURL(link) {
		return Payload{}, fmt.Errorf("%q: %w", link, ErrInvalidLink)
	}

	payload := Payload{Kind: media.ContentURL, Content: link}

	if category != media.CategoryVideo {
		return payload, nil
	}
	if e.transcriber == nil {
		logger.Warn("transcription not configured, keeping video as a plain link", "link", link)
		return payload, nil
	}

	result, err := e.transcriber.TranscribeURL(ctx, link)
	if err != nil {
		return Payload{}, &RemoteProcessingError{Source: link, Err: err}
	}

	payload.ExtractedText = result.Text
	payload.Enrichment = enrichmentOf(result)

	return payload, nil
}

func (e *Extractor) extractText(src Source) (Payload, error) {
	if isPDF(src.MimeType, src.Name) {
		text, err := pdfText(src.Data)
		if err != nil {
			return Payload{}, &ExtractionError{Name: src.Name, Err: err}
		}
		return Payload{Kind: media.ContentText, Content: text}, nil
	}

	text, ok := decodeText(src)
	if !ok {
		logger.Debug("text file kept as binary", "name", src.Name, "mime", src.MimeType)
		return Payload{Kind: media.ContentNone}, nil
	}

	return Payload{Kind: media.ContentText, Content: text}, nil
}

func (e *Extractor) extractAudio(ctx context.Context, src Source) (Payload, error) {
	payload := Payload{Kind: media.ContentPlaceholder, Content: src.Name}

	if e.transcriber == nil {
		return payload, nil
	}

	result, err := e.transcriber.TranscribeFile(ctx, src.Name, src.Data)
	if err != nil {
		return Payload{}, &RemoteProcessingError{Source: src.Name, Err: err}
	}

	payload.ExtractedText = result.Text
	payload.Enrichment = enrichmentOf(result)

	return payload, nil
}

func (e *Extractor) extractVideo(ctx context.Context, src Source) (Payload, error) {
	payload := Payload{Kind: media.ContentPlaceholder, Content: src.Name}

	if e.transcriber == nil || e.stager == nil {
		payload.ExtractedText = LocalVideoNotice
		return payload, nil
	}

	stagedURL, err := e.stager.Stage(ctx, src.Name, src.MimeType, src.Data)
	if err != nil {
		return Payload{}, &RemoteProcessingError{Source: src.Name, Err: fmt.Errorf("stage video: %w", err)}
	}

	result, err := e.transcriber.TranscribeURL(ctx, stagedURL)
	if err != nil {
		return Payload{}, &RemoteProcessingError{Source: src.Name, Err: err}
	}

	payload.ExtractedText = result.Text
	payload.Enrichment = enrichmentOf(result)

	return payload, nil
}

// decodeText reads plain-text uploads. Declared text, .txt and .md files are
// always decoded; other text-category files only when they are valid UTF-8.
func decodeText(src Source) (string, bool) {
	name := strings.ToLower(src.Name)
	declared := strings.HasPrefix(src.MimeType, "text/") ||
		strings.HasSuffix(name, ".txt") ||
		strings.HasSuffix(name, ".md")

	if utf8.Valid(src.Data) {
		return string(src.Data), true
	}
	if declared {
		return strings.ToValidUTF8(string(src.Data), "\uFFFD"), true
	}
	return "", false
}

func dataURL(src Source) string {
	mimeType := src.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(src.Data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(src.Data)
}

func enrichmentOf(r *transcribe.Result) *media.Enrichment {
	enrichment := &media.Enrichment{
		TranscriptID: r.ID,
		Summary:      r.Summary,
	}
	if r.HasSentiment() {
		enrichment.Sentiment = r.Sentiment
	}
	return enrichment
}
