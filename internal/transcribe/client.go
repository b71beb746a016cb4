package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/bowerhall/mediaqa/internal/logger"
)

const (
	DefaultBaseURL      = "https://api.assemblyai.com"
	DefaultPollInterval = 3 * time.Second
	DefaultTimeout      = 10 * time.Minute
)

var (
	ErrNotConfigured = errors.New("transcription service not configured")
	ErrTimeout       = errors.New("transcription timed out")
)

// Result is what the service reports for a finished transcript. The json
// names match the service so results can be relayed unchanged.
type Result struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	Summary   string          `json:"summary,omitempty"`
	Sentiment json.RawMessage `json:"sentiment_analysis_results,omitempty"`
}

// HasSentiment reports whether the service returned sentiment results.
func (r *Result) HasSentiment() bool {
	s := strings.TrimSpace(string(r.Sentiment))
	return s != "" && s != "null"
}

// APIError is a non-2xx answer or a failed transcript.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("transcription failed: %s", e.Body)
	}
	return fmt.Sprintf("transcription api error (status %d): %s", e.Status, e.Body)
}

type Config struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
}

type Client struct {
	api          *aai.Client
	baseURL      string
	pollInterval time.Duration
	timeout      time.Duration
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
	}

	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}

	c.api = aai.NewClientWithOptions(
		aai.WithAPIKey(cfg.APIKey),
		aai.WithBaseURL(c.baseURL+"/"),
	)

	return c, nil
}

// TranscribeFile uploads raw media bytes and transcribes them.
func (c *Client) TranscribeFile(ctx context.Context, name string, data []byte) (*Result, error) {
	uploadURL, err := c.api.Upload(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, apiError(err))
	}
	if uploadURL == "" {
		return nil, fmt.Errorf("upload %s: no upload url in response", name)
	}

	return c.TranscribeURL(ctx, uploadURL)
}

// TranscribeURL submits a publicly reachable media URL and waits for the
// transcript to complete.
func (c *Client) TranscribeURL(ctx context.Context, mediaURL string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	submitted, err := c.api.Transcripts.SubmitFromURL(ctx, mediaURL, &aai.TranscriptOptionalParams{
		SentimentAnalysis: aai.Bool(true),
		Summarization:     aai.Bool(true),
		SummaryModel:      aai.SummaryModel("informative"),
		SummaryType:       aai.SummaryType("bullets"),
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("submit transcript: %w", apiError(err))
	}

	id := aai.ToString(submitted.ID)
	logger.Debug("transcript submitted", "id", id, "url", mediaURL)

	return c.wait(ctx, id)
}

func (c *Client) wait(ctx context.Context, id string) (*Result, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		tr, err := c.api.Transcripts.Get(ctx, id)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, fmt.Errorf("poll transcript %s: %w", id, apiError(err))
		}

		switch tr.Status {
		case aai.TranscriptStatusCompleted:
			return resultOf(tr)
		case aai.TranscriptStatusError:
			return nil, &APIError{Body: aai.ToString(tr.Error)}
		}

		logger.Debug("transcript pending", "id", id, "status", tr.Status)

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// resultOf keeps the fields the pipeline relays. Sentiment stays in the
// service's own json shape.
func resultOf(tr aai.Transcript) (*Result, error) {
	result := &Result{
		ID:      aai.ToString(tr.ID),
		Text:    aai.ToString(tr.Text),
		Summary: aai.ToString(tr.Summary),
	}

	if len(tr.SentimentAnalysisResults) > 0 {
		raw, err := json.Marshal(tr.SentimentAnalysisResults)
		if err != nil {
			return nil, fmt.Errorf("encode sentiment: %w", err)
		}
		result.Sentiment = raw
	}

	return result, nil
}

// apiError turns an SDK error into an APIError so callers see one type.
func apiError(err error) error {
	var sdkErr *aai.APIError
	if errors.As(err, &sdkErr) {
		return &APIError{Status: sdkErr.Status, Body: sdkErr.Message}
	}
	return &APIError{Body: err.Error()}
}
