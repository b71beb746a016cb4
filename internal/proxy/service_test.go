package proxy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bowerhall/mediaqa/internal/extract"
	"github.com/bowerhall/mediaqa/internal/interaction"
	"github.com/bowerhall/mediaqa/internal/llm"
	"github.com/bowerhall/mediaqa/internal/media"
	"github.com/bowerhall/mediaqa/internal/prompt"
	"github.com/bowerhall/mediaqa/internal/transcribe"
)

type fakeDispatcher struct {
	answer string
	err    error
	got    string
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, p string) (string, error) {
	f.got = p
	return f.answer, f.err
}

type failingStore struct {
	interaction.MemoryStore
}

func (f *failingStore) Append(ctx context.Context, in interaction.Interaction) error {
	return errors.New("disk full")
}

type recordingAlerter struct {
	warnings []string
}

func (r *recordingAlerter) Warn(component, message string, err error) {
	r.warnings = append(r.warnings, component+": "+message)
}

type fakeTranscriber struct {
	result *transcribe.Result
	err    error
}

func (f *fakeTranscriber) TranscribeFile(ctx context.Context, name string, data []byte) (*transcribe.Result, error) {
	return f.result, f.err
}

func (f *fakeTranscriber) TranscribeURL(ctx context.Context, url string) (*transcribe.Result, error) {
	return f.result, f.err
}

func notesPrompt() string {
	item := media.NewItem("notes.txt", "text/plain", 11, media.CategoryText)
	item.Kind = media.ContentText
	item.Content = "hello world"
	return prompt.Build(prompt.Assemble([]media.Item{item}), "what does it say?")
}

func TestQueryRecordsReconstructedInteraction(t *testing.T) {
	d := &fakeDispatcher{answer: "It says hello world."}
	store := interaction.NewMemoryStore()
	svc := New(d, store, nil, nil)

	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	p := notesPrompt()
	answer, err := svc.Query(context.Background(), Request{Prompt: p})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if answer != "It says hello world." {
		t.Errorf("unexpected answer %q", answer)
	}
	if d.got != p {
		t.Error("dispatcher should receive the prompt unchanged")
	}

	recent, _ := store.Recent(context.Background(), 10)
	if len(recent) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(recent))
	}

	in := recent[0]
	if in.File == nil || in.File.Name != "notes.txt" || in.File.Category != "text" || in.File.Content != "hello world" {
		t.Errorf("unexpected snapshot %+v", in.File)
	}
	if !in.File.ProcessedAt.Equal(fixed) || !in.Timestamp.Equal(fixed) {
		t.Errorf("expected timestamps stamped at record time")
	}
	if in.Response != "It says hello world." {
		t.Errorf("unexpected response %q", in.Response)
	}
	if in.Query != "what does it say?\n\nProvide a natural language answer based on the context above." {
		t.Errorf("unexpected query %q", in.Query)
	}
}

func TestQueryPrefersExplicitSnapshot(t *testing.T) {
	store := interaction.NewMemoryStore()
	svc := New(&fakeDispatcher{answer: "ok"}, store, nil, nil)

	explicit := &interaction.FileSnapshot{Name: "weird (name).txt", Category: "TEXT", Content: "full text"}
	if _, err := svc.Query(context.Background(), Request{Prompt: notesPrompt(), File: explicit}); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	recent, _ := store.Recent(context.Background(), 1)
	file := recent[0].File
	if file.Name != "weird (name).txt" || file.Content != "full text" {
		t.Errorf("expected explicit snapshot recorded, got %+v", file)
	}
	if file.Category != "text" {
		t.Errorf("expected normalized category, got %q", file.Category)
	}
	if file.ProcessedAt.IsZero() {
		t.Error("expected processedAt to be stamped")
	}
	if !strings.HasPrefix(recent[0].Query, "what does it say?") {
		t.Errorf("unexpected query %q", recent[0].Query)
	}
}

func TestQueryWithoutMarkersStillRecorded(t *testing.T) {
	store := interaction.NewMemoryStore()
	svc := New(&fakeDispatcher{answer: "hi"}, store, nil, nil)

	if _, err := svc.Query(context.Background(), Request{Prompt: "hello?"}); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	recent, _ := store.Recent(context.Background(), 1)
	if len(recent) != 1 || recent[0].File != nil || recent[0].Query != "hello?" {
		t.Errorf("expected null-file record with whole prompt as query, got %+v", recent)
	}
}

func TestQueryEmptyPrompt(t *testing.T) {
	d := &fakeDispatcher{}
	svc := New(d, interaction.NewMemoryStore(), nil, nil)

	if _, err := svc.Query(context.Background(), Request{}); !errors.Is(err, ErrPromptRequired) {
		t.Fatalf("expected ErrPromptRequired, got %v", err)
	}
	if d.got != "" {
		t.Error("empty prompt must not be dispatched")
	}
}

func TestQueryUpstreamErrorNotRecorded(t *testing.T) {
	store := interaction.NewMemoryStore()
	svc := New(&fakeDispatcher{err: &llm.UpstreamError{Status: 503, Body: "overloaded"}}, store, nil, nil)

	_, err := svc.Query(context.Background(), Request{Prompt: notesPrompt()})
	upErr, ok := llm.AsUpstream(err)
	if !ok || upErr.Status != 503 {
		t.Fatalf("expected upstream error relayed, got %v", err)
	}

	if recent, _ := store.Recent(context.Background(), 10); len(recent) != 0 {
		t.Errorf("expected nothing recorded, got %d", len(recent))
	}
}

func TestQueryStoreFailureDoesNotFailAnswer(t *testing.T) {
	alerter := &recordingAlerter{}
	svc := New(&fakeDispatcher{answer: "still here"}, &failingStore{}, nil, alerter)

	answer, err := svc.Query(context.Background(), Request{Prompt: notesPrompt()})
	if err != nil {
		t.Fatalf("store failure must not fail the query: %v", err)
	}
	if answer != "still here" {
		t.Errorf("unexpected answer %q", answer)
	}
	if len(alerter.warnings) != 1 {
		t.Errorf("expected one alert, got %v", alerter.warnings)
	}
}

func TestQueryAlertsOnProviderOutage(t *testing.T) {
	alerter := &recordingAlerter{}

	svc := New(&fakeDispatcher{err: &llm.UpstreamError{Status: 429, Body: "slow down"}}, nil, nil, alerter)
	svc.Query(context.Background(), Request{Prompt: "p"})
	if len(alerter.warnings) != 0 {
		t.Errorf("client-side upstream errors should not alert, got %v", alerter.warnings)
	}

	svc = New(&fakeDispatcher{err: &llm.UpstreamError{Status: 503, Body: "overloaded"}}, nil, nil, alerter)
	svc.Query(context.Background(), Request{Prompt: "p"})
	if len(alerter.warnings) != 1 || alerter.warnings[0] != "llm: model provider unavailable" {
		t.Errorf("expected one provider alert, got %v", alerter.warnings)
	}
}

func TestProcessRemoteVideo(t *testing.T) {
	svc := New(&fakeDispatcher{}, nil, nil, nil)
	if _, err := svc.ProcessRemoteVideo(context.Background(), "https://youtu.be/x"); !errors.Is(err, transcribe.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}

	svc = New(&fakeDispatcher{}, nil, &fakeTranscriber{result: &transcribe.Result{ID: "t", Text: "talk"}}, nil)
	if _, err := svc.ProcessRemoteVideo(context.Background(), "youtu.be/x"); !errors.Is(err, extract.ErrInvalidLink) {
		t.Errorf("expected ErrInvalidLink, got %v", err)
	}

	result, err := svc.ProcessRemoteVideo(context.Background(), "https://youtu.be/x")
	if err != nil || result.Text != "talk" {
		t.Errorf("unexpected result %+v, %v", result, err)
	}

	svc = New(&fakeDispatcher{}, nil, &fakeTranscriber{err: errors.New("502")}, nil)
	_, err = svc.UploadAudio(context.Background(), "memo.wav", []byte("x"))
	var remoteErr *extract.RemoteProcessingError
	if !errors.As(err, &remoteErr) {
		t.Errorf("expected RemoteProcessingError, got %v", err)
	}
}
