package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bowerhall/mediaqa/internal/extract"
	"github.com/bowerhall/mediaqa/internal/ingest"
	"github.com/bowerhall/mediaqa/internal/llm"
	"github.com/bowerhall/mediaqa/internal/media"
	"github.com/bowerhall/mediaqa/internal/session"
)

type fakePipeline struct {
	calls   []string
	item    media.Item
	answer  string
	removed bool
	err     error
}

func (f *fakePipeline) IngestFile(ctx context.Context, sessionID string, src extract.Source) (media.Item, error) {
	f.calls = append(f.calls, "file:"+src.Name)
	if f.err != nil {
		return media.Item{}, f.err
	}
	return media.NewItem(src.Name, src.MimeType, int64(len(src.Data)), media.Classify(src.MimeType, src.Name)), nil
}

func (f *fakePipeline) IngestLink(ctx context.Context, sessionID, link string) (media.Item, error) {
	f.calls = append(f.calls, "link:"+link)
	if f.err != nil {
		return media.Item{}, f.err
	}
	return media.NewItem(link, "", 0, media.ClassifyLink(link)), nil
}

func (f *fakePipeline) Ask(ctx context.Context, sessionID, query string) (string, error) {
	f.calls = append(f.calls, "ask:"+query)
	return f.answer, f.err
}

func (f *fakePipeline) Remove(ctx context.Context, sessionID string) (bool, error) {
	f.calls = append(f.calls, "remove")
	return f.removed, f.err
}

func TestHandleAttachmentWithoutCaption(t *testing.T) {
	p := &fakePipeline{}
	reply := handle(context.Background(), p, Message{
		SessionID:  "telegram:1",
		Attachment: &extract.Source{Name: "notes.txt", MimeType: "text/plain", Data: []byte("hi")},
	})

	if reply != "Got notes.txt (text). Ask me anything about it." {
		t.Errorf("unexpected reply %q", reply)
	}
	if strings.Join(p.calls, ",") != "file:notes.txt" {
		t.Errorf("unexpected calls %v", p.calls)
	}
}

func TestHandleAttachmentWithCaptionAsks(t *testing.T) {
	p := &fakePipeline{answer: "a summary"}
	reply := handle(context.Background(), p, Message{
		SessionID:  "telegram:1",
		Text:       "summarize this",
		Attachment: &extract.Source{Name: "notes.txt", MimeType: "text/plain"},
	})

	if reply != "a summary" {
		t.Errorf("unexpected reply %q", reply)
	}
	if strings.Join(p.calls, ",") != "file:notes.txt,ask:summarize this" {
		t.Errorf("unexpected calls %v", p.calls)
	}
}

func TestHandleLink(t *testing.T) {
	p := &fakePipeline{}
	reply := handle(context.Background(), p, Message{SessionID: "s", Text: " https://youtu.be/abc "})

	if reply != "Got https://youtu.be/abc (video). Ask me anything about it." {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestHandleLinkInsideSentenceIsAQuestion(t *testing.T) {
	p := &fakePipeline{answer: "ok"}
	handle(context.Background(), p, Message{SessionID: "s", Text: "what is https://example.com about"})

	if len(p.calls) != 1 || !strings.HasPrefix(p.calls[0], "ask:") {
		t.Errorf("expected a question, got %v", p.calls)
	}
}

func TestHandleClear(t *testing.T) {
	p := &fakePipeline{removed: true}
	if reply := handle(context.Background(), p, Message{SessionID: "s", Text: "/clear"}); reply != "Cleared." {
		t.Errorf("unexpected reply %q", reply)
	}

	p.removed = false
	if reply := handle(context.Background(), p, Message{SessionID: "s", Text: "Reset"}); reply != "Nothing to clear." {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestHandleHelp(t *testing.T) {
	p := &fakePipeline{}
	if reply := handle(context.Background(), p, Message{Text: "/start"}); reply != helpText {
		t.Errorf("unexpected reply %q", reply)
	}
	if len(p.calls) != 0 {
		t.Errorf("help should not touch the pipeline, got %v", p.calls)
	}
}

func TestHandleStopWordsSkipThePipeline(t *testing.T) {
	p := &fakePipeline{}
	for _, word := range []string{"stop", "Never mind", " cancel "} {
		if reply := handle(context.Background(), p, Message{SessionID: "s", Text: word}); reply != "Okay." {
			t.Errorf("handle(%q) = %q", word, reply)
		}
	}
	if len(p.calls) != 0 {
		t.Errorf("stop words should not reach the pipeline, got %v", p.calls)
	}
}

func TestReplyForError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{session.ErrBusy, "Still working on your last request."},
		{ingest.ErrNoItem, "Send a file or link first."},
		{ingest.ErrEmptyQuery, "What would you like to know?"},
		{fmt.Errorf("read: %w", extract.ErrTooLarge), "That file is too large."},
		{extract.ErrInvalidLink, "That link doesn't look valid."},
		{&extract.ExtractionError{Name: "a.pdf", Err: errors.New("bad xref")}, "I couldn't read a.pdf."},
		{&extract.RemoteProcessingError{Source: "x", Err: errors.New("down")}, "I couldn't process that media right now."},
		{&llm.UpstreamError{Status: 429, Body: "quota"}, "Failed to get response from AI."},
		{errors.New("boom"), "Something went wrong."},
	}

	for _, tt := range tests {
		if got := replyForError(tt.err); got != tt.want {
			t.Errorf("replyForError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("%PDF-1.4"))
		case "/big":
			w.Write(make([]byte, maxMediaSize+1))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	src, err := download(context.Background(), srv.URL+"/ok", "a.pdf", "")
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if src.Name != "a.pdf" || string(src.Data) != "%PDF-1.4" || src.MimeType != "application/pdf" {
		t.Errorf("unexpected source %+v", src)
	}

	if _, err := download(context.Background(), srv.URL+"/big", "big.bin", ""); !errors.Is(err, extract.ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}

	if _, err := download(context.Background(), srv.URL+"/missing", "x", ""); err == nil {
		t.Error("expected error for 404")
	}
}
