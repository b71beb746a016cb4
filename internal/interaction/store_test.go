package interaction

import (
	"context"
	"testing"
	"time"

	"github.com/bowerhall/mediaqa/internal/media"
)

func TestSQLiteStoreAppendAndRecent(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	processed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err = store.Append(ctx, Interaction{
		File: &FileSnapshot{
			Name:        "notes.txt",
			Category:    "text",
			Content:     "hello world",
			ProcessedAt: processed,
		},
		Query:    "what does it say?",
		Response: "It says hello world.",
	})
	if err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	err = store.Append(ctx, Interaction{Query: "no file", Response: "ok"})
	if err != nil {
		t.Fatalf("failed to append: %v", err)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("failed to read recent: %v", err)
	}

	if len(recent) != 2 {
		t.Fatalf("expected 2 interactions, got %d", len(recent))
	}

	// newest first
	if recent[0].Query != "no file" || recent[0].File != nil {
		t.Errorf("unexpected newest record: %+v", recent[0])
	}

	first := recent[1]
	if first.File == nil {
		t.Fatal("expected file snapshot to round-trip")
	}
	if first.File.Name != "notes.txt" || first.File.Category != "text" {
		t.Errorf("unexpected snapshot: %+v", first.File)
	}
	if !first.File.ProcessedAt.Equal(processed) {
		t.Errorf("expected processedAt %v, got %v", processed, first.File.ProcessedAt)
	}
	if first.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestSQLiteStoreRecentLimit(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.Append(ctx, Interaction{Query: "q", Response: "r"}); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("failed to read recent: %v", err)
	}
	if len(recent) != 3 {
		t.Errorf("expected 3 interactions, got %d", len(recent))
	}

	none, err := store.Recent(ctx, 0)
	if err != nil || none != nil {
		t.Errorf("expected nil for zero limit, got %v, %v", none, err)
	}
}

func TestMemoryStoreNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, Interaction{Query: "first"})
	store.Append(ctx, Interaction{Query: "second"})

	recent, _ := store.Recent(ctx, 1)
	if len(recent) != 1 || recent[0].Query != "second" {
		t.Errorf("expected newest record, got %+v", recent)
	}
}

func TestMongoStoreNilSafe(t *testing.T) {
	var store *MongoStore
	if err := store.Append(context.Background(), Interaction{}); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("expected nil error closing nil store, got %v", err)
	}
	recent, err := store.Recent(context.Background(), 5)
	if err != nil || recent != nil {
		t.Errorf("expected nil results, got %v, %v", recent, err)
	}
}

func TestMongoDocumentDefaultsTimestamp(t *testing.T) {
	doc := toDocument(Interaction{Query: "q"})
	if doc.Timestamp.IsZero() {
		t.Error("expected timestamp to default to now")
	}
	if got := doc.toInteraction(); got.Query != "q" {
		t.Errorf("unexpected query %q", got.Query)
	}
}

func TestSnapshotOfTextItem(t *testing.T) {
	item := media.NewItem("notes.txt", "text/plain", 11, media.CategoryText)
	item.Kind = media.ContentText
	item.Content = "hello world"

	snap := SnapshotOf(item, 5)
	if snap.Content != "hello" {
		t.Errorf("expected clipped content, got %q", snap.Content)
	}
	if snap.Category != "text" || snap.Size != 11 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.URL != "" {
		t.Errorf("expected no url, got %q", snap.URL)
	}
}

func TestSnapshotOfLinkItem(t *testing.T) {
	item := media.NewItem("https://youtu.be/x", "video/youtube", 0, media.CategoryVideo)
	item.Kind = media.ContentURL
	item.Content = "https://youtu.be/x"
	item.ExtractedText = "transcript"

	snap := SnapshotOf(item, 0)
	if snap.URL != "https://youtu.be/x" {
		t.Errorf("expected url, got %q", snap.URL)
	}
	if snap.Content != "transcript" {
		t.Errorf("expected transcript content, got %q", snap.Content)
	}
}
