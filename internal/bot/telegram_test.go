package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestTelegramConsumeStopsOnClosedChannel(t *testing.T) {
	tg := &telegram{pipeline: &fakePipeline{}}

	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{}
	close(updates)

	done := make(chan error, 1)
	go func() { done <- tg.consume(context.Background(), updates) }()

	select {
	case err := <-done:
		if !errors.Is(err, errUpdatesClosed) {
			t.Errorf("expected errUpdatesClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("consume kept looping after the channel closed")
	}
}
