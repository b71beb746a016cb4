package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/bowerhall/mediaqa/internal/extract"
	"github.com/bowerhall/mediaqa/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var errUpdatesClosed = errors.New("telegram updates channel closed")

type telegram struct {
	api         *tgbotapi.BotAPI
	pipeline    Pipeline
	ownerChatID int64
}

func newTelegram(token string, pipeline Pipeline, ownerChatID int64) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &telegram{api: api, pipeline: pipeline, ownerChatID: ownerChatID}, nil
}

func (t *telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	return t.consume(ctx, updates)
}

// consume dispatches updates until ctx is cancelled or the channel closes.
func (t *telegram) consume(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				logger.Warn("telegram update channel closed")
				return errUpdatesClosed
			}
			if update.Message == nil {
				continue
			}

			go t.handleMessage(ctx, update.Message)
		}
	}
}

func (t *telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if t.ownerChatID != 0 && msg.Chat.ID != t.ownerChatID {
		logger.Debug("ignoring message from unknown chat", "chatID", msg.Chat.ID)
		return
	}

	in := Message{
		SessionID: fmt.Sprintf("telegram:%d", msg.Chat.ID),
		Text:      msg.Text,
	}

	if ref := attachmentOf(msg); ref != nil {
		in.Text = msg.Caption
		t.api.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping))

		src, err := t.downloadFile(ctx, *ref)
		if err != nil {
			logger.Error("failed to download attachment", "session", in.SessionID, "name", ref.name, "error", err)
			t.reply(msg, replyForError(err))
			return
		}
		in.Attachment = src
		logger.Info("attachment received", "session", in.SessionID, "name", ref.name, "bytes", len(src.Data))
	} else {
		logger.Info("message received", "session", in.SessionID, "text", logger.Truncate(in.Text, 50))
		t.api.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping))
	}

	t.reply(msg, handle(ctx, t.pipeline, in))
}

func (t *telegram) reply(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID

	if _, err := t.api.Send(reply); err != nil {
		logger.Error("send failed", "error", err)
	} else {
		logger.Info("reply sent", "chars", len(text))
	}
}

// Send delivers a proactive message, e.g. an owner alert.
func (t *telegram) Send(chatID int64, message string) error {
	msg := tgbotapi.NewMessage(chatID, message)
	_, err := t.api.Send(msg)
	if err != nil {
		logger.Error("proactive send failed", "error", err, "chatID", chatID)
	} else {
		logger.Info("proactive message sent", "chatID", chatID, "chars", len(message))
	}
	return err
}

type fileRef struct {
	fileID   string
	name     string
	mimeType string
	size     int
}

// attachmentOf picks the one file a message carries, if any.
func attachmentOf(msg *tgbotapi.Message) *fileRef {
	switch {
	case msg.Document != nil:
		return &fileRef{msg.Document.FileID, msg.Document.FileName, msg.Document.MimeType, msg.Document.FileSize}
	case msg.Audio != nil:
		return &fileRef{msg.Audio.FileID, orDefault(msg.Audio.FileName, "audio.mp3"), msg.Audio.MimeType, msg.Audio.FileSize}
	case msg.Voice != nil:
		return &fileRef{msg.Voice.FileID, "voice.ogg", orDefault(msg.Voice.MimeType, "audio/ogg"), msg.Voice.FileSize}
	case msg.Video != nil:
		return &fileRef{msg.Video.FileID, orDefault(msg.Video.FileName, "video.mp4"), msg.Video.MimeType, msg.Video.FileSize}
	case len(msg.Photo) > 0:
		photo := msg.Photo[len(msg.Photo)-1]
		return &fileRef{photo.FileID, "photo.jpg", "image/jpeg", photo.FileSize}
	}
	return nil
}

func (t *telegram) downloadFile(ctx context.Context, ref fileRef) (*extract.Source, error) {
	if ref.size > maxMediaSize {
		return nil, extract.ErrTooLarge
	}

	file, err := t.api.GetFile(tgbotapi.FileConfig{FileID: ref.fileID})
	if err != nil {
		return nil, err
	}

	return download(ctx, file.Link(t.api.Token), ref.name, ref.mimeType)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
