package bot

import (
	"context"
	"fmt"

	"github.com/bowerhall/mediaqa/internal/logger"
	"github.com/bwmarrin/discordgo"
)

type discord struct {
	session  *discordgo.Session
	pipeline Pipeline
	ctx      context.Context
}

func newDiscord(token string, pipeline Pipeline) (Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	d := &discord{
		session:  session,
		pipeline: pipeline,
		ctx:      context.Background(),
	}

	session.AddHandler(d.handleMessage)

	return d, nil
}

func (d *discord) Start(ctx context.Context) error {
	d.ctx = ctx

	if err := d.session.Open(); err != nil {
		return err
	}

	<-ctx.Done()
	return d.session.Close()
}

func (d *discord) Send(chatID int64, message string) error {
	channelID := fmt.Sprintf("%d", chatID)
	_, err := d.session.ChannelMessageSend(channelID, message)
	if err != nil {
		logger.Error("discord send failed", "error", err, "channelID", channelID)
	} else {
		logger.Info("discord message sent", "channelID", channelID, "chars", len(message))
	}
	return err
}

func (d *discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	in := Message{
		SessionID: fmt.Sprintf("discord:%s", m.ChannelID),
		Text:      m.Content,
	}

	if len(m.Attachments) > 0 {
		att := m.Attachments[0]
		if att.Size > maxMediaSize {
			d.reply(s, m, "That file is too large.")
			return
		}

		src, err := download(d.ctx, att.URL, att.Filename, att.ContentType)
		if err != nil {
			logger.Error("discord attachment download failed", "name", att.Filename, "error", err)
			d.reply(s, m, replyForError(err))
			return
		}
		in.Attachment = src
		logger.Info("attachment received", "session", in.SessionID, "name", att.Filename, "bytes", len(src.Data))
	} else {
		logger.Info("message received", "session", in.SessionID, "from", m.Author.Username, "text", logger.Truncate(m.Content, 50))
	}

	s.ChannelTyping(m.ChannelID)
	d.reply(s, m, handle(d.ctx, d.pipeline, in))
}

func (d *discord) reply(s *discordgo.Session, m *discordgo.MessageCreate, text string) {
	if _, err := s.ChannelMessageSendReply(m.ChannelID, text, m.Reference()); err != nil {
		logger.Error("discord reply failed", "error", err)
	} else {
		logger.Info("reply sent", "chars", len(text))
	}
}
