package server

import (
	"context"
	"fmt"

	"github.com/anthropics/groupwarden/internal/biz/domain"
	"github.com/anthropics/groupwarden/internal/biz/repo"
	"github.com/anthropics/groupwarden/internal/biz/usecase"

	tb "gopkg.in/telebot.v3"
)

// TelegramServer wires Telegram updates to the moderation pipeline, the
// newcomer guard and the command layer.
type TelegramServer struct {
	bot        *tb.Bot
	chatRepo   repo.ChatRepo
	settings   *usecase.SettingsUsecase
	privilege  *usecase.PrivilegeUsecase
	moderation *usecase.ModerationUsecase
	newcomer   *usecase.NewcomerUsecase
}

// NewTelegramServer creates a new Telegram server.
func NewTelegramServer(
	bot *tb.Bot,
	chatRepo repo.ChatRepo,
	settings *usecase.SettingsUsecase,
	privilege *usecase.PrivilegeUsecase,
	moderation *usecase.ModerationUsecase,
	newcomer *usecase.NewcomerUsecase,
) *TelegramServer {
	return &TelegramServer{
		bot:        bot,
		chatRepo:   chatRepo,
		settings:   settings,
		privilege:  privilege,
		moderation: moderation,
		newcomer:   newcomer,
	}
}

// Start registers all handlers and begins long polling. Blocks until Stop.
func (s *TelegramServer) Start() {
	s.registerCommands()
	s.registerEvents()
	fmt.Println("[Server] Started")
	s.bot.Start()
}

// Stop stops the long poller.
func (s *TelegramServer) Stop() {
	s.bot.Stop()
	fmt.Println("[Server] Stopped")
}

// registerEvents subscribes the moderation gate to every message kind the
// pipeline inspects, plus the join/leave service events.
func (s *TelegramServer) registerEvents() {
	gated := []string{
		tb.OnText,
		tb.OnPhoto,
		tb.OnDocument,
		tb.OnSticker,
		tb.OnAnimation,
		tb.OnAudio,
		tb.OnVideo,
		tb.OnVoice,
		tb.OnVideoNote,
	}
	for _, event := range gated {
		s.bot.Handle(event, s.onMessage)
	}

	s.bot.Handle(tb.OnUserJoined, s.onUserJoined)
	s.bot.Handle(tb.OnUserLeft, s.onUserLeft)
}

// onMessage is the moderation gate for one incoming group message.
func (s *TelegramServer) onMessage(c tb.Context) error {
	msg := c.Message()
	if msg == nil || msg.Private() {
		return nil
	}

	ctx := context.Background()
	m := fromTelebot(msg)

	// Any chat that shows group traffic becomes managed, so the
	// scheduler and the moderation gate share one source of truth.
	if err := s.settings.ObserveChat(ctx, m.ChatID); err != nil {
		fmt.Printf("[Server] Failed to record chat %d as managed: %v\n", m.ChatID, err)
	}

	verdict := s.moderation.Moderate(ctx, m)
	if verdict != domain.VerdictAllow {
		fmt.Printf("[Server] Verdict %s for message %d in chat %d\n", verdict, m.MessageID, m.ChatID)
	}
	return nil
}

// onUserJoined handles the "new members" service notification.
func (s *TelegramServer) onUserJoined(c tb.Context) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}
	s.newcomer.HandleJoin(context.Background(), joinEventFrom(msg))
	return nil
}

// onUserLeft deletes the "member left" service notification.
func (s *TelegramServer) onUserLeft(c tb.Context) error {
	msg := c.Message()
	if msg == nil {
		return nil
	}
	if err := s.chatRepo.DeleteMessage(context.Background(), msg.Chat.ID, msg.ID); err != nil {
		fmt.Printf("[Server] Failed to delete leave notification in chat %d: %v\n", msg.Chat.ID, err)
	}
	return nil
}

// fromTelebot converts a Telegram message into the pipeline's view of it.
func fromTelebot(msg *tb.Message) *domain.Message {
	m := &domain.Message{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Private:   msg.Private(),
		Text:      msg.Text,
		Caption:   msg.Caption,
		HasMedia:  msg.Audio != nil || msg.Video != nil || msg.Voice != nil || msg.VideoNote != nil,
	}
	if msg.Sender != nil {
		m.SenderID = msg.Sender.ID
	}
	if msg.SenderChat != nil {
		m.SenderChatID = msg.SenderChat.ID
	}
	for _, e := range append(msg.Entities, msg.CaptionEntities...) {
		switch e.Type {
		case tb.EntityURL:
			m.Entities = append(m.Entities, domain.EntityURL)
		case tb.EntityTextLink:
			m.Entities = append(m.Entities, domain.EntityTextLink)
		case tb.EntityMention:
			m.Entities = append(m.Entities, domain.EntityMention)
		}
	}
	return m
}

// joinEventFrom converts a "new members" notification. Telegram reports
// either a single joined user or a batch.
func joinEventFrom(msg *tb.Message) *domain.JoinEvent {
	ev := &domain.JoinEvent{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
	}
	if msg.Sender != nil {
		ev.InviterID = msg.Sender.ID
	}

	joined := msg.UsersJoined
	if len(joined) == 0 && msg.UserJoined != nil {
		joined = []tb.User{*msg.UserJoined}
	}
	for _, u := range joined {
		ev.Members = append(ev.Members, domain.JoinedMember{ID: u.ID, IsBot: u.IsBot})
	}
	return ev
}
