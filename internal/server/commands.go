package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/groupwarden/internal/biz/domain"

	tb "gopkg.in/telebot.v3"
)

const helpText = `I am a group moderation bot.

Settings are global and shared by every chat I am in.
Management:
- In groups: chat administrators.
- In private chat with me: configured operators only (by ID).

Commands:
/mute1m - forbid posting for everyone for 1 minute (groups only)
/badwords - show the banned phrase list
/add_badword <phrase or list> - newline/comma/semicolon separated, or reply to a list
/remove_badword <phrase or list>
/newbie_mute - show the newcomer auto-mute (minutes)
/set_newbie_mute <minutes> - 0 disables
/schedule - show the daily open/close schedule
/schedule_on /schedule_off
/set_open_time HH:MM  /set_close_time HH:MM
/set_timezone <IANA zone, e.g. Europe/Berlin>

Operator commands (private chat):
/myid - show your ID
/admins - list operators
/add_admin <id>  /remove_admin <id>

Moderation: I delete service messages, links, @usernames, audio/video/voice/
video notes and one-character messages; banned phrases mean deletion plus a
permanent ban; joined bots are banned along with their inviter. Chat
administrators are never filtered.`

// registerCommands wires the configuration command layer. Every mutating
// command is gated by the privilege check before it touches settings.
func (s *TelegramServer) registerCommands() {
	s.bot.Handle("/start", s.cmdHelp)
	s.bot.Handle("/help", s.cmdHelp)
	s.bot.Handle("/myid", s.cmdMyID)

	s.bot.Handle("/admins", s.cmdOperators)
	s.bot.Handle("/add_admin", s.cmdAddOperator)
	s.bot.Handle("/remove_admin", s.cmdRemoveOperator)

	s.bot.Handle("/badwords", s.cmdPhrases)
	s.bot.Handle("/add_badword", s.cmdAddPhrases)
	s.bot.Handle("/remove_badword", s.cmdRemovePhrases)

	s.bot.Handle("/newbie_mute", s.cmdShowMute)
	s.bot.Handle("/set_newbie_mute", s.cmdSetMute)
	s.bot.Handle("/mute1m", s.cmdMuteMinute)

	s.bot.Handle("/schedule", s.cmdSchedule)
	s.bot.Handle("/schedule_on", s.cmdScheduleOn)
	s.bot.Handle("/schedule_off", s.cmdScheduleOff)
	s.bot.Handle("/set_open_time", s.cmdSetOpenTime)
	s.bot.Handle("/set_close_time", s.cmdSetCloseTime)
	s.bot.Handle("/set_timezone", s.cmdSetTimezone)
}

// canManage gates configuration-mutating commands.
func (s *TelegramServer) canManage(c tb.Context) bool {
	msg := c.Message()
	if msg == nil {
		return false
	}
	return s.privilege.CanManage(context.Background(), fromTelebot(msg))
}

// operatorInPrivate gates operator-management commands.
func (s *TelegramServer) operatorInPrivate(c tb.Context) bool {
	msg := c.Message()
	if msg == nil || !msg.Private() || msg.Sender == nil {
		return false
	}
	return s.privilege.IsOperator(msg.Sender.ID)
}

func (s *TelegramServer) cmdHelp(c tb.Context) error {
	return c.Reply(helpText)
}

func (s *TelegramServer) cmdMyID(c tb.Context) error {
	if c.Sender() == nil {
		return nil
	}
	return c.Reply(fmt.Sprintf("Your ID: %d", c.Sender().ID))
}

func (s *TelegramServer) cmdOperators(c tb.Context) error {
	if !s.operatorInPrivate(c) {
		return c.Reply("This command is for operators in private chat only.")
	}
	ops := s.settings.Operators()
	if len(ops) == 0 {
		return c.Reply("No operators configured.")
	}
	lines := make([]string, 0, len(ops))
	for _, id := range ops {
		lines = append(lines, fmt.Sprintf("- %d", id))
	}
	return c.Reply("Operators:\n" + strings.Join(lines, "\n"))
}

func (s *TelegramServer) cmdAddOperator(c tb.Context) error {
	if !s.operatorInPrivate(c) {
		return c.Reply("This command is for operators in private chat only.")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
	if err != nil || id <= 0 {
		return c.Reply("Usage: /add_admin <user_id>\n(find an ID with /myid)")
	}
	added, err := s.settings.AddOperator(context.Background(), id)
	if err != nil {
		return c.Reply("Failed: " + err.Error())
	}
	if !added {
		return c.Reply("Already an operator.")
	}
	return c.Reply(fmt.Sprintf("Operator added: %d", id))
}

func (s *TelegramServer) cmdRemoveOperator(c tb.Context) error {
	if !s.operatorInPrivate(c) {
		return c.Reply("This command is for operators in private chat only.")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
	if err != nil || id <= 0 {
		return c.Reply("Usage: /remove_admin <user_id>")
	}
	removed, err := s.settings.RemoveOperator(context.Background(), id)
	if err != nil {
		return c.Reply("Failed: " + err.Error())
	}
	if !removed {
		return c.Reply("That ID is not in the list.")
	}
	return c.Reply(fmt.Sprintf("Operator removed: %d", id))
}

func (s *TelegramServer) cmdPhrases(c tb.Context) error {
	if !s.canManage(c) {
		return c.Reply("Not enough rights.")
	}
	phrases := s.settings.BannedPhrases()
	if len(phrases) == 0 {
		return c.Reply("The banned phrase list is empty.")
	}
	return c.Reply("Banned phrases:\n- " + strings.Join(phrases, "\n- "))
}

// phraseInput takes the command payload, falling back to the text of a
// replied-to message so a whole list can be added by replying to it.
func phraseInput(c tb.Context) string {
	msg := c.Message()
	raw := strings.TrimSpace(msg.Payload)
	if raw == "" && msg.ReplyTo != nil {
		raw = fromTelebot(msg.ReplyTo).EffectiveText()
	}
	return raw
}

func (s *TelegramServer) cmdAddPhrases(c tb.Context) error {
	if !s.canManage(c) {
		return c.Reply("Not enough rights.")
	}
	raw := phraseInput(c)
	if raw == "" {
		return c.Reply("Give a phrase or a list (newlines/commas/semicolons), or reply to a message containing one.")
	}
	added, err := s.settings.AddPhrases(context.Background(), raw)
	if err != nil {
		return c.Reply("Failed: " + err.Error())
	}
	if len(added) == 0 {
		return c.Reply("Nothing new.")
	}
	return c.Reply("Added: " + previewList(added))
}

func (s *TelegramServer) cmdRemovePhrases(c tb.Context) error {
	if !s.canManage(c) {
		return c.Reply("Not enough rights.")
	}
	raw := phraseInput(c)
	if raw == "" {
		return c.Reply("Give a phrase or a list to remove (newlines/commas/semicolons, or reply).")
	}
	removed, err := s.settings.RemovePhrases(context.Background(), raw)
	if err != nil {
		return c.Reply("Failed: " + err.Error())
	}
	if len(removed) == 0 {
		return c.Reply("None of those are in the list.")
	}
	return c.Reply("Removed: " + previewList(removed))
}

func previewList(items []string) string {
	const limit = 20
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:limit], ", ") + "…"
}

func (s *TelegramServer) cmdShowMute(c tb.Context) error {
	if !s.canManage(c) {
		return c.Reply("Not enough rights.")
	}
	minutes := s.settings.NewcomerMuteMinutes()
	if minutes <= 0 {
		return c.Reply("Newcomer auto-mute: disabled (0 minutes).")
	}
	return c.Reply(fmt.Sprintf("Newcomer auto-mute: %d min.", minutes))
}

func (s *TelegramServer) cmdSetMute(c tb.Context) error {
	if !s.canManage(c) {
		return c.Reply("Not enough rights.")
	}
	payload := strings.TrimSpace(c.Message().Payload)
	if payload == "" {
		return c.Reply("Usage: /set_newbie_mute <minutes> (0 disables)")
	}
	minutes, err := strconv.Atoi(payload)
	if err != nil {
		return c.Reply("Minutes must be an integer.")
	}
	applied, err := s.settings.SetNewcomerMuteMinutes(context.Background(), minutes)
	if err != nil {
		return c.Reply("Failed: " + err.Error())
	}
	return c.Reply(fmt.Sprintf("Done. Newcomer auto-mute: %d min.", applied))
}

// cmdMuteMinute closes the chat for one minute, restoring the open
// profile on a one-shot timer. The timer is not coordinated with the
// daily scheduler; the most recent permission write wins.
func (s *TelegramServer) cmdMuteMinute(c tb.Context) error {
	msg := c.Message()
	if msg == nil || msg.Private() || !s.canManage(c) {
		return c.Reply("This command works in groups, for admins only.")
	}

	chatID := msg.Chat.ID
	if err := s.chatRepo.SetChatPermissions(context.Background(), chatID, domain.ProfileRestricted); err != nil {
		return c.Reply("Could not change permissions. Grant me the manage-chat right.")
	}

	time.AfterFunc(time.Minute, func() {
		if err := s.chatRepo.SetChatPermissions(context.Background(), chatID, domain.ProfileOpen); err != nil {
			fmt.Printf("[Server] Failed to reopen chat %d after /mute1m: %v\n", chatID, err)
		}
	})

	return c.Reply("Chat muted for 1 minute.")
}

func (s *TelegramServer) cmdSchedule(c tb.Context) error {
	if !s.canManage(c) {
		return c.Reply("Not enough rights.")
	}
	sch := s.settings.Settings().Schedule
	state := "off"
	if sch.Enabled {
		state = "on"
	}
	return c.Reply(fmt.Sprintf(
		"Schedule: %s\nOpen: %s\nClose: %s\nTimezone: %s",
		state, sch.OpenTime, sch.CloseTime, sch.Timezone,
	))
}

func (s *TelegramServer) cmdScheduleOn(c tb.Context) error {
	return s.setScheduleEnabled(c, true, "Schedule enabled.")
}

func (s *TelegramServer) cmdScheduleOff(c tb.Context) error {
	return s.setScheduleEnabled(c, false, "Schedule disabled.")
}

func (s *TelegramServer) setScheduleEnabled(c tb.Context, enabled bool, reply string) error {
	if !s.canManage(c) {
		return c.Reply("Not enough rights.")
	}
	if err := s.settings.SetScheduleEnabled(context.Background(), enabled); err != nil {
		return c.Reply("Failed: " + err.Error())
	}
	return c.Reply(reply)
}

func (s *TelegramServer) cmdSetOpenTime(c tb.Context) error {
	if !s.canManage(c) {
		return c.Reply("Not enough rights.")
	}
	clock := strings.TrimSpace(c.Message().Payload)
	if err := s.settings.SetOpenTime(context.Background(), clock); err != nil {
		return c.Reply("Failed: " + err.Error())
	}
	return c.Reply("Open time set to " + clock + ".")
}

func (s *TelegramServer) cmdSetCloseTime(c tb.Context) error {
	if !s.canManage(c) {
		return c.Reply("Not enough rights.")
	}
	clock := strings.TrimSpace(c.Message().Payload)
	if err := s.settings.SetCloseTime(context.Background(), clock); err != nil {
		return c.Reply("Failed: " + err.Error())
	}
	return c.Reply("Close time set to " + clock + ".")
}

func (s *TelegramServer) cmdSetTimezone(c tb.Context) error {
	if !s.canManage(c) {
		return c.Reply("Not enough rights.")
	}
	zone := strings.TrimSpace(c.Message().Payload)
	if err := s.settings.SetTimezone(context.Background(), zone); err != nil {
		return c.Reply("Failed: " + err.Error())
	}
	return c.Reply("Timezone set to " + zone + ".")
}
