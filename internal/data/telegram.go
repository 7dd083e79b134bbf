package data

import (
	"context"
	"strconv"
	"time"

	"github.com/anthropics/groupwarden/internal/biz/domain"
	"github.com/anthropics/groupwarden/internal/biz/repo"

	tb "gopkg.in/telebot.v3"
)

// restrictedRights forbids posting entirely; openRights allows regular
// posting but never change-info or pin.
var (
	restrictedRights = tb.Rights{
		CanSendMessages: false,
		CanSendMedia:    false,
		CanSendPolls:    false,
		CanSendOther:    false,
		CanAddPreviews:  false,
		CanChangeInfo:   false,
		CanInviteUsers:  false,
		CanPinMessages:  false,
	}

	openRights = tb.Rights{
		CanSendMessages: true,
		CanSendMedia:    true,
		CanSendPolls:    true,
		CanSendOther:    true,
		CanAddPreviews:  true,
		CanInviteUsers:  true,
		CanChangeInfo:   false,
		CanPinMessages:  false,
	}
)

// chatRepo implements the Chat repository over the Telegram Bot API.
type chatRepo struct {
	bot *tb.Bot
}

// NewChatRepo creates a new Chat repository backed by the given bot.
func NewChatRepo(bot *tb.Bot) repo.ChatRepo {
	return &chatRepo{bot: bot}
}

// RightsFor maps a permission profile to concrete Telegram rights.
func RightsFor(profile domain.PermissionProfile) tb.Rights {
	if profile == domain.ProfileOpen {
		return openRights
	}
	return restrictedRights
}

// DeleteMessage removes one message from a chat.
func (r *chatRepo) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return r.bot.Delete(tb.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	})
}

// BanMember permanently bans a user from a chat.
func (r *chatRepo) BanMember(ctx context.Context, chatID, userID int64) error {
	return r.bot.Ban(&tb.Chat{ID: chatID}, &tb.ChatMember{
		User: &tb.User{ID: userID},
	})
}

// RestrictMember applies a profile to a single member until the given
// instant; Telegram lifts the restriction itself afterwards.
func (r *chatRepo) RestrictMember(ctx context.Context, chatID, userID int64, profile domain.PermissionProfile, until time.Time) error {
	return r.bot.Restrict(&tb.Chat{ID: chatID}, &tb.ChatMember{
		User:            &tb.User{ID: userID},
		Rights:          RightsFor(profile),
		RestrictedUntil: until.Unix(),
	})
}

// SetChatPermissions replaces a chat's default permissions.
func (r *chatRepo) SetChatPermissions(ctx context.Context, chatID int64, profile domain.PermissionProfile) error {
	return r.bot.SetGroupPermissions(&tb.Chat{ID: chatID}, RightsFor(profile))
}

// MemberRole fetches a user's membership role within a chat.
func (r *chatRepo) MemberRole(ctx context.Context, chatID, userID int64) (domain.MemberRole, error) {
	member, err := r.bot.ChatMemberOf(&tb.Chat{ID: chatID}, &tb.User{ID: userID})
	if err != nil {
		return domain.RoleUnknown, err
	}
	switch member.Role {
	case tb.Creator:
		return domain.RoleOwner, nil
	case tb.Administrator:
		return domain.RoleAdmin, nil
	default:
		return domain.RoleMember, nil
	}
}
