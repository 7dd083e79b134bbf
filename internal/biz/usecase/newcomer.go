package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/groupwarden/internal/biz/domain"
	"github.com/anthropics/groupwarden/internal/biz/repo"
)

// NewcomerUsecase reacts to join events: it bans joining bots (and their
// inviter) and time-restricts joining humans. Stateless between
// invocations; the only persistent side effect is growing the managed
// chat set.
type NewcomerUsecase struct {
	chatRepo repo.ChatRepo
	settings *SettingsUsecase

	now func() time.Time
}

// NewNewcomerUsecase creates a new newcomer usecase.
func NewNewcomerUsecase(chatRepo repo.ChatRepo, settings *SettingsUsecase) *NewcomerUsecase {
	return &NewcomerUsecase{
		chatRepo: chatRepo,
		settings: settings,
		now:      time.Now,
	}
}

// HandleJoin processes one join event. The service notification is always
// deleted first, and the chat is recorded as managed.
func (uc *NewcomerUsecase) HandleJoin(ctx context.Context, ev *domain.JoinEvent) {
	if err := uc.chatRepo.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
		fmt.Printf("[Newcomer] Failed to delete join notification in chat %d: %v\n", ev.ChatID, err)
	}
	if err := uc.settings.ObserveChat(ctx, ev.ChatID); err != nil {
		fmt.Printf("[Newcomer] Failed to record chat %d as managed: %v\n", ev.ChatID, err)
	}

	muteMinutes := uc.settings.NewcomerMuteMinutes()

	for _, member := range ev.Members {
		if member.IsBot {
			uc.ban(ctx, ev.ChatID, member.ID)
			if ev.InviterID != 0 {
				uc.ban(ctx, ev.ChatID, ev.InviterID)
			}
			continue
		}

		if muteMinutes <= 0 {
			continue
		}

		// Admins joining back are left alone. A failed lookup does not
		// skip enforcement: restricting an unknown newcomer is safer than
		// silently letting one through.
		if role, err := uc.chatRepo.MemberRole(ctx, ev.ChatID, member.ID); err == nil && role.Privileged() {
			continue
		}

		until := uc.now().UTC().Add(time.Duration(muteMinutes) * time.Minute)
		if err := uc.chatRepo.RestrictMember(ctx, ev.ChatID, member.ID, domain.ProfileRestricted, until); err != nil {
			fmt.Printf("[Newcomer] Failed to restrict user %d in chat %d: %v\n", member.ID, ev.ChatID, err)
		}
	}
}

func (uc *NewcomerUsecase) ban(ctx context.Context, chatID, userID int64) {
	if err := uc.chatRepo.BanMember(ctx, chatID, userID); err != nil {
		fmt.Printf("[Newcomer] Failed to ban user %d in chat %d: %v\n", userID, chatID, err)
	}
}
