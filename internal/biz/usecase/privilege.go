package usecase

import (
	"context"

	"github.com/anthropics/groupwarden/internal/biz/domain"
	"github.com/anthropics/groupwarden/internal/biz/repo"
)

// PrivilegeUsecase answers who is exempt from moderation and who may
// change configuration.
type PrivilegeUsecase struct {
	chatRepo repo.ChatRepo
	settings *SettingsUsecase
}

// NewPrivilegeUsecase creates a new privilege usecase.
func NewPrivilegeUsecase(chatRepo repo.ChatRepo, settings *SettingsUsecase) *PrivilegeUsecase {
	return &PrivilegeUsecase{chatRepo: chatRepo, settings: settings}
}

// IsExempt reports whether the sender is exempt from moderation: posts
// made as the chat itself are exempt, as are chat administrators and the
// owner. A failed role lookup counts as not exempt; this check never
// returns an error.
func (uc *PrivilegeUsecase) IsExempt(ctx context.Context, chatID, senderID, senderChatID int64) bool {
	if senderChatID != 0 && senderChatID == chatID {
		return true
	}
	if senderID == 0 {
		return false
	}
	role, err := uc.chatRepo.MemberRole(ctx, chatID, senderID)
	if err != nil {
		return false
	}
	return role.Privileged()
}

// IsOperator reports whether the user is a configured operator.
func (uc *PrivilegeUsecase) IsOperator(userID int64) bool {
	return userID != 0 && uc.settings.Settings().HasOperator(userID)
}

// CanManage is the single gate for configuration-mutating commands: in a
// private chat only operators may manage; in a group the sender must pass
// the exemption check (administrator, owner, or anonymous-admin post).
func (uc *PrivilegeUsecase) CanManage(ctx context.Context, m *domain.Message) bool {
	if m.Private {
		return uc.IsOperator(m.SenderID)
	}
	return uc.IsExempt(ctx, m.ChatID, m.SenderID, m.SenderChatID)
}
