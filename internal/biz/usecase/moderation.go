package usecase

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/anthropics/groupwarden/internal/biz/domain"
	"github.com/anthropics/groupwarden/internal/biz/repo"
)

var (
	urlPattern     = regexp.MustCompile(`(?i)(https?://\S+|t\.me/\S+|telegram\.me/\S+|telegram\.org/\S+)`)
	mentionPattern = regexp.MustCompile(`(^|[^0-9A-Za-z_])@\w{5,}\b`)
)

// ModerationUsecase is the rule pipeline deciding, for one incoming
// message, whether to allow it, delete it, or delete it and ban the
// sender.
type ModerationUsecase struct {
	chatRepo  repo.ChatRepo
	settings  *SettingsUsecase
	privilege *PrivilegeUsecase
}

// NewModerationUsecase creates a new moderation usecase.
func NewModerationUsecase(chatRepo repo.ChatRepo, settings *SettingsUsecase, privilege *PrivilegeUsecase) *ModerationUsecase {
	return &ModerationUsecase{
		chatRepo:  chatRepo,
		settings:  settings,
		privilege: privilege,
	}
}

// Evaluate runs the rule pipeline in fixed order; the first matching rule
// wins. Banned phrases are deliberately checked last: they carry the hard
// delete+ban verdict, and a message that also trips a soft rule (media,
// degenerate text, link, mention) is only deleted.
func (uc *ModerationUsecase) Evaluate(ctx context.Context, m *domain.Message) domain.Verdict {
	if uc.privilege.IsExempt(ctx, m.ChatID, m.SenderID, m.SenderChatID) {
		return domain.VerdictAllow
	}

	if m.HasMedia {
		return domain.VerdictDelete
	}

	text := m.EffectiveText()
	if utf8.RuneCountInString(text) == 1 {
		return domain.VerdictDelete
	}

	if m.HasEntity(domain.EntityURL) || m.HasEntity(domain.EntityTextLink) || urlPattern.MatchString(text) {
		return domain.VerdictDelete
	}

	if m.HasEntity(domain.EntityMention) || mentionPattern.MatchString(text) {
		return domain.VerdictDelete
	}

	if uc.settings.Matcher().Match(text) {
		return domain.VerdictDeleteAndBan
	}

	return domain.VerdictAllow
}

// Execute carries out a verdict. Both the delete and the ban are
// best-effort and attempted independently: a failed delete does not stop
// the ban attempt, and neither failure ever propagates to the event loop.
func (uc *ModerationUsecase) Execute(ctx context.Context, m *domain.Message, verdict domain.Verdict) {
	switch verdict {
	case domain.VerdictAllow:
		return
	case domain.VerdictDelete:
		uc.deleteMessage(ctx, m)
	case domain.VerdictDeleteAndBan:
		uc.deleteMessage(ctx, m)
		if m.SenderID != 0 {
			if err := uc.chatRepo.BanMember(ctx, m.ChatID, m.SenderID); err != nil {
				fmt.Printf("[Moderation] Failed to ban user %d in chat %d: %v\n", m.SenderID, m.ChatID, err)
			}
		}
	}
}

// Moderate evaluates one message and executes the verdict.
func (uc *ModerationUsecase) Moderate(ctx context.Context, m *domain.Message) domain.Verdict {
	verdict := uc.Evaluate(ctx, m)
	uc.Execute(ctx, m, verdict)
	return verdict
}

func (uc *ModerationUsecase) deleteMessage(ctx context.Context, m *domain.Message) {
	if err := uc.chatRepo.DeleteMessage(ctx, m.ChatID, m.MessageID); err != nil {
		fmt.Printf("[Moderation] Failed to delete message %d in chat %d: %v\n", m.MessageID, m.ChatID, err)
	}
}
