package usecase

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/anthropics/groupwarden/internal/biz/domain"
)

func newTestNewcomer(t *testing.T, chatRepo *mockChatRepo, muteMinutes int) (*NewcomerUsecase, *SettingsUsecase) {
	t.Helper()
	stored := domain.DefaultSettings()
	stored.NewcomerMuteMinutes = muteMinutes
	settings := newTestSettings(t, &mockSettingsRepo{stored: stored})
	return NewNewcomerUsecase(chatRepo, settings), settings
}

func joinEvent(members ...domain.JoinedMember) *domain.JoinEvent {
	return &domain.JoinEvent{
		ChatID:    -100500,
		MessageID: 33,
		InviterID: 7,
		Members:   members,
	}
}

func TestHandleJoin_RestrictsNewcomer(t *testing.T) {
	chatRepo := &mockChatRepo{}
	uc, settings := newTestNewcomer(t, chatRepo, 5)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return base }

	uc.HandleJoin(context.Background(), joinEvent(domain.JoinedMember{ID: 100}))

	if !slices.Contains(chatRepo.deleted, 33) {
		t.Error("Join notification must be deleted")
	}
	if !settings.Settings().HasManagedChat(-100500) {
		t.Error("Chat must be recorded as managed")
	}
	if len(chatRepo.restricted) != 1 {
		t.Fatalf("Expected one restriction, got %d", len(chatRepo.restricted))
	}
	call := chatRepo.restricted[0]
	if call.userID != 100 || call.profile != domain.ProfileRestricted {
		t.Errorf("Unexpected restriction call: %+v", call)
	}
	if want := base.Add(5 * time.Minute); !call.until.Equal(want) {
		t.Errorf("Expected restriction until %v, got %v", want, call.until)
	}
	if len(chatRepo.banned) != 0 {
		t.Errorf("A human newcomer must not be banned, got %v", chatRepo.banned)
	}
}

func TestHandleJoin_BansBotAndInviter(t *testing.T) {
	chatRepo := &mockChatRepo{}
	uc, _ := newTestNewcomer(t, chatRepo, 5)

	uc.HandleJoin(context.Background(), joinEvent(domain.JoinedMember{ID: 200, IsBot: true}))

	if !slices.Equal(chatRepo.banned, []int64{200, 7}) {
		t.Errorf("Expected bot and inviter banned, got %v", chatRepo.banned)
	}
	if len(chatRepo.restricted) != 0 {
		t.Errorf("A banned bot must not also be restricted, got %v", chatRepo.restricted)
	}
}

func TestHandleJoin_BotJoiningAlone(t *testing.T) {
	chatRepo := &mockChatRepo{}
	uc, _ := newTestNewcomer(t, chatRepo, 5)

	ev := joinEvent(domain.JoinedMember{ID: 200, IsBot: true})
	ev.InviterID = 0
	uc.HandleJoin(context.Background(), ev)

	if !slices.Equal(chatRepo.banned, []int64{200}) {
		t.Errorf("Only the bot itself must be banned, got %v", chatRepo.banned)
	}
}

func TestHandleJoin_ZeroMinutesDisablesRestriction(t *testing.T) {
	chatRepo := &mockChatRepo{}
	uc, _ := newTestNewcomer(t, chatRepo, 0)

	uc.HandleJoin(context.Background(), joinEvent(domain.JoinedMember{ID: 100}))

	if len(chatRepo.restricted) != 0 {
		t.Errorf("Zero minutes must skip restriction, got %v", chatRepo.restricted)
	}
	if !slices.Contains(chatRepo.deleted, 33) {
		t.Error("Join notification is deleted even when restriction is off")
	}
}

func TestHandleJoin_AdminRejoining(t *testing.T) {
	chatRepo := &mockChatRepo{roles: map[int64]domain.MemberRole{100: domain.RoleAdmin}}
	uc, _ := newTestNewcomer(t, chatRepo, 5)

	uc.HandleJoin(context.Background(), joinEvent(domain.JoinedMember{ID: 100}))

	if len(chatRepo.restricted) != 0 {
		t.Errorf("A rejoining admin must not be restricted, got %v", chatRepo.restricted)
	}
}

func TestHandleJoin_RoleLookupFailureStillRestricts(t *testing.T) {
	chatRepo := &mockChatRepo{roleErr: errors.New("bot was kicked")}
	uc, _ := newTestNewcomer(t, chatRepo, 5)

	uc.HandleJoin(context.Background(), joinEvent(domain.JoinedMember{ID: 100}))

	if len(chatRepo.restricted) != 1 {
		t.Errorf("A failed role lookup must not skip restriction, got %v", chatRepo.restricted)
	}
}

func TestHandleJoin_MixedBatch(t *testing.T) {
	chatRepo := &mockChatRepo{}
	uc, _ := newTestNewcomer(t, chatRepo, 5)

	uc.HandleJoin(context.Background(), joinEvent(
		domain.JoinedMember{ID: 100},
		domain.JoinedMember{ID: 200, IsBot: true},
		domain.JoinedMember{ID: 300},
	))

	if len(chatRepo.restricted) != 2 {
		t.Errorf("Both humans must be restricted, got %v", chatRepo.restricted)
	}
	if !slices.Contains(chatRepo.banned, int64(200)) {
		t.Errorf("The bot must be banned, got %v", chatRepo.banned)
	}
}
