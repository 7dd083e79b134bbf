package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/groupwarden/internal/biz/domain"
)

func newTestPrivilege(t *testing.T, chatRepo *mockChatRepo, operators ...int64) *PrivilegeUsecase {
	t.Helper()
	stored := domain.DefaultSettings()
	stored.Operators = operators
	settings := newTestSettings(t, &mockSettingsRepo{stored: stored})
	return NewPrivilegeUsecase(chatRepo, settings)
}

func TestIsExempt(t *testing.T) {
	chatRepo := &mockChatRepo{roles: map[int64]domain.MemberRole{
		1: domain.RoleAdmin,
		2: domain.RoleOwner,
		3: domain.RoleMember,
	}}
	uc := newTestPrivilege(t, chatRepo)
	ctx := context.Background()

	if !uc.IsExempt(ctx, -100500, 1, 0) {
		t.Error("Administrators must be exempt")
	}
	if !uc.IsExempt(ctx, -100500, 2, 0) {
		t.Error("The owner must be exempt")
	}
	if uc.IsExempt(ctx, -100500, 3, 0) {
		t.Error("Regular members must not be exempt")
	}
	// Anonymous admin posts carry the chat itself as sender.
	if !uc.IsExempt(ctx, -100500, 0, -100500) {
		t.Error("Posts made as the chat must be exempt")
	}
	if uc.IsExempt(ctx, -100500, 0, 0) {
		t.Error("A message with no resolvable sender must not be exempt")
	}
}

func TestIsExempt_LookupFailure(t *testing.T) {
	chatRepo := &mockChatRepo{roleErr: errors.New("api timeout")}
	uc := newTestPrivilege(t, chatRepo)

	if uc.IsExempt(context.Background(), -100500, 1, 0) {
		t.Error("A failed role lookup must count as not exempt")
	}
}

func TestIsOperator(t *testing.T) {
	uc := newTestPrivilege(t, &mockChatRepo{}, 42)

	if !uc.IsOperator(42) {
		t.Error("Configured operator not recognized")
	}
	if uc.IsOperator(43) {
		t.Error("Unknown user must not be an operator")
	}
	if uc.IsOperator(0) {
		t.Error("The zero ID must never be an operator")
	}
}

func TestCanManage(t *testing.T) {
	chatRepo := &mockChatRepo{roles: map[int64]domain.MemberRole{1: domain.RoleAdmin}}
	uc := newTestPrivilege(t, chatRepo, 42)
	ctx := context.Background()

	private := &domain.Message{Private: true, ChatID: 42, SenderID: 42}
	if !uc.CanManage(ctx, private) {
		t.Error("An operator must manage in private chat")
	}
	private.SenderID = 1
	if uc.CanManage(ctx, private) {
		t.Error("A group admin is not an operator in private chat")
	}

	group := &domain.Message{ChatID: -100500, SenderID: 1}
	if !uc.CanManage(ctx, group) {
		t.Error("A group admin must manage in their group")
	}
	group.SenderID = 42
	if uc.CanManage(ctx, group) {
		t.Error("Operator status alone must not grant in-group management")
	}
}
