package repo

import (
	"context"
	"time"

	"github.com/anthropics/groupwarden/internal/biz/domain"
)

// ChatRepo is the transport interface for moderation side effects.
// Every call may block on network I/O; callers at the moderation and
// scheduling layer treat failures as best-effort (log and continue).
type ChatRepo interface {
	// DeleteMessage removes one message from a chat.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// BanMember permanently bans a user from a chat.
	BanMember(ctx context.Context, chatID, userID int64) error

	// RestrictMember applies a permission profile to a single member until
	// the given UTC instant; the platform lifts the restriction itself.
	RestrictMember(ctx context.Context, chatID, userID int64, profile domain.PermissionProfile, until time.Time) error

	// SetChatPermissions replaces a chat's default permissions.
	SetChatPermissions(ctx context.Context, chatID int64, profile domain.PermissionProfile) error

	// MemberRole fetches a user's membership role within a chat.
	MemberRole(ctx context.Context, chatID, userID int64) (domain.MemberRole, error)
}
