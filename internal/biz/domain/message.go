package domain

import "strings"

// Verdict is the moderation decision for one message.
type Verdict int

const (
	VerdictAllow Verdict = iota
	VerdictDelete
	VerdictDeleteAndBan
)

// String returns the verdict name for logging.
func (v Verdict) String() string {
	switch v {
	case VerdictDelete:
		return "delete"
	case VerdictDeleteAndBan:
		return "delete+ban"
	default:
		return "allow"
	}
}

// EntityKind tags a rich-text annotation carried by a message.
type EntityKind int

const (
	EntityURL EntityKind = iota
	EntityTextLink
	EntityMention
)

// MemberRole is a sender's membership role within a chat.
type MemberRole int

const (
	RoleUnknown MemberRole = iota
	RoleMember
	RoleAdmin
	RoleOwner
)

// Privileged reports whether the role is exempt from moderation.
func (r MemberRole) Privileged() bool {
	return r == RoleAdmin || r == RoleOwner
}

// PermissionProfile is a named bundle of chat permissions.
type PermissionProfile int

const (
	// ProfileRestricted forbids posting entirely.
	ProfileRestricted PermissionProfile = iota
	// ProfileOpen allows regular posting (messages, media, polls, previews).
	ProfileOpen
)

// String returns the profile name for logging.
func (p PermissionProfile) String() string {
	if p == ProfileOpen {
		return "open"
	}
	return "restricted"
}

// Message is the transport-independent view of one incoming message,
// carrying exactly what the moderation pipeline inspects.
type Message struct {
	ChatID       int64
	MessageID    int
	SenderID     int64 // 0 when no sender identity is available
	SenderChatID int64 // non-zero for posts made as a chat identity
	Private      bool
	Text         string
	Caption      string
	Entities     []EntityKind
	HasMedia     bool // audio, video, voice or video note
}

// EffectiveText returns the message text, or the caption when there is no
// text, trimmed of surrounding whitespace.
func (m *Message) EffectiveText() string {
	if t := strings.TrimSpace(m.Text); t != "" {
		return t
	}
	return strings.TrimSpace(m.Caption)
}

// Anonymous reports whether the message was posted as the chat itself
// (anonymous-admin posting mode).
func (m *Message) Anonymous() bool {
	return m.SenderChatID != 0 && m.SenderChatID == m.ChatID
}

// HasEntity reports whether the message carries an annotation of the kind.
func (m *Message) HasEntity(kind EntityKind) bool {
	for _, e := range m.Entities {
		if e == kind {
			return true
		}
	}
	return false
}

// JoinedMember is one identity carried by a join event.
type JoinedMember struct {
	ID    int64
	IsBot bool
}

// JoinEvent is a "new members" service notification.
type JoinEvent struct {
	ChatID    int64
	MessageID int
	InviterID int64 // 0 when the event records no inviting user
	Members   []JoinedMember
}
