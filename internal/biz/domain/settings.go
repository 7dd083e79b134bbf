package domain

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Bounds for the newcomer auto-mute duration.
const (
	MinMuteMinutes = 0
	MaxMuteMinutes = 1440
)

// Fallback schedule values used when the stored ones cannot be parsed.
const (
	DefaultOpenTime  = "10:00"
	DefaultCloseTime = "19:00"
	DefaultTimezone  = "UTC"
)

// Schedule is the daily open/close window shared by all managed chats.
type Schedule struct {
	Enabled   bool   `json:"enabled"`
	OpenTime  string `json:"open_time"`  // HH:MM, 24-hour
	CloseTime string `json:"close_time"` // HH:MM, 24-hour
	Timezone  string `json:"tz"`         // IANA zone name
}

// Settings is the single settings document shared by every chat the bot
// can reach. It is only mutated through the settings usecase.
type Settings struct {
	BannedPhrases       []string `json:"banned_words"`
	NewcomerMuteMinutes int      `json:"newbie_mute_minutes"`
	Operators           []int64  `json:"superadmins"`
	Schedule            Schedule `json:"schedule"`
	ManagedChats        []int64  `json:"managed_chats"`
}

// DefaultSettings returns the document used when nothing is persisted yet.
func DefaultSettings() *Settings {
	return &Settings{
		BannedPhrases:       []string{},
		NewcomerMuteMinutes: 1,
		Operators:           []int64{},
		Schedule: Schedule{
			Enabled:   false,
			OpenTime:  DefaultOpenTime,
			CloseTime: DefaultCloseTime,
			Timezone:  DefaultTimezone,
		},
		ManagedChats: []int64{},
	}
}

// Clone returns a deep copy suitable for copy-on-write mutation.
func (s *Settings) Clone() *Settings {
	out := *s
	out.BannedPhrases = slices.Clone(s.BannedPhrases)
	out.Operators = slices.Clone(s.Operators)
	out.ManagedChats = slices.Clone(s.ManagedChats)
	return &out
}

// Normalize enforces the document invariants: phrases trimmed, lower-cased,
// deduplicated and sorted; mute minutes clamped; ID sets deduplicated and
// sorted; schedule fields replaced with defaults when unparseable.
func (s *Settings) Normalize() {
	phrases := make([]string, 0, len(s.BannedPhrases))
	seen := make(map[string]struct{}, len(s.BannedPhrases))
	for _, p := range s.BannedPhrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		phrases = append(phrases, p)
	}
	slices.Sort(phrases)
	s.BannedPhrases = phrases

	if s.NewcomerMuteMinutes < MinMuteMinutes {
		s.NewcomerMuteMinutes = MinMuteMinutes
	}
	if s.NewcomerMuteMinutes > MaxMuteMinutes {
		s.NewcomerMuteMinutes = MaxMuteMinutes
	}

	s.Operators = normalizeIDs(s.Operators)
	s.ManagedChats = normalizeIDs(s.ManagedChats)

	if !ValidClock(s.Schedule.OpenTime) {
		s.Schedule.OpenTime = DefaultOpenTime
	}
	if !ValidClock(s.Schedule.CloseTime) {
		s.Schedule.CloseTime = DefaultCloseTime
	}
	if _, err := time.LoadLocation(s.Schedule.Timezone); err != nil || s.Schedule.Timezone == "" {
		s.Schedule.Timezone = DefaultTimezone
	}
}

// HasOperator reports whether the user ID is a configured operator.
func (s *Settings) HasOperator(userID int64) bool {
	return slices.Contains(s.Operators, userID)
}

// HasManagedChat reports whether the chat is already in the managed set.
func (s *Settings) HasManagedChat(chatID int64) bool {
	return slices.Contains(s.ManagedChats, chatID)
}

func normalizeIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

var phraseDelimiters = regexp.MustCompile(`[,\n;]+`)

// ParsePhraseList splits raw command input into phrase tokens. A single
// line without delimiters is one phrase; otherwise the input is split on
// newlines, commas and semicolons. Tokens are trimmed and lower-cased,
// empty ones discarded.
func ParsePhraseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if !strings.ContainsAny(raw, ",\n;") {
		return []string{strings.ToLower(raw)}
	}
	var out []string
	for _, part := range phraseDelimiters.Split(raw, -1) {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

var clockPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// ParseClock parses an HH:MM 24-hour wall-clock time.
func ParseClock(s string) (hour, minute int, err error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM in 24-hour format", s)
	}
	fmt.Sscanf(m[1], "%d", &hour)
	fmt.Sscanf(m[2], "%d", &minute)
	return hour, minute, nil
}

// ValidClock reports whether s is a valid HH:MM 24-hour time.
func ValidClock(s string) bool {
	_, _, err := ParseClock(s)
	return err == nil
}
