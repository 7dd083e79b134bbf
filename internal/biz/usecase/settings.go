package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anthropics/groupwarden/internal/biz/domain"
	"github.com/anthropics/groupwarden/internal/biz/repo"
)

// Validation errors returned to the command layer.
var (
	ErrBadClock    = errors.New("time must be HH:MM in 24-hour format")
	ErrBadTimezone = errors.New("unknown timezone: want an IANA zone name like Europe/Berlin")
	ErrBadUserID   = errors.New("user ID must be a positive integer")
)

// SettingsUsecase owns the shared settings document and the state derived
// from it: the compiled phrase matcher and (through the rearm hook) the
// schedule timer pair. Every mutation runs copy-on-write: the copy is
// normalized and persisted first, then the derived artifacts are replaced,
// and only then does the new snapshot become visible to readers. A persist
// failure leaves both the snapshot and the derived state untouched.
type SettingsUsecase struct {
	repo repo.SettingsRepo

	mu       sync.Mutex // serializes mutations
	snapshot atomic.Pointer[domain.Settings]
	matcher  atomic.Pointer[domain.PhraseMatcher]

	rearm func(domain.Schedule)
}

// NewSettingsUsecase loads the persisted document, merges the seed
// operators into it and builds the initial matcher.
func NewSettingsUsecase(ctx context.Context, settingsRepo repo.SettingsRepo, seedOperators []int64) (*SettingsUsecase, error) {
	settings, err := settingsRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	settings.Operators = append(settings.Operators, seedOperators...)
	settings.Normalize()

	uc := &SettingsUsecase{repo: settingsRepo}
	uc.matcher.Store(domain.CompilePhrases(settings.BannedPhrases))
	uc.snapshot.Store(settings)
	return uc, nil
}

// OnScheduleChange installs the hook invoked, before a schedule-affecting
// mutation returns, with the fresh schedule values.
func (uc *SettingsUsecase) OnScheduleChange(fn func(domain.Schedule)) {
	uc.rearm = fn
}

// Settings returns the current immutable snapshot. Callers must not
// mutate it.
func (uc *SettingsUsecase) Settings() *domain.Settings {
	return uc.snapshot.Load()
}

// Matcher returns the phrase matcher built from the current snapshot.
func (uc *SettingsUsecase) Matcher() *domain.PhraseMatcher {
	return uc.matcher.Load()
}

// mutate applies fn to a copy of the current document, persists the copy
// and swaps in the rebuilt derived state. fn may return an error to abort
// the mutation with the document unchanged.
func (uc *SettingsUsecase) mutate(ctx context.Context, fn func(*domain.Settings) error) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	current := uc.snapshot.Load()
	next := current.Clone()
	if err := fn(next); err != nil {
		return err
	}
	next.Normalize()

	if err := uc.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}

	// Derived state is replaced before the snapshot so a reader never
	// pairs the new phrase list with the old matcher.
	if !slices.Equal(current.BannedPhrases, next.BannedPhrases) {
		uc.matcher.Store(domain.CompilePhrases(next.BannedPhrases))
	}
	uc.snapshot.Store(next)

	if current.Schedule != next.Schedule && uc.rearm != nil {
		uc.rearm(next.Schedule)
	}
	return nil
}

// BannedPhrases returns the current phrase list.
func (uc *SettingsUsecase) BannedPhrases() []string {
	return uc.Settings().BannedPhrases
}

// AddPhrases adds every phrase parsed from raw and returns the ones that
// were actually new. Adding only already-present phrases is not an error.
func (uc *SettingsUsecase) AddPhrases(ctx context.Context, raw string) ([]string, error) {
	phrases := domain.ParsePhraseList(raw)
	if len(phrases) == 0 {
		return nil, errors.New("no phrases given")
	}

	var added []string
	err := uc.mutate(ctx, func(s *domain.Settings) error {
		for _, p := range phrases {
			if !slices.Contains(s.BannedPhrases, p) && !slices.Contains(added, p) {
				added = append(added, p)
			}
		}
		s.BannedPhrases = append(s.BannedPhrases, phrases...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(added)
	return added, nil
}

// RemovePhrases removes every phrase parsed from raw and returns the ones
// that were actually present. Removing absent phrases is not an error.
func (uc *SettingsUsecase) RemovePhrases(ctx context.Context, raw string) ([]string, error) {
	phrases := domain.ParsePhraseList(raw)
	if len(phrases) == 0 {
		return nil, errors.New("no phrases given")
	}

	var removed []string
	err := uc.mutate(ctx, func(s *domain.Settings) error {
		kept := s.BannedPhrases[:0]
		for _, p := range s.BannedPhrases {
			if slices.Contains(phrases, p) {
				removed = append(removed, p)
			} else {
				kept = append(kept, p)
			}
		}
		s.BannedPhrases = kept
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(removed)
	return removed, nil
}

// NewcomerMuteMinutes returns the configured newcomer mute duration.
func (uc *SettingsUsecase) NewcomerMuteMinutes() int {
	return uc.Settings().NewcomerMuteMinutes
}

// SetNewcomerMuteMinutes sets the newcomer mute duration, clamped to
// [0, 1440]. Zero disables newcomer restriction. Returns the applied
// value.
func (uc *SettingsUsecase) SetNewcomerMuteMinutes(ctx context.Context, minutes int) (int, error) {
	err := uc.mutate(ctx, func(s *domain.Settings) error {
		s.NewcomerMuteMinutes = minutes
		return nil
	})
	if err != nil {
		return uc.Settings().NewcomerMuteMinutes, err
	}
	return uc.Settings().NewcomerMuteMinutes, nil
}

// SetScheduleEnabled switches the daily open/close schedule on or off.
func (uc *SettingsUsecase) SetScheduleEnabled(ctx context.Context, enabled bool) error {
	return uc.mutate(ctx, func(s *domain.Settings) error {
		s.Schedule.Enabled = enabled
		return nil
	})
}

// SetOpenTime sets the daily open time, validated as HH:MM.
func (uc *SettingsUsecase) SetOpenTime(ctx context.Context, clock string) error {
	if !domain.ValidClock(clock) {
		return ErrBadClock
	}
	return uc.mutate(ctx, func(s *domain.Settings) error {
		s.Schedule.OpenTime = clock
		return nil
	})
}

// SetCloseTime sets the daily close time, validated as HH:MM.
func (uc *SettingsUsecase) SetCloseTime(ctx context.Context, clock string) error {
	if !domain.ValidClock(clock) {
		return ErrBadClock
	}
	return uc.mutate(ctx, func(s *domain.Settings) error {
		s.Schedule.CloseTime = clock
		return nil
	})
}

// SetTimezone sets the schedule timezone, validated as a resolvable IANA
// zone name.
func (uc *SettingsUsecase) SetTimezone(ctx context.Context, name string) error {
	if name == "" {
		return ErrBadTimezone
	}
	if _, err := time.LoadLocation(name); err != nil {
		return ErrBadTimezone
	}
	return uc.mutate(ctx, func(s *domain.Settings) error {
		s.Schedule.Timezone = name
		return nil
	})
}

// Operators returns the configured operator IDs.
func (uc *SettingsUsecase) Operators() []int64 {
	return uc.Settings().Operators
}

// AddOperator adds an operator ID. Returns false when it was already there.
func (uc *SettingsUsecase) AddOperator(ctx context.Context, userID int64) (bool, error) {
	if userID <= 0 {
		return false, ErrBadUserID
	}
	changed := false
	err := uc.mutate(ctx, func(s *domain.Settings) error {
		if !s.HasOperator(userID) {
			s.Operators = append(s.Operators, userID)
			changed = true
		}
		return nil
	})
	return changed, err
}

// RemoveOperator removes an operator ID. Returns false when it was absent.
func (uc *SettingsUsecase) RemoveOperator(ctx context.Context, userID int64) (bool, error) {
	if userID <= 0 {
		return false, ErrBadUserID
	}
	changed := false
	err := uc.mutate(ctx, func(s *domain.Settings) error {
		idx := slices.Index(s.Operators, userID)
		if idx < 0 {
			return nil
		}
		s.Operators = slices.Delete(s.Operators, idx, idx+1)
		changed = true
		return nil
	})
	return changed, err
}

// ObserveChat records a chat as managed so the scheduler reaches it. The
// set grows monotonically; observing a known chat is a no-op and does not
// touch the store.
func (uc *SettingsUsecase) ObserveChat(ctx context.Context, chatID int64) error {
	if uc.Settings().HasManagedChat(chatID) {
		return nil
	}
	return uc.mutate(ctx, func(s *domain.Settings) error {
		if !s.HasManagedChat(chatID) {
			s.ManagedChats = append(s.ManagedChats, chatID)
		}
		return nil
	})
}
