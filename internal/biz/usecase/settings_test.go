package usecase

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/anthropics/groupwarden/internal/biz/domain"
)

func TestAddPhrases(t *testing.T) {
	repo := &mockSettingsRepo{}
	uc := newTestSettings(t, repo)

	added, err := uc.AddPhrases(context.Background(), "Spam, Scam")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !slices.Equal(added, []string{"scam", "spam"}) {
		t.Errorf("Unexpected added list: %v", added)
	}
	if !slices.Equal(uc.BannedPhrases(), []string{"scam", "spam"}) {
		t.Errorf("Unexpected phrase list: %v", uc.BannedPhrases())
	}
	if repo.saves != 1 {
		t.Errorf("Expected one save, got %d", repo.saves)
	}
}

func TestAddPhrases_Idempotent(t *testing.T) {
	uc := newTestSettings(t, &mockSettingsRepo{})

	if _, err := uc.AddPhrases(context.Background(), "spam"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	added, err := uc.AddPhrases(context.Background(), "spam")
	if err != nil {
		t.Fatalf("Adding a present phrase must not error: %v", err)
	}
	if len(added) != 0 {
		t.Errorf("Expected nothing new, got %v", added)
	}
	if !slices.Equal(uc.BannedPhrases(), []string{"spam"}) {
		t.Errorf("Phrase list changed: %v", uc.BannedPhrases())
	}
}

func TestRemovePhrases_Absent(t *testing.T) {
	uc := newTestSettings(t, &mockSettingsRepo{})

	removed, err := uc.RemovePhrases(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Removing an absent phrase must not error: %v", err)
	}
	if len(removed) != 0 {
		t.Errorf("Expected nothing removed, got %v", removed)
	}
}

func TestAddPhrases_RebuildsMatcher(t *testing.T) {
	uc := newTestSettings(t, &mockSettingsRepo{})

	if uc.Matcher().Match("spam") {
		t.Fatal("Fresh matcher must be empty")
	}
	if _, err := uc.AddPhrases(context.Background(), "spam"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !uc.Matcher().Match("some spam here") {
		t.Error("Matcher must see the new phrase before AddPhrases returns")
	}

	if _, err := uc.RemovePhrases(context.Background(), "spam"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if uc.Matcher().Match("some spam here") {
		t.Error("Matcher must forget removed phrases")
	}
}

func TestMutation_PersistFailure(t *testing.T) {
	repo := &mockSettingsRepo{}
	uc := newTestSettings(t, repo)

	repo.saveErr = errors.New("disk full")
	if _, err := uc.AddPhrases(context.Background(), "spam"); err == nil {
		t.Fatal("Expected an error when persistence fails")
	}
	if len(uc.BannedPhrases()) != 0 {
		t.Error("A failed save must leave the document unchanged")
	}
	if uc.Matcher().Match("spam") {
		t.Error("A failed save must leave the matcher unchanged")
	}
}

func TestSetNewcomerMuteMinutes_Clamps(t *testing.T) {
	uc := newTestSettings(t, &mockSettingsRepo{})

	applied, err := uc.SetNewcomerMuteMinutes(context.Background(), 5000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if applied != domain.MaxMuteMinutes {
		t.Errorf("Expected clamp to %d, got %d", domain.MaxMuteMinutes, applied)
	}

	applied, err = uc.SetNewcomerMuteMinutes(context.Background(), 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if applied != 0 {
		t.Errorf("Zero must be accepted (disables restriction), got %d", applied)
	}
}

func TestSchedule_RoundTrip(t *testing.T) {
	uc := newTestSettings(t, &mockSettingsRepo{})
	ctx := context.Background()

	if err := uc.SetOpenTime(ctx, "09:15"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := uc.SetCloseTime(ctx, "21:45"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := uc.SetScheduleEnabled(ctx, true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	sch := uc.Settings().Schedule
	if !sch.Enabled || sch.OpenTime != "09:15" || sch.CloseTime != "21:45" {
		t.Errorf("Round trip mismatch: %+v", sch)
	}
}

func TestSchedule_RejectsBadInput(t *testing.T) {
	uc := newTestSettings(t, &mockSettingsRepo{})
	ctx := context.Background()

	if err := uc.SetOpenTime(ctx, "08:30"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if err := uc.SetOpenTime(ctx, "25:00"); !errors.Is(err, ErrBadClock) {
		t.Errorf("Expected ErrBadClock, got %v", err)
	}
	if got := uc.Settings().Schedule.OpenTime; got != "08:30" {
		t.Errorf("Rejected input must keep the prior value, got %q", got)
	}

	if err := uc.SetTimezone(ctx, "Mars/Olympus"); !errors.Is(err, ErrBadTimezone) {
		t.Errorf("Expected ErrBadTimezone, got %v", err)
	}
	if err := uc.SetTimezone(ctx, "Europe/Berlin"); err != nil {
		t.Errorf("Valid zone rejected: %v", err)
	}
}

func TestSchedule_RearmHook(t *testing.T) {
	uc := newTestSettings(t, &mockSettingsRepo{})
	ctx := context.Background()

	var rearmed []domain.Schedule
	uc.OnScheduleChange(func(sch domain.Schedule) {
		rearmed = append(rearmed, sch)
	})

	if err := uc.SetScheduleEnabled(ctx, true); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rearmed) != 1 || !rearmed[0].Enabled {
		t.Fatalf("Expected one rearm with enabled schedule, got %v", rearmed)
	}

	// A mutation that does not touch the schedule must not rearm.
	if _, err := uc.AddPhrases(ctx, "spam"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rearmed) != 1 {
		t.Errorf("Phrase mutation must not rearm, got %d rearms", len(rearmed))
	}
}

func TestOperators(t *testing.T) {
	uc := newTestSettings(t, &mockSettingsRepo{})
	ctx := context.Background()

	added, err := uc.AddOperator(ctx, 42)
	if err != nil || !added {
		t.Fatalf("AddOperator = %v, %v", added, err)
	}
	added, err = uc.AddOperator(ctx, 42)
	if err != nil || added {
		t.Fatalf("Duplicate add must report no change, got %v, %v", added, err)
	}

	if _, err := uc.AddOperator(ctx, -1); !errors.Is(err, ErrBadUserID) {
		t.Errorf("Expected ErrBadUserID, got %v", err)
	}

	removed, err := uc.RemoveOperator(ctx, 42)
	if err != nil || !removed {
		t.Fatalf("RemoveOperator = %v, %v", removed, err)
	}
	removed, err = uc.RemoveOperator(ctx, 42)
	if err != nil || removed {
		t.Fatalf("Absent remove must report no change, got %v, %v", removed, err)
	}
}

func TestSeedOperatorsMergedOnLoad(t *testing.T) {
	stored := domain.DefaultSettings()
	stored.Operators = []int64{1}

	uc, err := NewSettingsUsecase(context.Background(), &mockSettingsRepo{stored: stored}, []int64{2, 1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !slices.Equal(uc.Operators(), []int64{1, 2}) {
		t.Errorf("Unexpected operators: %v", uc.Operators())
	}
}

func TestObserveChat(t *testing.T) {
	repo := &mockSettingsRepo{}
	uc := newTestSettings(t, repo)
	ctx := context.Background()

	if err := uc.ObserveChat(ctx, -100500); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !uc.Settings().HasManagedChat(-100500) {
		t.Error("Chat must be recorded as managed")
	}
	if repo.saves != 1 {
		t.Errorf("Expected one save, got %d", repo.saves)
	}

	// Observing a known chat must not hit the store again.
	if err := uc.ObserveChat(ctx, -100500); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if repo.saves != 1 {
		t.Errorf("Duplicate observe must not save, got %d saves", repo.saves)
	}
}
