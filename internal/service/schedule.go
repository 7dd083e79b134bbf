package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anthropics/groupwarden/internal/biz/domain"
	"github.com/anthropics/groupwarden/internal/biz/repo"
	"github.com/anthropics/groupwarden/internal/biz/usecase"
)

// clockTime is a wall-clock hour/minute pair.
type clockTime struct {
	hour   int
	minute int
}

// ScheduleController opens and closes every managed chat at two daily
// instants. It is a per-process state machine: Disabled (no timers) or
// Scheduled (exactly one open/close timer pair). Any schedule mutation
// tears the pair down and, if still enabled, arms a fresh one as a unit.
type ScheduleController struct {
	chatRepo repo.ChatRepo
	settings *usecase.SettingsUsecase

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Last known valid values; invalid mutations fall back to these
	// instead of crashing the rearm.
	openAt  clockTime
	closeAt clockTime
	loc     *time.Location
}

// NewScheduleController creates a controller in the Disabled state.
func NewScheduleController(chatRepo repo.ChatRepo, settings *usecase.SettingsUsecase) *ScheduleController {
	return &ScheduleController{
		chatRepo: chatRepo,
		settings: settings,
		openAt:   clockTime{hour: 10},
		closeAt:  clockTime{hour: 19},
		loc:      time.UTC,
	}
}

// Start arms timers from the current settings snapshot.
func (c *ScheduleController) Start() {
	c.Rearm(c.settings.Settings().Schedule)
}

// Stop cancels any armed timers and waits for them to exit.
func (c *ScheduleController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardown()
	fmt.Println("[Schedule] Stopped")
}

// Rearm replaces the timer pair from fresh schedule values. The previous
// pair is always cancelled first; a new pair is armed only when the
// schedule is enabled. Malformed times or an unresolvable timezone fall
// back to the last known valid values and are logged, never fatal.
func (c *ScheduleController) Rearm(sch domain.Schedule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardown()

	if !sch.Enabled {
		fmt.Println("[Schedule] Disabled, no timers armed")
		return
	}

	if h, m, err := domain.ParseClock(sch.OpenTime); err == nil {
		c.openAt = clockTime{hour: h, minute: m}
	} else {
		fmt.Printf("[Schedule] Bad open time %q, keeping %02d:%02d\n", sch.OpenTime, c.openAt.hour, c.openAt.minute)
	}
	if h, m, err := domain.ParseClock(sch.CloseTime); err == nil {
		c.closeAt = clockTime{hour: h, minute: m}
	} else {
		fmt.Printf("[Schedule] Bad close time %q, keeping %02d:%02d\n", sch.CloseTime, c.closeAt.hour, c.closeAt.minute)
	}
	if loc, err := time.LoadLocation(sch.Timezone); err == nil {
		c.loc = loc
	} else {
		fmt.Printf("[Schedule] Bad timezone %q, keeping %s\n", sch.Timezone, c.loc)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.wg.Add(2)
	go c.runDaily(ctx, c.openAt, c.loc, domain.ProfileOpen)
	go c.runDaily(ctx, c.closeAt, c.loc, domain.ProfileRestricted)

	fmt.Printf("[Schedule] Armed: open %02d:%02d, close %02d:%02d (%s)\n",
		c.openAt.hour, c.openAt.minute, c.closeAt.hour, c.closeAt.minute, c.loc)
}

// teardown cancels the armed pair. Caller holds c.mu.
func (c *ScheduleController) teardown() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.cancel = nil
	c.wg.Wait()
}

// Armed reports whether a timer pair is currently armed.
func (c *ScheduleController) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// runDaily fires once a day at the given wall-clock time until cancelled.
func (c *ScheduleController) runDaily(ctx context.Context, at clockTime, loc *time.Location, profile domain.PermissionProfile) {
	defer c.wg.Done()

	for {
		next := nextOccurrence(time.Now().In(loc), at.hour, at.minute)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			c.applyToManaged(ctx, profile)
		}
	}
}

// nextOccurrence returns the next instant the wall clock reads
// hour:minute, strictly after now.
func nextOccurrence(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// applyToManaged broadcasts a permission profile to every managed chat.
// Each call is independent and best-effort; one chat's failure never
// blocks the others, and no resulting state is verified.
func (c *ScheduleController) applyToManaged(ctx context.Context, profile domain.PermissionProfile) {
	chats := c.settings.Settings().ManagedChats
	fmt.Printf("[Schedule] Applying %s profile to %d chats\n", profile, len(chats))

	for _, chatID := range chats {
		if err := c.chatRepo.SetChatPermissions(ctx, chatID, profile); err != nil {
			fmt.Printf("[Schedule] Failed to set %s permissions for chat %d: %v\n", profile, chatID, err)
		}
	}
}
