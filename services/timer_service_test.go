package services

import (
	"context"
	"testing"
	"time"

	"dayScoreAPI/internal/activity"
	"dayScoreAPI/internal/ledger"
)

// fakeClock lets tests advance wall-clock time deterministically.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestTimer(t *testing.T) (*TimerService, *LedgerService, *fakeClock, *activity.Definition) {
	t.Helper()

	svc, _ := newTestLedger(t, ledger.ModeCustom)
	clock := &fakeClock{current: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc.now = clock.now

	timers := NewTimerService(svc)
	timers.now = clock.now

	def, err := svc.AddActivity(context.Background(), &activity.AddActivityRequest{
		Name:   "Deep work",
		Points: 100,
		Kind:   activity.KindHourly,
	})
	if err != nil {
		t.Fatalf("Failed to add hourly activity: %v", err)
	}

	return timers, svc, clock, def
}

func TestTimerSettlesProRatedPoints(t *testing.T) {
	timers, svc, clock, def := newTestTimer(t)
	ctx := context.Background()

	if _, err := timers.Start(ctx, def.ID); err != nil {
		t.Fatalf("Failed to start timer: %v", err)
	}

	// 1.5 hours at 100 pts/hr settles for exactly floor(150) = 150.
	clock.advance(5400 * time.Second)

	result, err := timers.Stop(ctx, def.ID)
	if err != nil {
		t.Fatalf("Failed to stop timer: %v", err)
	}
	if result.TotalPoints != 150 {
		t.Errorf("Expected 150 points settled, got %d", result.TotalPoints)
	}
	if svc.TotalPoints() != 150 {
		t.Errorf("Ledger score is %d, want 150", svc.TotalPoints())
	}
}

func TestStartTwiceKeepsOriginalStart(t *testing.T) {
	timers, _, clock, def := newTestTimer(t)
	ctx := context.Background()

	first, err := timers.Start(ctx, def.ID)
	if err != nil {
		t.Fatalf("Failed to start timer: %v", err)
	}

	clock.advance(10 * time.Minute)

	if _, err := timers.Start(ctx, def.ID); err != activity.ErrTimerRunning {
		t.Fatalf("Expected ErrTimerRunning on second start, got %v", err)
	}

	view, err := timers.Tick(def.ID)
	if err != nil {
		t.Fatalf("Failed to tick: %v", err)
	}
	if !view.StartedAt.Equal(first.StartedAt) {
		t.Errorf("Start timestamp moved: %v -> %v", first.StartedAt, view.StartedAt)
	}
}

func TestTickDoesNotMutateScore(t *testing.T) {
	timers, svc, clock, def := newTestTimer(t)
	ctx := context.Background()

	if _, err := timers.Start(ctx, def.ID); err != nil {
		t.Fatalf("Failed to start timer: %v", err)
	}

	clock.advance(45 * time.Minute)

	view, err := timers.Tick(def.ID)
	if err != nil {
		t.Fatalf("Failed to tick: %v", err)
	}
	if view.Earned != 75 {
		t.Errorf("Expected 75 earned at 45 min, got %d", view.Earned)
	}
	if svc.TotalPoints() != 0 {
		t.Errorf("Tick mutated the score: %d", svc.TotalPoints())
	}

	// Correctness does not depend on tick cadence: a second tick after more
	// elapsed time recomputes from the start timestamp, not the last tick.
	clock.advance(15 * time.Minute)
	view, err = timers.Tick(def.ID)
	if err != nil {
		t.Fatalf("Failed to tick: %v", err)
	}
	if view.Earned != 100 {
		t.Errorf("Expected 100 earned at 1h, got %d", view.Earned)
	}
}

func TestNegativeRateFloorsTowardNegative(t *testing.T) {
	timers, svc, clock, _ := newTestTimer(t)
	ctx := context.Background()

	def, err := svc.AddActivity(ctx, &activity.AddActivityRequest{
		Name:   "Doomscrolling",
		Points: -10,
		Kind:   activity.KindHourly,
	})
	if err != nil {
		t.Fatalf("Failed to add activity: %v", err)
	}

	if _, err := timers.Start(ctx, def.ID); err != nil {
		t.Fatalf("Failed to start timer: %v", err)
	}

	// 1.25h at -10/hr is -12.5; floor biases to -13, not -12.
	clock.advance(75 * time.Minute)

	result, err := timers.Stop(ctx, def.ID)
	if err != nil {
		t.Fatalf("Failed to stop timer: %v", err)
	}
	if result.TotalPoints != -13 {
		t.Errorf("Expected -13 points, got %d", result.TotalPoints)
	}
}

func TestStopWithoutStartIsRejected(t *testing.T) {
	timers, _, _, def := newTestTimer(t)

	if _, err := timers.Stop(context.Background(), def.ID); err != activity.ErrTimerNotRunning {
		t.Fatalf("Expected ErrTimerNotRunning, got %v", err)
	}
}

func TestStartRequiresHourlyKind(t *testing.T) {
	timers, svc, _, _ := newTestTimer(t)
	ctx := context.Background()

	def, err := svc.AddActivity(ctx, &activity.AddActivityRequest{
		Name:   "Meditate",
		Points: 12,
		Kind:   activity.KindOccurrence,
	})
	if err != nil {
		t.Fatalf("Failed to add activity: %v", err)
	}

	if _, err := timers.Start(ctx, def.ID); err != activity.ErrNotHourly {
		t.Fatalf("Expected ErrNotHourly, got %v", err)
	}
}

func TestCancelForfeitsAccrual(t *testing.T) {
	timers, svc, clock, def := newTestTimer(t)
	ctx := context.Background()

	if _, err := timers.Start(ctx, def.ID); err != nil {
		t.Fatalf("Failed to start timer: %v", err)
	}

	clock.advance(2 * time.Hour)

	// Activity deleted mid-run: the timer is cancelled and the two hours of
	// accrual contribute nothing.
	if err := svc.DeleteActivity(ctx, def.ID); err != nil {
		t.Fatalf("Failed to delete activity: %v", err)
	}
	if !timers.Cancel(def.ID) {
		t.Fatal("Expected a running timer to cancel")
	}

	if svc.TotalPoints() != 0 {
		t.Errorf("Cancelled timer credited points: %d", svc.TotalPoints())
	}
	if _, err := timers.Tick(def.ID); err == nil {
		t.Error("Expected tick to fail after cancellation")
	}
}

func TestSnapshotReportsRunningAccrual(t *testing.T) {
	timers, _, clock, def := newTestTimer(t)
	ctx := context.Background()

	if _, err := timers.Start(ctx, def.ID); err != nil {
		t.Fatalf("Failed to start timer: %v", err)
	}

	clock.advance(30 * time.Minute)

	snapshot := timers.Snapshot()
	if earned, ok := snapshot[def.ID]; !ok || earned != 50 {
		t.Errorf("Expected snapshot earned 50 for %s, got %v", def.ID, snapshot)
	}
}
