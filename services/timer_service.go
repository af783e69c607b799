package services

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"dayScoreAPI/internal/activity"
	"dayScoreAPI/internal/ledger"
)

// TimerService runs the elapsed-time accrual for hourly activities. At most
// one timer may run per activity id. Earned points are always recomputed
// from (now - startedAt) rather than accumulated per tick, so missed or
// delayed ticks cause no drift. Timers are transient: nothing here is
// persisted, and stopping is the only path that credits the score.
type TimerService struct {
	mu      sync.Mutex
	ledger  *LedgerService
	running map[string]*activity.RunningTimer

	now func() time.Time
}

func NewTimerService(ledger *LedgerService) *TimerService {
	return &TimerService{
		ledger:  ledger,
		running: make(map[string]*activity.RunningTimer),
		now:     time.Now,
	}
}

// Start begins accrual for an hourly activity. Starting a second timer for
// the same id is rejected; the original start timestamp is kept.
func (s *TimerService) Start(ctx context.Context, id string) (*activity.RunningTimer, error) {
	def, err := s.ledger.GetDefinition(id)
	if err != nil {
		return nil, err
	}
	if def.Kind != activity.KindHourly {
		return nil, activity.ErrNotHourly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.running[id]; exists {
		return nil, activity.ErrTimerRunning
	}

	timer := &activity.RunningTimer{
		ActivityID: id,
		StartedAt:  s.now(),
	}
	s.running[id] = timer

	log.Printf("Timer: started accrual for %s (%d pts/hr)", def.Name, def.Points)
	return timer, nil
}

// Tick recomputes the current accrual for display refresh. It never
// mutates the score and may be called at any cadence.
func (s *TimerService) Tick(id string) (*activity.TimerView, error) {
	def, err := s.ledger.GetDefinition(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	timer, exists := s.running[id]
	if !exists {
		return nil, activity.ErrTimerNotRunning
	}

	now := s.now()
	earned := earnedPoints(now.Sub(timer.StartedAt), def.Points)
	timer.LastComputedEarned = earned

	return &activity.TimerView{
		ActivityID:     id,
		StartedAt:      timer.StartedAt,
		ElapsedSeconds: now.Sub(timer.StartedAt).Seconds(),
		Earned:         earned,
	}, nil
}

// Stop settles the timer: the final accrual is computed from the wall
// clock, credited through the ledger, and the timer is discarded.
func (s *TimerService) Stop(ctx context.Context, id string) (*ledger.MutationResult, error) {
	def, err := s.ledger.GetDefinition(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	timer, exists := s.running[id]
	if !exists {
		s.mu.Unlock()
		return nil, activity.ErrTimerNotRunning
	}
	delete(s.running, id)
	earned := earnedPoints(s.now().Sub(timer.StartedAt), def.Points)
	s.mu.Unlock()

	log.Printf("Timer: settling %s for %d points", def.Name, earned)
	return s.ledger.LogPoints(ctx, earned)
}

// Cancel discards a running timer without crediting anything. Used when an
// activity is deleted mid-run; accrued-but-unsettled points are forfeited.
func (s *TimerService) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.running[id]; !exists {
		return false
	}
	delete(s.running, id)

	log.Printf("Timer: cancelled accrual for %s, forfeiting unsettled points", id)
	return true
}

// Snapshot reports the current accrual per running timer, keyed by
// activity id, for the ledger view.
func (s *TimerService) Snapshot() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	earned := make(map[string]int, len(s.running))
	now := s.now()
	for id, timer := range s.running {
		def, err := s.ledger.GetDefinition(id)
		if err != nil {
			continue
		}
		earned[id] = earnedPoints(now.Sub(timer.StartedAt), def.Points)
	}
	return earned
}

// earnedPoints pro-rates an hourly rate over elapsed wall-clock time,
// truncated with floor. Floor is deliberate for negative rates too: a
// negative accrual rounds toward more negative, matching the settled
// value the display showed.
func earnedPoints(elapsed time.Duration, ratePerHour int) int {
	return int(math.Floor(elapsed.Seconds() / 3600 * float64(ratePerHour)))
}
