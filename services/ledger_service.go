package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dayScoreAPI/internal/activity"
	"dayScoreAPI/internal/ledger"
	"dayScoreAPI/internal/progression"
	"dayScoreAPI/internal/storekv"
)

// Day stamps use the same textual date format the original web client
// stored, so a carried-over snapshot still rolls over correctly.
const dayStampLayout = "Mon Jan 02 2006"

// LedgerService owns the activity ledger: definitions, the current period's
// completion record, and the cumulative score. All operations are
// serialized behind one mutex, so every mutation is atomic; affected keys
// are written through to the store after each mutation.
type LedgerService struct {
	mu    sync.Mutex
	store storekv.Store
	mode  ledger.Mode

	policy   progression.Policy
	notifier *NotificationService

	defs          []*activity.Definition
	completed     map[string]bool
	totalPoints   int
	lastResetDate string

	now func() time.Time
}

func NewLedgerService(store storekv.Store, mode ledger.Mode, notifier *NotificationService) *LedgerService {
	return &LedgerService{
		store:     store,
		mode:      mode,
		policy:    mode.DefaultPolicy(),
		notifier:  notifier,
		completed: make(map[string]bool),
		now:       time.Now,
	}
}

// SetPolicy overrides the derivation scheme the mode would default to.
func (s *LedgerService) SetPolicy(p progression.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
}

// Load reads every ledger key from the store and then applies the day
// rollover once, before any other read of state. Malformed stored values
// fall back to empty defaults rather than failing startup.
func (s *LedgerService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ledger.ModeCatalog {
		s.defs = activity.BuiltinCatalog()
	} else {
		s.defs = nil
		if raw, ok, err := s.store.Get(ctx, storekv.KeyActivities); err != nil {
			return fmt.Errorf("failed to load activities: %w", err)
		} else if ok {
			var defs []*activity.Definition
			if err := json.Unmarshal([]byte(raw), &defs); err != nil {
				log.Printf("Ledger: corrupt activities value, starting with empty list: %v", err)
			} else {
				s.defs = defs
			}
		}
	}

	s.completed = make(map[string]bool)
	if raw, ok, err := s.store.Get(ctx, storekv.KeyCompleted); err != nil {
		return fmt.Errorf("failed to load completion record: %w", err)
	} else if ok {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			log.Printf("Ledger: corrupt completion record, starting empty: %v", err)
		} else {
			for _, id := range ids {
				s.completed[id] = true
			}
		}
	}

	s.totalPoints = 0
	if raw, ok, err := s.store.Get(ctx, storekv.KeyTotalPoints); err != nil {
		return fmt.Errorf("failed to load total points: %w", err)
	} else if ok {
		points, err := strconv.Atoi(raw)
		if err != nil {
			log.Printf("Ledger: corrupt total points %q, resetting to 0", raw)
		} else {
			s.totalPoints = points
		}
	}

	s.lastResetDate = s.now().Format(dayStampLayout)
	if raw, ok, err := s.store.Get(ctx, storekv.KeyLastResetDate); err != nil {
		return fmt.Errorf("failed to load last reset date: %w", err)
	} else if ok && raw != "" {
		s.lastResetDate = raw
	} else {
		// A store with period state but no stamp would look current after a
		// restart and dodge the rollover, so the stamp is written as soon
		// as it is defaulted.
		s.persistLocked(ctx, storekv.KeyLastResetDate)
	}

	s.applyRolloverLocked(ctx, s.now().Format(dayStampLayout))
	return nil
}

// CheckAndApplyDayRollover resets the completion record and score when the
// day has advanced past the stored stamp. Idempotent: a second call with
// the same stamp is a no-op. Returns whether a reset was applied.
func (s *LedgerService) CheckAndApplyDayRollover(ctx context.Context, dayStamp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyRolloverLocked(ctx, dayStamp)
}

func (s *LedgerService) applyRolloverLocked(ctx context.Context, dayStamp string) bool {
	if s.mode != ledger.ModeCatalog || s.lastResetDate == dayStamp {
		return false
	}

	log.Printf("Ledger: new day %s (last reset %s), clearing period state", dayStamp, s.lastResetDate)
	s.completed = make(map[string]bool)
	s.totalPoints = 0
	s.lastResetDate = dayStamp

	s.persistLocked(ctx, storekv.KeyCompleted, storekv.KeyTotalPoints, storekv.KeyLastResetDate)
	return true
}

// rollover on the current clock, applied before every operation so a
// long-running process crosses midnight correctly.
func (s *LedgerService) autoRolloverLocked(ctx context.Context) {
	s.applyRolloverLocked(ctx, s.now().Format(dayStampLayout))
}

// AddActivity appends a user-defined activity. Only valid in custom mode;
// the built-in catalog is immutable.
func (s *LedgerService) AddActivity(ctx context.Context, req *activity.AddActivityRequest) (*activity.Definition, error) {
	if s.mode != ledger.ModeCustom {
		return nil, activity.ErrCatalogLocked
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, activity.ErrNameRequired
	}
	if req.Kind != activity.KindOccurrence && req.Kind != activity.KindHourly {
		return nil, activity.ErrInvalidKind
	}

	def := &activity.Definition{
		ID:       uuid.New().String(),
		Name:     strings.TrimSpace(req.Name),
		Points:   req.Points,
		Category: req.Category,
		Kind:     req.Kind,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRolloverLocked(ctx)

	s.defs = append(s.defs, def)
	s.persistLocked(ctx, storekv.KeyActivities)

	return def, nil
}

// DeleteActivity removes a user-defined activity. The caller is
// responsible for cancelling any running timer first; accrued-but-unsettled
// points are forfeited, never auto-settled.
func (s *LedgerService) DeleteActivity(ctx context.Context, id string) error {
	if s.mode != ledger.ModeCustom {
		return activity.ErrCatalogLocked
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRolloverLocked(ctx)

	for i, def := range s.defs {
		if def.ID == id {
			s.defs = append(s.defs[:i], s.defs[i+1:]...)
			s.persistLocked(ctx, storekv.KeyActivities)
			return nil
		}
	}

	return activity.ErrNotFound
}

// GetDefinition looks up an activity by id.
func (s *LedgerService) GetDefinition(id string) (*activity.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, def := range s.defs {
		if def.ID == id {
			return def, nil
		}
	}
	return nil, activity.ErrNotFound
}

// CompleteOccurrence marks a catalog activity done for the current period
// and credits its points. Completing an already-completed activity is a
// signaled no-op, so points can never double-count.
func (s *LedgerService) CompleteOccurrence(ctx context.Context, id string) (*ledger.MutationResult, error) {
	if s.mode != ledger.ModeCatalog {
		return nil, activity.ErrCatalogOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRolloverLocked(ctx)

	def, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}
	if def.Kind != activity.KindOccurrence {
		return nil, activity.ErrNotOccurrence
	}
	if s.completed[id] {
		return nil, activity.ErrAlreadyCompleted
	}

	s.completed[id] = true
	change := s.addPointsLocked(ctx, def.Points)
	s.persistLocked(ctx, storekv.KeyCompleted, storekv.KeyTotalPoints)

	return s.mutationResultLocked(change), nil
}

// UncompleteOccurrence is the exact inverse of CompleteOccurrence: it
// removes the completion mark and subtracts the same integer points, so a
// complete/uncomplete pair always restores the prior score.
func (s *LedgerService) UncompleteOccurrence(ctx context.Context, id string) (*ledger.MutationResult, error) {
	if s.mode != ledger.ModeCatalog {
		return nil, activity.ErrCatalogOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRolloverLocked(ctx)

	def, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}
	if !s.completed[id] {
		return nil, activity.ErrNotCompleted
	}

	delete(s.completed, id)
	change := s.addPointsLocked(ctx, -def.Points)
	s.persistLocked(ctx, storekv.KeyCompleted, storekv.KeyTotalPoints)

	return s.mutationResultLocked(change), nil
}

// LogActivity credits an occurrence definition's points directly, without a
// completion record. This is the custom-mode logging path and is
// repeatable.
func (s *LedgerService) LogActivity(ctx context.Context, id string) (*ledger.MutationResult, error) {
	if s.mode != ledger.ModeCustom {
		return nil, activity.ErrCustomOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}
	if def.Kind != activity.KindOccurrence {
		return nil, activity.ErrNotOccurrence
	}

	change := s.addPointsLocked(ctx, def.Points)
	s.persistLocked(ctx, storekv.KeyTotalPoints)

	return s.mutationResultLocked(change), nil
}

// LogPoints unconditionally adjusts the score by delta. Used for free-form
// logging and for timer settlement; negative totals are allowed, there is
// no floor.
func (s *LedgerService) LogPoints(ctx context.Context, delta int) (*ledger.MutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRolloverLocked(ctx)

	change := s.addPointsLocked(ctx, delta)
	s.persistLocked(ctx, storekv.KeyTotalPoints)

	return s.mutationResultLocked(change), nil
}

// ResetPeriod clears the score and completion record but keeps activity
// definitions. The confirmation prompt is the client's concern; by the time
// this runs the decision is final.
func (s *LedgerService) ResetPeriod(ctx context.Context) *ledger.MutationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.completed = make(map[string]bool)
	s.totalPoints = 0
	s.persistLocked(ctx, storekv.KeyCompleted, storekv.KeyTotalPoints)

	return s.mutationResultLocked(nil)
}

// View assembles the full derived display state. runningEarned carries the
// current accrual per running timer, keyed by activity id.
func (s *LedgerService) View(ctx context.Context, runningEarned map[string]int) *ledger.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRolloverLocked(ctx)

	state := &ledger.ViewState{
		Mode:        s.mode,
		Policy:      s.policy,
		TotalPoints: s.totalPoints,
		Level:       progression.Level(s.totalPoints),
		Activities:  make([]ledger.ActivityView, 0, len(s.defs)),
	}

	switch s.policy {
	case progression.PolicyLeveling:
		state.Progress = progression.LevelProgress(s.totalPoints)
	default:
		status := progression.TieredStatus(s.totalPoints)
		state.Status = &status
		state.Progress = progression.TieredProgress(s.totalPoints)
		state.LastResetDate = s.lastResetDate
	}

	for _, def := range s.defs {
		earned, running := runningEarned[def.ID]
		state.Activities = append(state.Activities, ledger.ActivityView{
			Definition: *def,
			Completed:  s.completed[def.ID],
			Running:    running,
			Earned:     earned,
		})
	}

	return state
}

// TotalPoints reports the current score.
func (s *LedgerService) TotalPoints() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPoints
}

// DarkMode reads the persisted theme flag.
func (s *LedgerService) DarkMode(ctx context.Context) (bool, error) {
	raw, ok, err := s.store.Get(ctx, storekv.KeyDarkMode)
	if err != nil {
		return false, fmt.Errorf("failed to read dark mode flag: %w", err)
	}
	return ok && raw == "true", nil
}

// SetDarkMode stores the theme flag as the "true"/"false" string the
// original client wrote.
func (s *LedgerService) SetDarkMode(ctx context.Context, enabled bool) error {
	if err := s.store.Set(ctx, storekv.KeyDarkMode, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("failed to store dark mode flag: %w", err)
	}
	return nil
}

// addPointsLocked applies a score delta and detects a derived-state change
// by comparing before and after. Tiered policy fires on any label change
// once the total is at or past the first threshold; leveling fires only
// when the level increases.
func (s *LedgerService) addPointsLocked(ctx context.Context, delta int) *ledger.StatusChangeEvent {
	before := s.totalPoints
	s.totalPoints += delta

	var change *ledger.StatusChangeEvent
	switch s.policy {
	case progression.PolicyLeveling:
		prev, next := progression.Level(before), progression.Level(s.totalPoints)
		if next > prev {
			change = &ledger.StatusChangeEvent{
				Policy:      s.policy,
				Label:       fmt.Sprintf("Level %d", next),
				Message:     fmt.Sprintf("You reached level %d!", next),
				Level:       next,
				TotalPoints: s.totalPoints,
			}
		}
	default:
		prev, next := progression.TieredStatus(before), progression.TieredStatus(s.totalPoints)
		if prev.Label != next.Label && s.totalPoints >= 100 {
			change = &ledger.StatusChangeEvent{
				Policy:      s.policy,
				Label:       next.Label,
				Message:     next.Message,
				TotalPoints: s.totalPoints,
			}
		}
	}

	if change != nil && s.notifier != nil {
		s.notifier.RecordStatusChange(ctx, change)
	}

	return change
}

func (s *LedgerService) mutationResultLocked(change *ledger.StatusChangeEvent) *ledger.MutationResult {
	return &ledger.MutationResult{
		TotalPoints:   s.totalPoints,
		StatusChanged: change != nil,
		Change:        change,
	}
}

func (s *LedgerService) findLocked(id string) (*activity.Definition, error) {
	for _, def := range s.defs {
		if def.ID == id {
			return def, nil
		}
	}
	return nil, activity.ErrNotFound
}

// persistLocked writes the named keys through to the store. Storage
// failures are logged, not propagated: the in-memory ledger is
// authoritative for the running process and the next successful write
// repairs the store.
func (s *LedgerService) persistLocked(ctx context.Context, keys ...string) {
	for _, key := range keys {
		var value string
		switch key {
		case storekv.KeyActivities:
			encoded, err := json.Marshal(s.defs)
			if err != nil {
				log.Printf("Ledger: failed to encode activities: %v", err)
				continue
			}
			value = string(encoded)
		case storekv.KeyCompleted:
			ids := make([]string, 0, len(s.completed))
			for _, def := range s.defs {
				if s.completed[def.ID] {
					ids = append(ids, def.ID)
				}
			}
			encoded, err := json.Marshal(ids)
			if err != nil {
				log.Printf("Ledger: failed to encode completion record: %v", err)
				continue
			}
			value = string(encoded)
		case storekv.KeyTotalPoints:
			value = strconv.Itoa(s.totalPoints)
		case storekv.KeyLastResetDate:
			value = s.lastResetDate
		default:
			continue
		}

		if err := s.store.Set(ctx, key, value); err != nil {
			log.Printf("Ledger: failed to persist %s: %v", key, err)
		}
	}
}
