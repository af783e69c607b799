// Package ledger holds the view-state and mutation-result DTOs the API
// returns after reading or mutating the activity ledger.
package ledger

import (
	"fmt"

	"dayScoreAPI/internal/activity"
	"dayScoreAPI/internal/progression"
)

// Mode selects which variant of the ledger is active: the fixed built-in
// daily catalog (tiered status, daily reset) or the user-defined activity
// list (leveling, no daily reset).
type Mode string

const (
	ModeCatalog Mode = "catalog"
	ModeCustom  Mode = "custom"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCatalog, ModeCustom:
		return Mode(s), nil
	case "":
		return ModeCatalog, nil
	}
	return "", fmt.Errorf("unknown ledger mode %q", s)
}

// DefaultPolicy is the derivation scheme each mode shipped with.
func (m Mode) DefaultPolicy() progression.Policy {
	if m == ModeCustom {
		return progression.PolicyLeveling
	}
	return progression.PolicyTiered
}

// ActivityView is one activity with its current completion/accrual state.
type ActivityView struct {
	activity.Definition
	Completed bool `json:"completed"`
	Running   bool `json:"running"`
	Earned    int  `json:"earned,omitempty"`
}

// ViewState is the full derived display state sent to the presentation
// layer after every read or mutation.
type ViewState struct {
	Mode          Mode                `json:"mode"`
	Policy        progression.Policy  `json:"policy"`
	TotalPoints   int                 `json:"total_points"`
	Status        *progression.Status `json:"status,omitempty"`
	Level         int                 `json:"level"`
	Progress      float64             `json:"progress"`
	LastResetDate string              `json:"last_reset_date,omitempty"`
	Activities    []ActivityView      `json:"activities"`
}

// StatusChangeEvent is the one-shot celebration signal. At most one is
// emitted per mutation no matter how many tier or level boundaries the
// score jumped across; it always reports the final tier/level.
type StatusChangeEvent struct {
	Policy      progression.Policy `json:"policy"`
	Label       string             `json:"label"`
	Message     string             `json:"message"`
	Level       int                `json:"level,omitempty"`
	TotalPoints int                `json:"total_points"`
}

// MutationResult is returned by every score-affecting operation.
type MutationResult struct {
	TotalPoints   int                `json:"total_points"`
	StatusChanged bool               `json:"status_changed"`
	Change        *StatusChangeEvent `json:"change,omitempty"`
}
