// Package progression derives display state (status tier or level and a
// progress percentage) from a cumulative point total. Everything here is a
// pure function of the total; nothing is stored.
package progression

type Policy string

const (
	PolicyTiered   Policy = "tiered"
	PolicyLeveling Policy = "leveling"
)

// Status is one tier of the fixed-catalog scheme. Thresholds are inclusive
// lower bounds; the highest threshold at or below the total wins.
type Status struct {
	Label   string `json:"label"`
	Class   string `json:"class"`
	Message string `json:"message"`
}

var tiers = []struct {
	threshold int
	status    Status
}{
	{400, Status{Label: "Concerning", Class: "concerning", Message: "Take a break! Balance is important."}},
	{300, Status{Label: "Elite", Class: "elite", Message: "Absolutely crushing it today!"}},
	{200, Status{Label: "Extraordinary", Class: "extraordinary", Message: "Outstanding performance!"}},
	{100, Status{Label: "Goal", Class: "goal", Message: "Daily goal achieved!"}},
}

// TieredStatus maps a point total to its status tier.
func TieredStatus(totalPoints int) Status {
	for _, t := range tiers {
		if totalPoints >= t.threshold {
			return t.status
		}
	}
	return Status{Label: "Getting Started", Class: "", Message: "Keep going!"}
}

// TieredProgress is progress toward the 100-point daily goal, in percent.
// Saturates at 100 and does not wrap past it.
func TieredProgress(totalPoints int) float64 {
	progress := float64(totalPoints)
	if progress > 100 {
		return 100
	}
	return progress
}

// Level for the user-defined scheme: one level per 100 points, starting at
// level 1. Negative totals round toward negative infinity, so a total of
// -150 is level -1, not 0.
func Level(totalPoints int) int {
	return floorDiv(totalPoints, 100) + 1
}

// LevelProgress is progress within the current level, in percent, always in
// [0, 100). Uses a Euclidean modulo so negative totals still render a sane
// bar (-50 points is 50% through level 0).
func LevelProgress(totalPoints int) float64 {
	return float64(euclidMod(totalPoints, 100))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func euclidMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
