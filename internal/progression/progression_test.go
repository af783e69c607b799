package progression

import "testing"

func TestLevel(t *testing.T) {
	cases := []struct {
		totalPoints int
		want        int
	}{
		{-150, -1},
		// floor(-1/100) is -1, not 0: floor division rounds toward negative
		// infinity, so one point below zero sits on level 0.
		{-1, 0},
		{0, 1},
		{1, 1},
		{99, 1},
		{100, 2},
		{250, 3},
	}

	for _, c := range cases {
		if got := Level(c.totalPoints); got != c.want {
			t.Errorf("Level(%d) = %d, want %d", c.totalPoints, got, c.want)
		}
	}
}

func TestLevelProgressStaysNonNegative(t *testing.T) {
	cases := []struct {
		totalPoints int
		want        float64
	}{
		{-50, 50},
		{-150, 50},
		{0, 0},
		{50, 50},
		{100, 0},
		{250, 50},
	}

	for _, c := range cases {
		if got := LevelProgress(c.totalPoints); got != c.want {
			t.Errorf("LevelProgress(%d) = %v, want %v", c.totalPoints, got, c.want)
		}
	}
}

func TestTieredStatus(t *testing.T) {
	cases := []struct {
		totalPoints int
		want        string
	}{
		{-20, "Getting Started"},
		{0, "Getting Started"},
		{99, "Getting Started"},
		{100, "Goal"},
		{199, "Goal"},
		{200, "Extraordinary"},
		{300, "Elite"},
		{399, "Elite"},
		{400, "Concerning"},
		{1000, "Concerning"},
	}

	for _, c := range cases {
		if got := TieredStatus(c.totalPoints); got.Label != c.want {
			t.Errorf("TieredStatus(%d) = %q, want %q", c.totalPoints, got.Label, c.want)
		}
	}
}

func TestTieredProgressSaturates(t *testing.T) {
	if got := TieredProgress(40); got != 40 {
		t.Errorf("TieredProgress(40) = %v, want 40", got)
	}
	if got := TieredProgress(350); got != 100 {
		t.Errorf("TieredProgress(350) = %v, want 100", got)
	}
}
