package activity

import "fmt"

type catalogEntry struct {
	name     string
	points   int
	time     string
	category string
}

// The built-in daily task list. Order is stable: ids are derived from the
// index, so reordering or removing entries would corrupt persisted
// completion records.
var catalogEntries = []catalogEntry{
	// Health & Wellness
	{"Brush teeth (morning)", 5, "2 min", "health"},
	{"Brush teeth (night)", 5, "2 min", "health"},
	{"Shower", 8, "10 min", "health"},
	{"Workout (30+ min)", 25, "30-60 min", "health"},
	{"Workout (60+ min)", 40, "60+ min", "health"},
	{"Morning stretch", 5, "5 min", "health"},
	{"Drink water (8 glasses)", 8, "Throughout day", "health"},
	{"Eat healthy breakfast", 10, "15 min", "health"},
	{"Eat healthy lunch", 10, "20 min", "health"},
	{"Eat healthy dinner", 10, "30 min", "health"},

	// Productivity
	{"Coding practice (30 min)", 15, "30 min", "productivity"},
	{"Coding practice (1 hour)", 25, "1 hour", "productivity"},
	{"Coding practice (2+ hours)", 40, "2+ hours", "productivity"},
	{"Work/Study (focused hour)", 20, "1 hour", "productivity"},
	{"Learn something new", 15, "30 min", "productivity"},
	{"Read book (30 min)", 12, "30 min", "productivity"},
	{"Complete a project task", 20, "Varies", "productivity"},

	// Daily habits
	{"Make bed", 5, "2 min", "habits"},
	{"Tidy room", 8, "10 min", "habits"},
	{"Do dishes", 7, "10 min", "habits"},
	{"Laundry", 10, "15 min", "habits"},
	{"Plan tomorrow", 8, "5 min", "habits"},
	{"Meditate", 12, "10 min", "habits"},
	{"Journal", 10, "10 min", "habits"},

	// Social & Personal
	{"Call family/friend", 12, "15 min", "social"},
	{"Quality time with loved ones", 15, "30+ min", "social"},
	{"Help someone", 15, "Varies", "social"},

	// Negative habits
	{"Skip workout", -15, "N/A", "health"},
	{"Junk food binge", -12, "N/A", "health"},
	{"Doomscroll social media (30+ min)", -10, "30+ min", "habits"},
}

// BuiltinCatalog returns a fresh copy of the fixed daily task list. All
// catalog entries are occurrence activities.
func BuiltinCatalog() []*Definition {
	defs := make([]*Definition, 0, len(catalogEntries))
	for i, e := range catalogEntries {
		defs = append(defs, &Definition{
			ID:       fmt.Sprintf("task-%d", i),
			Name:     e.name,
			Points:   e.points,
			Category: e.category,
			Time:     e.time,
			Kind:     KindOccurrence,
		})
	}
	return defs
}
