// Package storekv is the persistence boundary: an opaque, string-valued
// key-value store. The ledger loads every key once at startup and writes
// the affected keys back after each mutation (write-through, last writer
// wins).
package storekv

import "context"

// Keys match the original browser client's storage keys so an exported
// localStorage snapshot can be imported as-is.
const (
	KeyActivities    = "activities"
	KeyCompleted     = "completedTasks"
	KeyTotalPoints   = "totalPoints"
	KeyLastResetDate = "lastResetDate"
	KeyDarkMode      = "darkMode"
	KeyDeviceTokens  = "deviceTokens"
)

type Store interface {
	// Get returns the stored value for key, and false if the key has never
	// been written.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
}
