package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"dayScoreAPI/internal/ledger"
	"dayScoreAPI/internal/progression"
	"dayScoreAPI/internal/storekv"
	notif "dayScoreAPI/internal/types/notification"
)

// Keep the feed bounded; the client only ever shows recent celebrations.
const maxFeedSize = 50

// PushProvider delivers a notification to registered devices. FCM in
// production; absent when credentials are not configured.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notif.DeviceToken, title, body string, data map[string]any) error
}

// NotificationService records one-shot status-change events for the
// presentation layer and optionally pushes them to registered devices.
// The feed is transient; device tokens persist in the key-value store.
type NotificationService struct {
	mu     sync.Mutex
	store  storekv.Store
	push   PushProvider
	feed   []*notif.Notification
	tokens []notif.DeviceToken
}

func NewNotificationService(store storekv.Store) *NotificationService {
	return &NotificationService{store: store}
}

// SetPushProvider injects the push backend after construction, mirroring
// the optional FCM bootstrap in main.
func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.push = p
}

// Load restores registered device tokens. A corrupt value degrades to an
// empty token list.
func (s *NotificationService) Load(ctx context.Context) error {
	raw, ok, err := s.store.Get(ctx, storekv.KeyDeviceTokens)
	if err != nil {
		return fmt.Errorf("failed to load device tokens: %w", err)
	}
	if !ok {
		return nil
	}

	var tokens []notif.DeviceToken
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		log.Printf("Notifications: corrupt device token list, starting empty: %v", err)
		return nil
	}

	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
	return nil
}

// RecordStatusChange appends a status-change event to the feed and pushes
// it out of band. Called at most once per ledger mutation.
func (s *NotificationService) RecordStatusChange(ctx context.Context, change *ledger.StatusChangeEvent) {
	kind := notif.NotificationStatusChange
	if change.Policy == progression.PolicyLeveling {
		kind = notif.NotificationLevelUp
	}

	n := &notif.Notification{
		ID:      uuid.New(),
		Type:    kind,
		Title:   change.Label,
		Message: change.Message,
		Data: map[string]any{
			"total_points": change.TotalPoints,
		},
		CreatedAt: time.Now(),
	}
	if change.Level != 0 {
		n.Data["level"] = change.Level
	}

	s.mu.Lock()
	s.feed = append(s.feed, n)
	if len(s.feed) > maxFeedSize {
		s.feed = s.feed[len(s.feed)-maxFeedSize:]
	}
	push := s.push
	tokens := make([]notif.DeviceToken, len(s.tokens))
	copy(tokens, s.tokens)
	s.mu.Unlock()

	if push == nil || len(tokens) == 0 {
		return
	}

	go func() {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := push.SendPush(pushCtx, tokens, n.Title, n.Message, n.Data); err != nil {
			log.Printf("Notifications: push delivery failed: %v", err)
		}
	}()
}

// GetNotifications returns the feed, newest first.
func (s *NotificationService) GetNotifications() []*notif.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*notif.Notification, 0, len(s.feed))
	for i := len(s.feed) - 1; i >= 0; i-- {
		out = append(out, s.feed[i])
	}
	return out
}

// UnreadCount reports how many feed entries have not been read.
func (s *NotificationService) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.feed {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// MarkAllAsRead flags every feed entry read.
func (s *NotificationService) MarkAllAsRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.feed {
		n.IsRead = true
	}
}

// RegisterDevice stores a push token. Re-registering an existing token
// refreshes its platform and timestamp instead of duplicating it.
func (s *NotificationService) RegisterDevice(ctx context.Context, token, platform string) error {
	if token == "" {
		return fmt.Errorf("device token is required")
	}

	s.mu.Lock()
	found := false
	for i := range s.tokens {
		if s.tokens[i].Token == token {
			s.tokens[i].Platform = platform
			s.tokens[i].RegisteredAt = time.Now()
			found = true
			break
		}
	}
	if !found {
		s.tokens = append(s.tokens, notif.DeviceToken{
			Token:        token,
			Platform:     platform,
			RegisteredAt: time.Now(),
		})
	}
	encoded, err := json.Marshal(s.tokens)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to encode device tokens: %w", err)
	}
	if err := s.store.Set(ctx, storekv.KeyDeviceTokens, string(encoded)); err != nil {
		return fmt.Errorf("failed to persist device tokens: %w", err)
	}
	return nil
}
