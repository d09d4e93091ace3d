package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StateIdle          = "idle"
	StateInvite        = "awaiting_invite"
	StateStart         = "choosing_start"
	StateEnd           = "choosing_end"
	StateNotes         = "adding_notes"
	StateConfirm       = "awaiting_confirm"
	StateAdminInvite   = "admin_invite_code"
	StateAdminCancelID = "admin_cancel_id"
)

// Session is the per-chat booking draft.
type Session struct {
	State    string    `json:"state"`
	Date     time.Time `json:"date,omitempty"`
	DriverID int64     `json:"driver_id,omitempty"`
	Start    time.Time `json:"start,omitempty"`
	End      time.Time `json:"end,omitempty"`
	Notes    string    `json:"notes,omitempty"`
}

type SessionStore interface {
	// Get returns an idle session for unknown chats.
	Get(ctx context.Context, chatID int64) (*Session, error)
	Save(ctx context.Context, chatID int64, s *Session) error
	Delete(ctx context.Context, chatID int64) error
}

type MemorySessions struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[int64]Session)}
}

func (m *MemorySessions) Get(_ context.Context, chatID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return &Session{State: StateIdle}, nil
	}
	return &s, nil
}

func (m *MemorySessions) Save(_ context.Context, chatID int64, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[chatID] = *s
	return nil
}

func (m *MemorySessions) Delete(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
	return nil
}

const (
	defaultSessionPrefix = "driverbook:session:"
	DefaultSessionTTL    = 24 * time.Hour
)

// RedisSessions keeps drafts in Redis as JSON so they survive restarts.
// Abandoned drafts expire after ttl.
type RedisSessions struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisSessions(client redis.Cmdable, ttl time.Duration) *RedisSessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessions{client: client, prefix: defaultSessionPrefix, ttl: ttl}
}

func (r *RedisSessions) key(chatID int64) string {
	return fmt.Sprintf("%s%d", r.prefix, chatID)
}

func (r *RedisSessions) Get(ctx context.Context, chatID int64) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Session{State: StateIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessions) Save(ctx context.Context, chatID int64, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(chatID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *RedisSessions) Delete(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, r.key(chatID)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
