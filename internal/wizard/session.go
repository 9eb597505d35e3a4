// internal/wizard/session.go
package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"loanbridge/internal/common/database"
	"loanbridge/internal/common/errors"
	"loanbridge/internal/common/metrics"
)

// Banner is a per-session message with an optional self-clear deadline, the
// serialized form of the original's timed post-submit banner.
type Banner struct {
	Kind    string    `json:"kind"` // "success" | "error"
	Message string    `json:"message"`
	ClearAt time.Time `json:"clearAt,omitempty"`
}

// Session is one in-progress wizard. It lives only in Redis under a TTL
// and is never written to the database before submit.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId,omitempty"`
	Controller Controller `json:"controller"`
	Banner     *Banner    `json:"banner,omitempty"`
	// PendingStepReset marks that a successful submission is waiting for
	// the banner-clear deadline to also reset the step index.
	PendingStepReset bool      `json:"pendingStepReset"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Tick applies time-driven transitions as of now: the banner self-clear
// with its deferred step reset, and the income verification resolution.
func (s *Session) Tick(now time.Time) {
	if s.Banner != nil && !s.Banner.ClearAt.IsZero() && !now.Before(s.Banner.ClearAt) {
		s.Banner = nil
		if s.PendingStepReset {
			s.Controller.ActiveStep = StepLoanExplorer
			s.PendingStepReset = false
		}
	}
	s.Controller.IncomeState(now)
}

// SessionStore persists wizard sessions in Redis.
type SessionStore struct {
	redis *database.RedisClient
	ttl   time.Duration
}

func NewSessionStore(rdb *database.RedisClient, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: rdb, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("wizard:session:%s", id)
}

// Create opens a new session at step 0 with default form values.
func (st *SessionStore) Create(ctx context.Context, userID string, strict bool) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:         uuid.New().String(),
		UserID:     userID,
		Controller: *NewController(strict),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := st.Save(ctx, sess); err != nil {
		return nil, err
	}
	metrics.WizardSessionsActive.Inc()
	return sess, nil
}

// Get loads a session and applies its time-driven transitions.
func (st *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := st.redis.Get(ctx, sessionKey(id))
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NewSessionNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to load wizard session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode wizard session: %w", err)
	}

	sess.Tick(time.Now().UTC())
	return &sess, nil
}

// Save writes the session back under the store TTL.
func (st *SessionStore) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode wizard session: %w", err)
	}
	if err := st.redis.Set(ctx, sessionKey(sess.ID), data, st.ttl); err != nil {
		return fmt.Errorf("failed to store wizard session: %w", err)
	}
	return nil
}

// Delete discards a session.
func (st *SessionStore) Delete(ctx context.Context, id string) error {
	if err := st.redis.Del(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("failed to delete wizard session: %w", err)
	}
	metrics.WizardSessionsActive.Dec()
	return nil
}
