package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/DRPozdniakov/Tracker/internal/logging"
	"github.com/DRPozdniakov/Tracker/internal/models"
	"github.com/DRPozdniakov/Tracker/internal/repositories"
)

const (
	defaultPendingTTL = 2 * time.Minute
	defaultMaxSkew    = 5 * time.Minute
)

type CoordinatorConfig struct {
	PendingTTL time.Duration
	Location   LocationPolicy
}

// ActionCoordinator owns the two-phase clock flow: a button press begins
// an action, the location reply (or decline) completes it. All mutations
// for one user run under that user's lock, so reads, the legality check
// and the append never interleave.
type ActionCoordinator struct {
	store   repositories.AttendanceStore
	pending *pendingRegistry
	policy  LocationPolicy
	ttl     time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now        func() time.Time
	newToken   func() string
	newID      func() string
	newBackOff func() backoff.BackOff
}

func NewActionCoordinator(store repositories.AttendanceStore, cfg CoordinatorConfig) *ActionCoordinator {
	ttl := cfg.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	policy := cfg.Location
	if policy.MaxSkew <= 0 {
		policy.MaxSkew = defaultMaxSkew
	}

	c := &ActionCoordinator{
		store:    store,
		policy:   policy,
		ttl:      ttl,
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
		newToken: uuid.NewString,
		newID:    func() string { return ulid.Make().String() },
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			b.MaxElapsedTime = 5 * time.Second
			return b
		},
	}
	c.pending = newPendingRegistry(func() time.Time { return c.now() })
	return c
}

// BeginAction handles a clock button press: it checks legality against the
// latest committed event and parks a PendingAction until the location
// arrives. Nothing is written to the store yet.
func (c *ActionCoordinator) BeginAction(ctx context.Context, userID string, action models.Action) (*models.PendingAction, error) {
	if !action.Valid() {
		return nil, errors.New("unknown action")
	}

	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if current, expired := c.pending.get(userID); current != nil && !expired {
		return nil, reject(ReasonActionAlreadyPending,
			"you already have a %s waiting for a location, share it or /cancel first", actionLabel(current.Action))
	}

	last, err := c.lastEvent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := EvaluateTransition(last, action); err != nil {
		return nil, err
	}

	now := c.now().UTC()
	pending := &models.PendingAction{
		Token:     c.newToken(),
		UserID:    userID,
		Action:    action,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.pending.put(pending)

	logging.FromContext(ctx).Info("action pending",
		"user_id", userID, "action", action, "expires_at", pending.ExpiresAt)
	return pending, nil
}

// CompleteAction commits the pending action identified by token once the
// location (or an explicit decline, raw == nil) is in. Completing an
// already-committed token returns the committed event again.
func (c *ActionCoordinator) CompleteAction(ctx context.Context, userID, token string, raw *RawLocation) (*models.AttendanceEvent, error) {
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	logger := logging.FromContext(ctx)

	pending, expired := c.pending.get(userID)
	if expired && pending != nil && pending.Token == token {
		logger.Info("pending action expired", "user_id", userID, "action", pending.Action)
		return nil, reject(ReasonActionExpired, "this request expired, press the button again")
	}
	if pending == nil || expired || pending.Token != token {
		last, err := c.lastEvent(ctx, userID)
		if err != nil {
			return nil, err
		}
		if last != nil && last.Token == token {
			return last, nil
		}
		return nil, reject(ReasonNoPendingAction, "nothing is waiting for a location right now")
	}

	// The state may have moved since the button press; re-check against
	// the latest committed event before writing.
	last, err := c.lastEvent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if last != nil && last.Token == token {
		// Committed on a previous attempt that never got to clear the
		// pending entry.
		c.pending.remove(userID, token)
		return last, nil
	}
	if err := EvaluateTransition(last, pending.Action); err != nil {
		c.pending.remove(userID, token)
		return nil, err
	}

	sample, err := c.policy.Validate(raw, c.now())
	if err != nil {
		// Pending stays live: the same token may retry with a usable
		// sample until the TTL runs out.
		return nil, err
	}

	sequence := int64(1)
	if last != nil {
		sequence = last.Sequence + 1
	}
	event := &models.AttendanceEvent{
		ID:         c.newID(),
		UserID:     userID,
		Action:     pending.Action,
		RecordedAt: c.now().UTC(),
		Location:   sample,
		Sequence:   sequence,
		Token:      token,
	}

	var committed *models.AttendanceEvent
	err = c.withRetry(ctx, func() error {
		appended, err := c.store.Append(ctx, event)
		if err != nil {
			return err
		}
		committed = appended
		return nil
	})
	if err != nil {
		logger.Error("append failed", "user_id", userID, "action", pending.Action, "error", err)
		return nil, err
	}

	c.pending.remove(userID, token)
	logger.Info("attendance recorded",
		"user_id", userID, "action", committed.Action, "sequence", committed.Sequence)
	return committed, nil
}

// CancelAction discards the pending action identified by token.
func (c *ActionCoordinator) CancelAction(ctx context.Context, userID, token string) error {
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if !c.pending.remove(userID, token) {
		return reject(ReasonNoPendingAction, "nothing to cancel")
	}
	logging.FromContext(ctx).Info("pending action cancelled", "user_id", userID)
	return nil
}

// PendingFor returns the user's live pending action, if any. Transports
// use it to recover the token when a location arrives without one.
func (c *ActionCoordinator) PendingFor(userID string) (*models.PendingAction, bool) {
	pending, expired := c.pending.get(userID)
	if pending == nil || expired {
		return nil, false
	}
	return pending, true
}

// SweepExpired drops expired pending actions; the daemon calls it on a
// timer.
func (c *ActionCoordinator) SweepExpired() int {
	return c.pending.sweep()
}

func (c *ActionCoordinator) userLock(userID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[userID] = lock
	}
	return lock
}

// lastEvent reads the user's latest committed event, retrying transient
// store failures. No event at all is returned as nil, not an error.
func (c *ActionCoordinator) lastEvent(ctx context.Context, userID string) (*models.AttendanceEvent, error) {
	var last *models.AttendanceEvent
	err := c.withRetry(ctx, func() error {
		event, err := c.store.LastEvent(ctx, userID)
		if errors.Is(err, repositories.ErrNotFound) {
			last = nil
			return nil
		}
		if err != nil {
			return err
		}
		last = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}

// withRetry runs op, retrying with bounded exponential backoff while the
// store reports ErrUnavailable. Every other error stops immediately.
func (c *ActionCoordinator) withRetry(ctx context.Context, op func() error) error {
	attempt := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, repositories.ErrUnavailable) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(attempt, backoff.WithContext(c.newBackOff(), ctx))
}

func actionLabel(action models.Action) string {
	if action == models.ActionClockOut {
		return "clock-out"
	}
	return "clock-in"
}
