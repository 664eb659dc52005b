package services

import (
	"sync"
	"time"

	"github.com/DRPozdniakov/Tracker/internal/models"
)

// pendingRegistry holds at most one live pending action per user. Expiry
// is enforced lazily on access; sweep exists so abandoned entries do not
// pile up between accesses.
type pendingRegistry struct {
	mu      sync.Mutex
	actions map[string]*models.PendingAction
	now     func() time.Time
}

func newPendingRegistry(now func() time.Time) *pendingRegistry {
	return &pendingRegistry{
		actions: make(map[string]*models.PendingAction),
		now:     now,
	}
}

// get returns the user's pending action. An entry past its TTL is removed
// and reported with expired=true so callers can tell "expired" apart from
// "never existed".
func (r *pendingRegistry) get(userID string) (action *models.PendingAction, expired bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[userID]
	if !ok {
		return nil, false
	}
	if action.Expired(r.now()) {
		delete(r.actions, userID)
		return action, true
	}
	return action, false
}

// put registers action unless the user already has a live one.
func (r *pendingRegistry) put(action *models.PendingAction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.actions[action.UserID]; ok && !current.Expired(r.now()) {
		return false
	}
	r.actions[action.UserID] = action
	return true
}

// remove discards the user's pending action if its token matches.
func (r *pendingRegistry) remove(userID, token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[userID]
	if !ok || action.Token != token {
		return false
	}
	delete(r.actions, userID)
	return true
}

// sweep drops every expired entry and returns how many were removed.
func (r *pendingRegistry) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for userID, action := range r.actions {
		if action.Expired(now) {
			delete(r.actions, userID)
			removed++
		}
	}
	return removed
}
