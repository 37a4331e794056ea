package domain

import (
	"errors"
	"time"
)

// ModerationStatus is the admin-controlled approval state of a content item.
// It is orthogonal to the owner-controlled publication status.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

var ErrInvalidModerationState = errors.New("invalid moderation state")
var ErrModerationConflict = errors.New("concurrent moderation update")

// Valid reports whether m is one of the three defined moderation states.
func (m ModerationStatus) Valid() bool {
	switch m {
	case ModerationPending, ModerationApproved, ModerationRejected:
		return true
	}
	return false
}

// NextModeration resolves an admin-requested moderation transition.
// Any defined state may be assigned from any other (approved→rejected is a
// single atomic assignment, never a two-step path through pending). A
// same-state request is an idempotent no-op and returns the current state.
func NextModeration(current, requested ModerationStatus) (ModerationStatus, error) {
	if !requested.Valid() {
		return current, ErrInvalidModerationState
	}
	if requested == current {
		return current, nil
	}
	return requested, nil
}

// ModerationAudit records a single moderation decision for the audit trail.
type ModerationAudit struct {
	ContentKind string           `json:"content_kind" bson:"content_kind"`
	ContentID   string           `json:"content_id" bson:"content_id"`
	From        ModerationStatus `json:"from" bson:"from"`
	To          ModerationStatus `json:"to" bson:"to"`
	ActorID     string           `json:"actor_id" bson:"actor_id"`
	Timestamp   time.Time        `json:"timestamp" bson:"timestamp"`
}
