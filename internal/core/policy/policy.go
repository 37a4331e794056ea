// Package policy is the single authorization decision point. Every entry
// point resolves an Operation and asks the Engine; no handler carries its own
// role or ownership check. Unmatched cases resolve to deny.
package policy

import "github.com/estatehub/marketplace-api/internal/core/domain"

// Action is the kind of access being attempted.
type Action string

const (
	ActionCreate   Action = "create"
	ActionRead     Action = "read"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionModerate Action = "moderate"
)

// ResourceKind names the content collection an operation targets.
type ResourceKind string

const (
	ResourceListing ResourceKind = "listing"
	ResourcePost    ResourceKind = "post"
)

// Operation describes one attempted action. OwnerID and Moderation must come
// from the persisted record, fetched fresh — never from the client payload.
type Operation struct {
	Resource   ResourceKind
	Action     Action
	OwnerID    string
	Moderation domain.ModerationStatus
}

// Reason classifies a denial for status-code mapping (401 vs 403). It never
// carries resource-existence information.
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
)

// Decision is the outcome of an authorization check. Denial is a normal
// value, not an error.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Reason: r} }

// Err maps a denial to its domain error. Calling Err on an allow is a bug.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonUnauthenticated {
		return domain.ErrUnauthenticated
	}
	return domain.ErrForbidden
}

// Engine evaluates the role/ownership matrix. The admin set is a second
// check independent of the role claim: a token claiming the admin role is
// only honored when its email is also in the configured set, so a
// compromised signer cannot mint a working admin credential on its own.
type Engine struct {
	admins map[string]struct{}
}

// NewEngine builds an Engine recognizing the given administrative emails.
func NewEngine(adminEmails []string) *Engine {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e != "" {
			admins[e] = struct{}{}
		}
	}
	return &Engine{admins: admins}
}

// IsSuperAdmin reports whether id passes both the role claim and the
// configured admin-identity check.
func (e *Engine) IsSuperAdmin(id domain.Identity) bool {
	if id.Role != domain.RoleAdmin {
		return false
	}
	_, ok := e.admins[id.Email]
	return ok
}

// Authorize decides whether id may perform op. Rules are evaluated in order;
// the first match wins and anything unmatched is denied.
func (e *Engine) Authorize(id domain.Identity, op Operation) Decision {
	// 1. Approved content is publicly readable, whoever asks.
	if op.Action == ActionRead && op.Moderation == domain.ModerationApproved {
		return allow()
	}

	// 2. Everything past this point requires a verified credential.
	if id.IsAnonymous() {
		return deny(ReasonUnauthenticated)
	}

	// 3. A recognized admin may do anything, including foreign-owned content.
	if e.IsSuperAdmin(id) {
		return allow()
	}

	switch op.Action {
	case ActionCreate:
		// 4. Blog submission is open to any authenticated identity;
		// property listings are agent-gated.
		if op.Resource == ResourcePost {
			return allow()
		}
		if op.Resource == ResourceListing && id.Role == domain.RoleAgent {
			return allow()
		}
		return deny(ReasonForbidden)

	case ActionRead, ActionUpdate, ActionDelete:
		// 5. Unapproved reads and all mutations are owner-only.
		if op.OwnerID != "" && op.OwnerID == id.SubjectID {
			return allow()
		}
		return deny(ReasonForbidden)

	case ActionModerate:
		// 6. Moderation transitions are admin-only; rule 3 already
		// admitted recognized admins.
		return deny(ReasonForbidden)
	}

	// 7. Default deny.
	return deny(ReasonForbidden)
}
