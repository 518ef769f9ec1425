// Package access manages the request/decision lifecycle for restricted
// sources: composing access requests into a data owner's inbox, reading
// decision resources from the requester's own inbox, and folding them into
// one authoritative state per source key.
package access

import (
	"strings"
	"time"
)

// DecisionState is the access-decision state of one source key.
//
// Transitions: none -> pending (request sent, tracked locally only) ->
// approved | denied | revoked (set by an external decision resource).
// approved further projects to expired once the expiry instant passes;
// denied and revoked are terminal - a new request cycle is required, and
// no resubmit transition exists here by design.
type DecisionState string

const (
	StateNone     DecisionState = "none"
	StatePending  DecisionState = "pending"
	StateApproved DecisionState = "approved"
	StateDenied   DecisionState = "denied"
	StateRevoked  DecisionState = "revoked"
	StateExpired  DecisionState = "expired"
)

// Terminal reports whether no further integration is possible without a
// brand-new request cycle. This is a behavioral contract the caller must
// enforce; the decision reader itself never blocks anything.
func (s DecisionState) Terminal() bool {
	return s == StateDenied || s == StateRevoked
}

// ParseDecisionLabel maps a decision resource's label to a state,
// case-insensitively. Anything unrecognized maps to none.
func ParseDecisionLabel(label string) DecisionState {
	switch strings.ToLower(label) {
	case "approved":
		return StateApproved
	case "denied":
		return StateDenied
	case "revoked":
		return StateRevoked
	default:
		return StateNone
	}
}

// DecisionItem is the authoritative outcome for one source key, derived
// from a decision resource in the requester's inbox.
type DecisionItem struct {
	Key       string        `json:"key"`
	State     DecisionState `json:"state"`
	DecidedAt time.Time     `json:"decidedAt"`
	// ExpiresAt is optional; the zero time means no expiry.
	ExpiresAt time.Time `json:"expiresAt"`
}

// Projected returns the item with expiry applied as of now: an approved
// decision whose expiry instant has passed reads as expired. The
// underlying decision resource is unchanged; this is recomputed on every
// poll.
func (i DecisionItem) Projected(now time.Time) DecisionItem {
	if i.State == StateApproved && !i.ExpiresAt.IsZero() && !i.ExpiresAt.After(now) {
		i.State = StateExpired
	}
	return i
}

// StoredRequestState is the locally persisted shadow of the last known
// state per source key. It remembers "pending" between polls before a
// decision resource exists and serves as a fallback display value. Stale
// entries are harmless: lookups always prefer live decision data.
type StoredRequestState struct {
	State     DecisionState `json:"state"`
	UpdatedAt time.Time     `json:"updatedAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// Store holds the locally tracked request state between polls. It is an
// injected dependency; implementations live in the statestore package.
type Store interface {
	Get(key string) (StoredRequestState, bool)
	Set(key string, state StoredRequestState) error
	All() map[string]StoredRequestState
}

// MergeStates folds locally stored state and live decision items into the
// display state per source key. Live decisions always win when present
// (with expiry projected as of now); stored entries fill in pending and
// last-known states for keys with no live decision.
func MergeStates(stored map[string]StoredRequestState, live map[string]DecisionItem, now time.Time) map[string]DecisionState {
	out := make(map[string]DecisionState, len(stored)+len(live))

	for key, st := range stored {
		state := st.State
		if state == StateApproved && !st.ExpiresAt.IsZero() && !st.ExpiresAt.After(now) {
			state = StateExpired
		}
		out[key] = state
	}
	for key, item := range live {
		out[key] = item.Projected(now).State
	}
	return out
}
