package matching

import "time"

// Assignment lifecycle states.
type Status string

const (
	StatusProposed Status = "proposed"
	StatusRevealed Status = "revealed"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
	StatusBlocked  Status = "blocked"
	StatusNoMatch  Status = "no_match"
)

type Action string

const (
	ActionView    Action = "view"
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionExpire  Action = "expire"
	ActionBlock   Action = "block"
)

// Transition is the pure lifecycle function. Callers persist both rows of a
// matched pair in lockstep, except for the asymmetric block override which
// only hides the blocking user's row. no_match is terminal; expiry wins over
// any pending action once the deadline passes.
func Transition(current Status, action Action, now time.Time, expiresAt time.Time) Status {
	if current == StatusNoMatch {
		return StatusNoMatch
	}

	if action == ActionBlock {
		switch current {
		case StatusProposed, StatusRevealed, StatusAccepted:
			return StatusBlocked
		}
		return current
	}

	if (current == StatusProposed || current == StatusRevealed) && !now.Before(expiresAt) {
		return StatusExpired
	}

	switch action {
	case ActionView:
		if current == StatusProposed {
			return StatusRevealed
		}
	case ActionAccept:
		if current == StatusRevealed || current == StatusAccepted {
			return StatusAccepted
		}
	case ActionDecline:
		if current == StatusRevealed || current == StatusDeclined {
			return StatusDeclined
		}
	case ActionExpire:
		if current == StatusProposed || current == StatusRevealed {
			return StatusExpired
		}
	}
	return current
}

// Terminal reports whether a status can never change again through user
// actions.
func Terminal(s Status) bool {
	switch s {
	case StatusNoMatch, StatusExpired, StatusBlocked:
		return true
	}
	return false
}
