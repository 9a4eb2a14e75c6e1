package matching

import (
	"testing"
	"time"
)

func TestTransition(t *testing.T) {
	now := time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-time.Hour)

	cases := []struct {
		name      string
		current   Status
		action    Action
		expiresAt time.Time
		want      Status
	}{
		{name: "view_reveals", current: StatusProposed, action: ActionView, expiresAt: future, want: StatusRevealed},
		{name: "view_idempotent", current: StatusRevealed, action: ActionView, expiresAt: future, want: StatusRevealed},
		{name: "accept_from_revealed", current: StatusRevealed, action: ActionAccept, expiresAt: future, want: StatusAccepted},
		{name: "accept_idempotent", current: StatusAccepted, action: ActionAccept, expiresAt: future, want: StatusAccepted},
		{name: "accept_from_proposed_rejected", current: StatusProposed, action: ActionAccept, expiresAt: future, want: StatusProposed},
		{name: "decline_from_revealed", current: StatusRevealed, action: ActionDecline, expiresAt: future, want: StatusDeclined},
		{name: "decline_idempotent", current: StatusDeclined, action: ActionDecline, expiresAt: future, want: StatusDeclined},
		{name: "expire_proposed", current: StatusProposed, action: ActionExpire, expiresAt: past, want: StatusExpired},
		{name: "expire_revealed", current: StatusRevealed, action: ActionExpire, expiresAt: past, want: StatusExpired},
		{name: "expire_wins_over_view", current: StatusProposed, action: ActionView, expiresAt: past, want: StatusExpired},
		{name: "expire_wins_over_accept", current: StatusRevealed, action: ActionAccept, expiresAt: past, want: StatusExpired},
		{name: "expiry_at_exact_deadline", current: StatusProposed, action: ActionView, expiresAt: now, want: StatusExpired},
		{name: "accepted_does_not_expire", current: StatusAccepted, action: ActionExpire, expiresAt: past, want: StatusAccepted},
		{name: "block_from_proposed", current: StatusProposed, action: ActionBlock, expiresAt: future, want: StatusBlocked},
		{name: "block_from_revealed", current: StatusRevealed, action: ActionBlock, expiresAt: future, want: StatusBlocked},
		{name: "block_from_accepted", current: StatusAccepted, action: ActionBlock, expiresAt: future, want: StatusBlocked},
		{name: "block_from_declined_noop", current: StatusDeclined, action: ActionBlock, expiresAt: future, want: StatusDeclined},
		{name: "block_after_expiry_still_blocks", current: StatusProposed, action: ActionBlock, expiresAt: past, want: StatusBlocked},
		{name: "no_match_terminal_view", current: StatusNoMatch, action: ActionView, expiresAt: future, want: StatusNoMatch},
		{name: "no_match_terminal_block", current: StatusNoMatch, action: ActionBlock, expiresAt: future, want: StatusNoMatch},
		{name: "declined_cannot_accept", current: StatusDeclined, action: ActionAccept, expiresAt: future, want: StatusDeclined},
		{name: "expired_cannot_accept", current: StatusExpired, action: ActionAccept, expiresAt: future, want: StatusExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Transition(tc.current, tc.action, now, tc.expiresAt)
			if got != tc.want {
				t.Fatalf("Transition(%s, %s) = %s, want %s", tc.current, tc.action, got, tc.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	terminal := []Status{StatusNoMatch, StatusExpired, StatusBlocked}
	for _, s := range terminal {
		if !Terminal(s) {
			t.Fatalf("%s should be terminal", s)
		}
	}
	open := []Status{StatusProposed, StatusRevealed, StatusAccepted, StatusDeclined}
	for _, s := range open {
		if Terminal(s) {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
