package matching

import (
	"time"

	"github.com/google/uuid"
)

// PairKey is the canonical order-independent identity of an unordered pair.
type PairKey struct {
	A string
	B string
}

func CanonicalPair(a, b uuid.UUID) PairKey {
	as, bs := a.String(), b.String()
	if as > bs {
		as, bs = bs, as
	}
	return PairKey{A: as, B: bs}
}

// PairSet is an exclusion set of canonical pairs (recency, blocks).
type PairSet map[PairKey]struct{}

func (s PairSet) Add(a, b uuid.UUID) {
	s[CanonicalPair(a, b)] = struct{}{}
}

func (s PairSet) Contains(a, b uuid.UUID) bool {
	_, ok := s[CanonicalPair(a, b)]
	return ok
}

// WeekStart returns the Monday of the week containing now, at midnight in the
// given zone. The zone falls back to UTC when it cannot be loaded.
func WeekStart(now time.Time, tz string) time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	weekday := int(local.Weekday())
	// time.Weekday puts Sunday at 0; the match week starts on Monday.
	offset := (weekday + 6) % 7
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -offset)
}
