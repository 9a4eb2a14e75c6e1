package matching

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/matchweek-backend/internal/traits"
)

var (
	m1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	m2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	w1 = uuid.MustParse("00000000-0000-0000-0000-000000000011")
	w2 = uuid.MustParse("00000000-0000-0000-0000-000000000012")
)

func poolUser(id uuid.UUID, gender string, seeking ...string) PoolUser {
	return PoolUser{
		UserID:         id,
		Profile:        &traits.ProfileV3{TraitsVersion: 3},
		GenderIdentity: gender,
		SeekingGenders: seeking,
	}
}

func heteroPool() []PoolUser {
	return []PoolUser{
		poolUser(m1, "man", "woman"),
		poolUser(m2, "man", "woman"),
		poolUser(w1, "woman", "man"),
		poolUser(w2, "woman", "man"),
	}
}

func candidate(a, b uuid.UUID, score float64) Candidate {
	return Candidate{UserID: a, MatchedUserID: b, ScoreTotal: score}
}

func defaultOpts() StableMatchOptions {
	return StableMatchOptions{
		MinScore:  0.60,
		TopK:      60,
		Mode:      ModeStableBipartiteIfPossible,
		WeekStart: time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
	}
}

func TestStableMatchBipartite(t *testing.T) {
	pairs := []Candidate{
		candidate(m1, w1, 0.90),
		candidate(m1, w2, 0.80),
		candidate(m2, w1, 0.85),
		candidate(m2, w2, 0.70),
	}
	got := StableMatch(heteroPool(), pairs, defaultOpts())
	if len(got) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(got))
	}

	matched := map[PairKey]bool{}
	for _, a := range got {
		matched[CanonicalPair(a.UserID, a.MatchedUserID)] = true
	}
	if !matched[CanonicalPair(m1, w1)] || !matched[CanonicalPair(m2, w2)] {
		t.Fatalf("unexpected assignment: %+v", got)
	}
}

func TestStableMatchNoBlockingPair(t *testing.T) {
	pairs := []Candidate{
		candidate(m1, w1, 0.72),
		candidate(m1, w2, 0.95),
		candidate(m2, w1, 0.88),
		candidate(m2, w2, 0.91),
	}
	got := StableMatch(heteroPool(), pairs, defaultOpts())

	score := map[PairKey]float64{}
	for _, p := range pairs {
		score[CanonicalPair(p.UserID, p.MatchedUserID)] = p.ScoreTotal
	}
	partner := map[uuid.UUID]uuid.UUID{}
	for _, a := range got {
		partner[a.UserID] = a.MatchedUserID
		partner[a.MatchedUserID] = a.UserID
	}

	// A blocking pair is two users who both score higher together than with
	// their assigned partners.
	for _, p := range pairs {
		u, v := p.UserID, p.MatchedUserID
		if partner[u] == v {
			continue
		}
		uCurrent := score[CanonicalPair(u, partner[u])]
		vCurrent := score[CanonicalPair(v, partner[v])]
		if p.ScoreTotal > uCurrent && p.ScoreTotal > vCurrent {
			t.Fatalf("blocking pair (%s,%s): %v beats %v and %v", u, v, p.ScoreTotal, uCurrent, vCurrent)
		}
	}
}

func TestStableMatchDeterministic(t *testing.T) {
	pairs := []Candidate{
		candidate(m1, w1, 0.80),
		candidate(m1, w2, 0.80),
		candidate(m2, w1, 0.80),
		candidate(m2, w2, 0.80),
	}
	first := StableMatch(heteroPool(), pairs, defaultOpts())
	for i := 0; i < 5; i++ {
		again := StableMatch(heteroPool(), pairs, defaultOpts())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestStableMatchMinScoreFilter(t *testing.T) {
	pairs := []Candidate{
		candidate(m1, w1, 0.59),
		candidate(m2, w2, 0.61),
	}
	got := StableMatch(heteroPool(), pairs, defaultOpts())
	if len(got) != 1 {
		t.Fatalf("expected one pair above min score, got %d", len(got))
	}
	if CanonicalPair(got[0].UserID, got[0].MatchedUserID) != CanonicalPair(m2, w2) {
		t.Fatalf("wrong surviving pair: %+v", got[0])
	}

	unmatched := UnmatchedUsers(heteroPool(), got)
	if len(unmatched) != 2 {
		t.Fatalf("expected 2 unmatched users, got %v", unmatched)
	}
}

func TestStableMatchGeneralPool(t *testing.T) {
	u1 := uuid.MustParse("00000000-0000-0000-0000-000000000021")
	u2 := uuid.MustParse("00000000-0000-0000-0000-000000000022")
	pool := []PoolUser{
		poolUser(u1, "woman", "woman"),
		poolUser(u2, "woman", "woman"),
	}
	pairs := []Candidate{candidate(u1, u2, 0.9)}

	got := StableMatch(pool, pairs, defaultOpts())
	if len(got) != 1 {
		t.Fatalf("expected one pair from general pool, got %d", len(got))
	}
	if CanonicalPair(got[0].UserID, got[0].MatchedUserID) != CanonicalPair(u1, u2) {
		t.Fatalf("wrong pair: %+v", got[0])
	}
}

func TestStableMatchGeneralPoolDeterministic(t *testing.T) {
	pool := make([]PoolUser, 0, 6)
	ids := make([]uuid.UUID, 0, 6)
	for i := 1; i <= 6; i++ {
		id := uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-00000000003%d", i))
		ids = append(ids, id)
		pool = append(pool, poolUser(id, "woman", "woman"))
	}
	// Ties and near-ties so the outcome depends on the deterministic
	// tie-break, not on input order.
	pairs := []Candidate{
		candidate(ids[0], ids[1], 0.90),
		candidate(ids[0], ids[2], 0.90),
		candidate(ids[1], ids[2], 0.90),
		candidate(ids[2], ids[3], 0.85),
		candidate(ids[3], ids[4], 0.85),
		candidate(ids[4], ids[5], 0.85),
		candidate(ids[1], ids[5], 0.80),
		candidate(ids[0], ids[5], 0.80),
	}

	first := StableMatch(pool, pairs, defaultOpts())
	if len(first) == 0 {
		t.Fatalf("expected pairs from general pool")
	}
	seen := map[uuid.UUID]bool{}
	for _, a := range first {
		if seen[a.UserID] || seen[a.MatchedUserID] {
			t.Fatalf("user matched twice: %+v", first)
		}
		seen[a.UserID] = true
		seen[a.MatchedUserID] = true
	}

	for i := 0; i < 10; i++ {
		again := StableMatch(pool, pairs, defaultOpts())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("general run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestStableMatchEmptyAndSingleton(t *testing.T) {
	if got := StableMatch(nil, nil, defaultOpts()); len(got) != 0 {
		t.Fatalf("empty pool should yield no pairs, got %+v", got)
	}
	single := []PoolUser{poolUser(m1, "man", "woman")}
	if got := StableMatch(single, nil, defaultOpts()); len(got) != 0 {
		t.Fatalf("singleton pool should yield no pairs, got %+v", got)
	}
	unmatched := UnmatchedUsers(single, nil)
	if len(unmatched) != 1 || unmatched[0] != m1 {
		t.Fatalf("singleton should be unmatched, got %v", unmatched)
	}
}

func TestStableHashEpsBounds(t *testing.T) {
	week := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	eps := stableHashEps(m1, w1, week)
	if eps < 0 || eps > 1e-6 {
		t.Fatalf("eps out of bounds: %v", eps)
	}
	if eps != stableHashEps(w1, m1, week) {
		t.Fatalf("eps must be order independent")
	}
}
