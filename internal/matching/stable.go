package matching

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ReasonNoCandidate is the machine-readable reason attached to users the
// engine could not place.
const ReasonNoCandidate = "below_min_score_or_no_candidate"

type StableMatchOptions struct {
	MinScore  float64
	TopK      int
	Mode      Mode
	WeekStart time.Time
}

// StableMatch turns scored candidate pairs into a conflict-free 1:1
// assignment. A cleanly two-sided pool goes through deferred acceptance; any
// other pool goes through symmetric proposal rounds with mutual acceptance.
// The engine is deterministic for fixed input and never errors on an empty or
// singleton pool.
func StableMatch(users []PoolUser, pairs []Candidate, opts StableMatchOptions) []Candidate {
	pairMap := map[PairKey]Candidate{}
	for _, p := range pairs {
		pairMap[CanonicalPair(p.UserID, p.MatchedUserID)] = p
	}

	prefs := buildPreferenceLists(users, pairs, opts)

	var chosen []PairKey
	if opts.Mode == ModeStableBipartiteIfPossible && isBipartiteHeteroPool(users) {
		chosen = stableBipartiteMatch(users, prefs)
	} else {
		chosen = stableGeneralMatch(users, prefs)
	}

	var assignments []Candidate
	for _, key := range chosen {
		p, ok := pairMap[key]
		// Preference lists were already filtered by MinScore; the re-check
		// guards the invariant independently of list construction.
		if !ok || p.ScoreTotal < opts.MinScore {
			continue
		}
		assignments = append(assignments, p)
	}
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].ScoreTotal != assignments[j].ScoreTotal {
			return assignments[i].ScoreTotal > assignments[j].ScoreTotal
		}
		if assignments[i].UserID.String() != assignments[j].UserID.String() {
			return assignments[i].UserID.String() < assignments[j].UserID.String()
		}
		return assignments[i].MatchedUserID.String() < assignments[j].MatchedUserID.String()
	})
	return assignments
}

// UnmatchedUsers returns the pool members absent from the chosen assignments.
func UnmatchedUsers(users []PoolUser, assignments []Candidate) []uuid.UUID {
	placed := map[uuid.UUID]struct{}{}
	for _, a := range assignments {
		placed[a.UserID] = struct{}{}
		placed[a.MatchedUserID] = struct{}{}
	}
	var out []uuid.UUID
	for _, u := range users {
		if _, ok := placed[u.UserID]; !ok {
			out = append(out, u.UserID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// stableHashEps derives a tiny deterministic offset from the pair and week so
// equal scores acquire a strict, reproducible order without real bias.
func stableHashEps(a, b uuid.UUID, week time.Time) float64 {
	key := CanonicalPair(a, b)
	payload := fmt.Sprintf("%s|%s|%s", key.A, key.B, week.Format("2006-01-02"))
	sum := sha256.Sum256([]byte(payload))
	hexed := hex.EncodeToString(sum[:])
	x, _ := strconv.ParseUint(hexed[:12], 16, 64)
	return float64(x) / float64(uint64(1)<<48) * 1e-6
}

func buildPreferenceLists(users []PoolUser, pairs []Candidate, opts StableMatchOptions) map[uuid.UUID][]uuid.UUID {
	type ranked struct {
		other uuid.UUID
		score float64
	}
	byUser := map[uuid.UUID][]ranked{}
	for _, u := range users {
		byUser[u.UserID] = nil
	}
	for _, p := range pairs {
		if p.ScoreTotal < opts.MinScore {
			continue
		}
		score := p.ScoreTotal + stableHashEps(p.UserID, p.MatchedUserID, opts.WeekStart)
		byUser[p.UserID] = append(byUser[p.UserID], ranked{other: p.MatchedUserID, score: score})
		byUser[p.MatchedUserID] = append(byUser[p.MatchedUserID], ranked{other: p.UserID, score: score})
	}

	prefs := make(map[uuid.UUID][]uuid.UUID, len(byUser))
	for uid, vals := range byUser {
		sort.Slice(vals, func(i, j int) bool {
			if vals[i].score != vals[j].score {
				return vals[i].score > vals[j].score
			}
			return vals[i].other.String() < vals[j].other.String()
		})
		limit := len(vals)
		if opts.TopK > 0 && opts.TopK < limit {
			limit = opts.TopK
		}
		list := make([]uuid.UUID, 0, limit)
		for _, r := range vals[:limit] {
			list = append(list, r.other)
		}
		prefs[uid] = list
	}
	return prefs
}

// isBipartiteHeteroPool reports whether the pool partitions cleanly into two
// preference-disjoint sides, which is the precondition for classic deferred
// acceptance.
func isBipartiteHeteroPool(users []PoolUser) bool {
	for _, u := range users {
		g := normalizeGender(u.GenderIdentity)
		seeking := parseSeeking(u.SeekingGenders)
		switch g {
		case "man":
			if len(seeking) != 1 {
				return false
			}
			if _, ok := seeking["woman"]; !ok {
				return false
			}
		case "woman":
			if len(seeking) != 1 {
				return false
			}
			if _, ok := seeking["man"]; !ok {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// stableBipartiteMatch runs Gale-Shapley deferred acceptance with men as the
// proposing side. The result is stable: no blocking pair exists.
func stableBipartiteMatch(users []PoolUser, prefs map[uuid.UUID][]uuid.UUID) []PairKey {
	var men, women []uuid.UUID
	for _, u := range users {
		switch normalizeGender(u.GenderIdentity) {
		case "man":
			men = append(men, u.UserID)
		case "woman":
			women = append(women, u.UserID)
		}
	}
	sort.Slice(men, func(i, j int) bool { return men[i].String() < men[j].String() })

	womenRank := map[uuid.UUID]map[uuid.UUID]int{}
	for _, w := range women {
		rank := map[uuid.UUID]int{}
		for i, m := range prefs[w] {
			rank[m] = i
		}
		womenRank[w] = rank
	}

	free := append([]uuid.UUID(nil), men...)
	nextIdx := map[uuid.UUID]int{}
	engagedTo := map[uuid.UUID]uuid.UUID{} // woman -> man

	for len(free) > 0 {
		m := free[0]
		free = free[1:]
		list := prefs[m]
		if nextIdx[m] >= len(list) {
			continue
		}
		w := list[nextIdx[m]]
		nextIdx[m]++
		rank, isWoman := womenRank[w]
		if !isWoman {
			free = append(free, m)
			continue
		}
		current, engaged := engagedTo[w]
		if !engaged {
			engagedTo[w] = m
			continue
		}
		mRank, mListed := rank[m]
		curRank, curListed := rank[current]
		if mListed && (!curListed || mRank < curRank) {
			engagedTo[w] = m
			free = append(free, current)
		} else {
			free = append(free, m)
		}
	}

	var out []PairKey
	for w, m := range engagedTo {
		out = append(out, CanonicalPair(m, w))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// stableGeneralMatch approximates stability without assuming a bipartite
// pool: every unmatched user proposes down their list, holders keep the
// best-ranked proposer seen, and only mutually accepted pairs are emitted.
// Best-effort by design; it is not a proven stable-roommates solver.
func stableGeneralMatch(users []PoolUser, prefs map[uuid.UUID][]uuid.UUID) []PairKey {
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	rankOf := func(of, candidate uuid.UUID) int {
		for i, c := range prefs[of] {
			if c == candidate {
				return i
			}
		}
		return int(^uint(0) >> 1)
	}

	nextIdx := map[uuid.UUID]int{}
	heldBy := map[uuid.UUID]uuid.UUID{} // accepter -> proposer

	active := true
	for active {
		active = false
		for _, proposer := range ids {
			list := prefs[proposer]
			if nextIdx[proposer] >= len(list) {
				continue
			}
			active = true
			target := list[nextIdx[proposer]]
			nextIdx[proposer]++
			current, holding := heldBy[target]
			if !holding {
				heldBy[target] = proposer
				continue
			}
			if rankOf(target, proposer) < rankOf(target, current) {
				heldBy[target] = proposer
			}
		}
	}

	targets := make([]uuid.UUID, 0, len(heldBy))
	for t := range heldBy {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].String() < targets[j].String() })

	used := map[uuid.UUID]struct{}{}
	seen := map[PairKey]struct{}{}
	var out []PairKey
	for _, target := range targets {
		proposer := heldBy[target]
		if _, ok := used[proposer]; ok {
			continue
		}
		if _, ok := used[target]; ok {
			continue
		}
		mutual := heldBy[proposer] == target || rankOf(proposer, target) < int(^uint(0)>>1)
		if !mutual {
			continue
		}
		key := CanonicalPair(proposer, target)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		used[proposer] = struct{}{}
		used[target] = struct{}{}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}
