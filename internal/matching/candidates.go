package matching

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/matchweek-backend/internal/traits"
)

// PoolUser is one member of the eligible pool: survey completed, consented,
// not paused. Upstream filtering is the eligibility provider's job.
type PoolUser struct {
	UserID         uuid.UUID
	Profile        traits.Profile
	GenderIdentity string
	SeekingGenders []string
}

// Candidate is a scoreable pair that survived preference and exclusion
// filtering.
type Candidate struct {
	UserID        uuid.UUID
	MatchedUserID uuid.UUID
	ScoreTotal    float64
	Breakdown     Breakdown
}

// BuildCandidatePairs generates every unordered pair once, drops pairs in the
// recency or blocked sets, requires mutual gender-preference compatibility
// and scores the survivors.
func BuildCandidatePairs(users []PoolUser, cfg Config, recent, blocked PairSet) []Candidate {
	var candidates []Candidate
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			u, v := users[i], users[j]
			if recent.Contains(u.UserID, v.UserID) || blocked.Contains(u.UserID, v.UserID) {
				continue
			}
			if !genderPreferenceCompatible(u, v) {
				continue
			}
			score := Score(u.Profile, v.Profile, cfg)
			candidates = append(candidates, Candidate{
				UserID:        u.UserID,
				MatchedUserID: v.UserID,
				ScoreTotal:    score.ScoreTotal,
				Breakdown:     score.Breakdown,
			})
		}
	}
	return candidates
}

// genderPreferenceCompatible fails closed: a missing identity or an empty
// seeking set excludes the pair rather than admitting it.
func genderPreferenceCompatible(u, v PoolUser) bool {
	uGender := normalizeGender(u.GenderIdentity)
	vGender := normalizeGender(v.GenderIdentity)
	uSeeking := parseSeeking(u.SeekingGenders)
	vSeeking := parseSeeking(v.SeekingGenders)
	if uGender == "" || vGender == "" || len(uSeeking) == 0 || len(vSeeking) == 0 {
		return false
	}
	_, uWantsV := uSeeking[vGender]
	_, vWantsU := vSeeking[uGender]
	return uWantsV && vWantsU
}

func normalizeGender(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func parseSeeking(values []string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, v := range values {
		if g := normalizeGender(v); g != "" {
			out[g] = struct{}{}
		}
	}
	return out
}
