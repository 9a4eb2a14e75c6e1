// Package reconcile carries survey answers forward across definition
// revisions. Reconcile is pure: persistence of the resulting state is the
// caller's concern, keyed by (user, slug, current hash).
package reconcile

import (
	"sort"

	"github.com/yungbote/matchweek-backend/internal/survey"
)

// Revision is a published definition plus its derived fingerprint and
// question index, precomputed once and threaded through every call; there is
// no ambient definition cache.
type Revision struct {
	Definition  *survey.Definition
	Fingerprint survey.Fingerprint
	Index       survey.QuestionIndex
}

func NewRevision(def *survey.Definition) Revision {
	return Revision{
		Definition:  def,
		Fingerprint: survey.ComputeFingerprint(def),
		Index:       survey.BuildQuestionIndex(def),
	}
}

// PriorResponse is a user's most recent response set and what is known about
// the definition it was answered against.
type PriorResponse struct {
	Answers       map[string]any
	SurveyHash    string
	SurveyVersion int
}

type Report struct {
	CarriedForward   []string       `json:"carried_forward"`
	ChangedSemantics []string       `json:"changed_semantics"`
	NewQuestions     []string       `json:"new_questions"`
	Counts           map[string]int `json:"counts"`
}

// State is the outcome of reconciling one user against the current revision.
type State struct {
	SurveySlug    string         `json:"survey_slug"`
	CurrentHash   string         `json:"current_survey_hash"`
	SourceHash    string         `json:"source_survey_hash,omitempty"`
	SourceVersion int            `json:"source_survey_version,omitempty"`
	Answers       map[string]any `json:"answers_current"`
	Missing       []string       `json:"missing_question_ids"`
	NeedsRetake   bool           `json:"needs_retake"`
	Report        Report         `json:"migration_report"`
}

// Reconcile walks the current revision's questions and carries forward every
// prior answer whose semantics are unchanged. The source definition is
// inferred by hash, then by version, then by maximum question-code overlap.
// Missing is computed against the currently visible required subset only.
func Reconcile(current Revision, prior *PriorResponse, history []Revision) State {
	state := State{
		SurveySlug:  current.Fingerprint.Slug,
		CurrentHash: current.Fingerprint.Hash,
		Answers:     map[string]any{},
	}

	var priorAnswers map[string]any
	if prior != nil {
		priorAnswers = prior.Answers
	}

	source, sourceFound := locateSource(prior, history)
	if sourceFound {
		state.SourceHash = source.Fingerprint.Hash
		state.SourceVersion = source.Fingerprint.Version
	} else if prior != nil {
		state.SourceHash = prior.SurveyHash
		state.SourceVersion = prior.SurveyVersion
	}

	var carried, changed, added []string
	if prior == nil {
		added = current.Index.RequiredCodes()
	} else {
		sameSurvey := state.SourceHash != "" && state.SourceHash == current.Fingerprint.Hash
		for code, entry := range current.Index {
			old, answered := priorAnswers[code]
			if !answered {
				added = append(added, code)
				continue
			}
			oldEntry, known := source.Index[code]
			switch {
			case sourceFound && known && oldEntry.SemanticsHash == entry.SemanticsHash:
				state.Answers[code] = old
				carried = append(carried, code)
			case sameSurvey:
				state.Answers[code] = old
				carried = append(carried, code)
			default:
				changed = append(changed, code)
			}
		}
	}

	state.Missing = survey.MissingRequired(current.Definition, state.Answers)
	state.NeedsRetake = len(state.Missing) > 0

	sort.Strings(carried)
	sort.Strings(changed)
	sort.Strings(added)
	state.Report = Report{
		CarriedForward:   carried,
		ChangedSemantics: changed,
		NewQuestions:     added,
		Counts: map[string]int{
			"old_answers":       len(priorAnswers),
			"carried_forward":   len(carried),
			"missing_required":  len(state.Missing),
			"changed_semantics": len(changed),
			"new_questions":     len(added),
		},
	}
	return state
}

// locateSource picks the definition the prior answers were given against.
func locateSource(prior *PriorResponse, history []Revision) (Revision, bool) {
	if prior == nil {
		return Revision{}, false
	}
	if prior.SurveyHash != "" {
		for _, rev := range history {
			if rev.Fingerprint.Hash == prior.SurveyHash {
				return rev, true
			}
		}
	}
	if prior.SurveyVersion > 0 {
		for _, rev := range history {
			if rev.Fingerprint.Version == prior.SurveyVersion {
				return rev, true
			}
		}
	}
	// Last resort: the revision sharing the most question codes with the
	// answers.
	best := Revision{}
	bestOverlap := -1
	for _, rev := range history {
		overlap := 0
		for code := range prior.Answers {
			if _, ok := rev.Index[code]; ok {
				overlap++
			}
		}
		if len(rev.Index) > 0 && overlap > bestOverlap {
			best = rev
			bestOverlap = overlap
		}
	}
	if bestOverlap >= 0 {
		return best, true
	}
	return Revision{}, false
}

// ApplyPatch merges new answers into an existing state and recomputes the
// missing set without a fresh full reconciliation pass.
func ApplyPatch(state State, patch map[string]any, current Revision) State {
	merged := make(map[string]any, len(state.Answers)+len(patch))
	for k, v := range state.Answers {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	next := state
	next.Answers = merged
	next.Missing = survey.MissingRequired(current.Definition, merged)
	next.NeedsRetake = len(next.Missing) > 0
	return next
}

// CompletionPct is the share of currently visible required questions with a
// usable answer, in percent rounded to two decimals.
func CompletionPct(state State, current Revision) float64 {
	visible := survey.VisibleRequired(current.Definition, state.Answers)
	total := len(visible)
	if total == 0 {
		return 100.0
	}
	answered := 0
	for code := range visible {
		if survey.Answered(state.Answers[code]) {
			answered++
		}
	}
	pct := float64(answered) / float64(total) * 100.0
	return float64(int(pct*100+0.5)) / 100
}
