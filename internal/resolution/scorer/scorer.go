// Package scorer assigns confidence to match candidates and ranks them.
// Scoring is pure and deterministic: the same candidates always produce the
// same scores and order.
package scorer

import (
	"bytes"
	"slices"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
)

const (
	// DefaultThreshold is the minimum confidence applied to a visitor.
	DefaultThreshold = 60

	// CorroborationBonus is added per extra match type supporting a candidate.
	CorroborationBonus = 5

	// MaxScoredConfidence keeps scored matches below a manual override.
	MaxScoredConfidence = 99
)

// Score sets MatchType and Confidence on a candidate from its matched fields.
//
// The canonical match type is the highest-priority type among the fields.
// Confidence is that type's base plus CorroborationBonus per additional
// distinct match type, capped at MaxScoredConfidence. Manual overrides score
// exactly 100.
func Score(c models.MatchCandidate) models.MatchCandidate {
	types := c.MatchTypes()
	if len(types) == 0 {
		c.MatchType = id.MatchTypeNone
		c.Confidence = 0
		return c
	}
	slices.SortFunc(types, func(a, b id.MatchType) int {
		return a.Priority() - b.Priority()
	})

	c.MatchType = types[0]
	if c.MatchType == id.MatchTypeManualOverride {
		c.Confidence = id.MatchTypeManualOverride.BaseConfidence()
		return c
	}
	c.Confidence = min(c.MatchType.BaseConfidence()+CorroborationBonus*(len(types)-1), MaxScoredConfidence)
	return c
}

// ScoreAll scores every candidate and returns them ranked.
func ScoreAll(candidates []models.MatchCandidate) []models.MatchCandidate {
	out := make([]models.MatchCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = Score(c)
	}
	Rank(out)
	return out
}

// Rank sorts candidates best first: confidence, then match type priority,
// then most recently seen entity, then entity id. The order is total.
func Rank(candidates []models.MatchCandidate) {
	slices.SortStableFunc(candidates, Compare)
}

// Compare orders two candidates for Rank. It returns a negative number when
// a ranks before b.
func Compare(a, b models.MatchCandidate) int {
	if a.Confidence != b.Confidence {
		return b.Confidence - a.Confidence
	}
	if pa, pb := a.MatchType.Priority(), b.MatchType.Priority(); pa != pb {
		return pa - pb
	}
	if !a.LastSeenAt.Equal(b.LastSeenAt) {
		if a.LastSeenAt.After(b.LastSeenAt) {
			return -1
		}
		return 1
	}
	if a.EntityType != b.EntityType {
		if a.EntityType < b.EntityType {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.EntityID[:], b.EntityID[:])
}

// Best returns the top-ranked candidate of the given entity type from a
// ranked slice.
func Best(ranked []models.MatchCandidate, t models.EntityType) (models.MatchCandidate, bool) {
	for _, c := range ranked {
		if c.EntityType == t {
			return c, true
		}
	}
	return models.MatchCandidate{}, false
}
