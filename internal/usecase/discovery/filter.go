package discovery

import (
	"strings"

	"github.com/gdugdh24/ethospair-backend/internal/domain"
)

// Exclusions are the addresses removed before any criteria apply.
type Exclusions struct {
	Blocked map[string]struct{}
	Bonded  map[string]struct{}
}

// Filter applies the eligibility rules in order: self, blocked, bonded,
// visibility gate, preference gate, then the optional criteria. Input order
// is preserved.
func Filter(viewer *domain.Profile, candidates []*domain.Profile, ex Exclusions, criteria domain.Criteria, defaultMaxReputation int) []*domain.Profile {
	out := make([]*domain.Profile, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || c.Address == viewer.Address {
			continue
		}
		if _, ok := ex.Blocked[c.Address]; ok {
			continue
		}
		if _, ok := ex.Bonded[c.Address]; ok {
			continue
		}
		if !c.VisibleTo(viewer.Score) {
			continue
		}
		if !domain.PreferencesCompatible(viewer.GenderPreference, c.GenderPreference) {
			continue
		}
		if !MatchesCriteria(c, criteria, defaultMaxReputation) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// MatchesCriteria reports whether a candidate passes the UI filters. Empty
// criteria match everything.
func MatchesCriteria(c *domain.Profile, criteria domain.Criteria, defaultMaxReputation int) bool {
	if !containsFold(c.Location, criteria.Location) {
		return false
	}
	if !containsFold(c.Nationality, criteria.Nationality) {
		return false
	}
	if len(criteria.Interests) > 0 && !intersectsFold(c.Interests, criteria.Interests) {
		return false
	}
	if len(criteria.LookingFor) > 0 && !intersectsFold(c.LookingFor, criteria.LookingFor) {
		return false
	}
	if criteria.HasReputationRange() {
		lo, hi := 0, defaultMaxReputation
		if criteria.MinReputation != nil {
			lo = *criteria.MinReputation
		}
		if criteria.MaxReputation != nil {
			hi = *criteria.MaxReputation
		}
		if c.Score < lo || c.Score > hi {
			return false
		}
	}
	return true
}

func containsFold(value, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}

func intersectsFold(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[strings.ToLower(strings.TrimSpace(w))]; ok {
			return true
		}
	}
	return false
}
