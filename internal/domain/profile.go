package domain

import (
	"strings"
	"time"
)

// Stats are the aggregate review and vouch counters reported by the
// reputation network.
type Stats struct {
	ReviewsReceived int `json:"reviews_received"`
	ReviewsGiven    int `json:"reviews_given"`
	VouchesReceived int `json:"vouches_received"`
	VouchesGiven    int `json:"vouches_given"`
}

// Reputation is the externally sourced trust data cached on a profile.
type Reputation struct {
	Score           int     `json:"ethos_score"`
	TrustLevel      string  `json:"trust_level"`
	TrustLevelColor *string `json:"trust_level_color,omitempty"`
	Stats           Stats   `json:"stats"`
	XPTotal         int     `json:"xp_total"`
}

const DefaultTrustLevel = "untrusted"

// Identity is what the reputation gateway knows about an address.
type Identity struct {
	Address     string `json:"address"`
	AvatarURL   string `json:"avatar_url"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Reputation
}

type Profile struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url"`
	Description string `json:"description"`

	Location         string   `json:"location"`
	Nationality      string   `json:"nationality"`
	Continent        string   `json:"continent"`
	Interests        []string `json:"interests"`
	LookingFor       []string `json:"looking_for"`
	GenderPreference string   `json:"gender_preference"`
	MinVisibleScore  int      `json:"min_visible_to_ethos_score"`

	Reputation

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyReputation overwrites the cached reputation fields with fresh gateway
// data. A zero XP total from the gateway keeps the cached value.
func (p *Profile) ApplyReputation(rep Reputation) {
	xp := p.XPTotal
	p.Reputation = rep
	if rep.XPTotal == 0 {
		p.XPTotal = xp
	}
	if p.TrustLevel == "" {
		p.TrustLevel = DefaultTrustLevel
	}
}

// VisibleTo reports whether a viewer with the given score passes this
// profile's visibility gate.
func (p *Profile) VisibleTo(viewerScore int) bool {
	return viewerScore >= p.MinVisibleScore
}

// NormalizeTags trims tags, drops empty ones and removes case-insensitive
// duplicates. Order is kept.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
