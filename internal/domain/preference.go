package domain

import "strings"

type Gender string

const (
	GenderMan      Gender = "man"
	GenderWoman    Gender = "woman"
	GenderEveryone Gender = "everyone"
)

// PreferenceCode is a "self-seeking" pair such as "man-woman".
type PreferenceCode struct {
	Self    Gender
	Seeking Gender
}

// ParsePreference decodes a preference code. The self part must be a concrete
// gender; the seeking part may also be the "everyone" wildcard.
func ParsePreference(code string) (PreferenceCode, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(code)), "-")
	if len(parts) != 2 {
		return PreferenceCode{}, ErrInvalidPreference
	}

	self, seeking := Gender(parts[0]), Gender(parts[1])
	if self != GenderMan && self != GenderWoman {
		return PreferenceCode{}, ErrInvalidPreference
	}
	switch seeking {
	case GenderMan, GenderWoman, GenderEveryone:
	default:
		return PreferenceCode{}, ErrInvalidPreference
	}

	return PreferenceCode{Self: self, Seeking: seeking}, nil
}

func (p PreferenceCode) String() string {
	return string(p.Self) + "-" + string(p.Seeking)
}

// Accepts reports whether someone of gender g is what p is looking for.
func (p PreferenceCode) Accepts(g Gender) bool {
	return p.Seeking == GenderEveryone || p.Seeking == g
}

// PreferencesCompatible is the mutual gender gate between a viewer and a
// candidate. The pair passes when the candidate accepts the viewer's gender
// and the viewer accepts the candidate's. A missing or undecodable code on
// either side lets the pair through.
func PreferencesCompatible(viewerCode, candidateCode string) bool {
	if strings.TrimSpace(viewerCode) == "" || strings.TrimSpace(candidateCode) == "" {
		return true
	}

	viewer, err := ParsePreference(viewerCode)
	if err != nil {
		return true
	}
	candidate, err := ParsePreference(candidateCode)
	if err != nil {
		return true
	}

	return candidate.Accepts(viewer.Self) && viewer.Accepts(candidate.Self)
}
