package domain

import "strings"

var continents = []string{
	"Africa",
	"Antarctica",
	"Asia",
	"Europe",
	"North America",
	"Oceania",
	"South America",
}

// CanonicalContinent returns the canonical spelling of a continent name.
// An empty name is valid and returned as-is.
func CanonicalContinent(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	for _, c := range continents {
		if strings.EqualFold(c, name) {
			return c, nil
		}
	}
	return "", ErrInvalidContinent
}

func Continents() []string {
	out := make([]string, len(continents))
	copy(out, continents)
	return out
}
