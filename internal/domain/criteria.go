package domain

// Criteria are the optional discovery filters chosen in the UI.
type Criteria struct {
	Location      string   `form:"location" validate:"max=100"`
	Nationality   string   `form:"nationality" validate:"max=100"`
	Interests     []string `form:"interests" validate:"max=20,dive,max=50"`
	LookingFor    []string `form:"looking_for" validate:"max=10,dive,max=50"`
	MinReputation *int     `form:"min_reputation" validate:"omitempty,min=0"`
	MaxReputation *int     `form:"max_reputation" validate:"omitempty,min=0"`
}

// HasReputationRange reports whether either bound was supplied.
func (c Criteria) HasReputationRange() bool {
	return c.MinReputation != nil || c.MaxReputation != nil
}

// RangeValid reports whether a supplied reputation range is not inverted.
func (c Criteria) RangeValid() bool {
	if c.MinReputation == nil || c.MaxReputation == nil {
		return true
	}
	return *c.MinReputation <= *c.MaxReputation
}
