package domain

import "time"

type ReceivedRequest struct {
	*PairRequest
	FromProfile *Profile `json:"from_profile"`
}

type SentRequest struct {
	*PairRequest
	ToProfile *Profile `json:"to_profile"`
}

// BondSummary is a bond as seen by one of its members.
type BondSummary struct {
	*Bond
	Profile         *Profile   `json:"profile"`
	LastMessage     *string    `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time"`
	UnreadCount     int        `json:"unread_count"`
}

// LastActivity is the sort key for bond lists. Bonds without messages sort
// as the zero time.
func (s *BondSummary) LastActivity() time.Time {
	if s.LastMessageTime == nil {
		return time.Time{}
	}
	return *s.LastMessageTime
}

// Overview is the full bonding view model for one viewer.
type Overview struct {
	ReceivedRequests []*ReceivedRequest `json:"received_requests"`
	SentRequests     []*SentRequest     `json:"sent_requests"`
	ActiveBonds      []*BondSummary     `json:"active_bonds"`
}
