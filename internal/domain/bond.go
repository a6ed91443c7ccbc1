package domain

import "time"

// Bond is a confirmed symmetric pairing. Members are stored ordered so that
// User1Address < User2Address.
type Bond struct {
	ID           string    `json:"id"`
	User1Address string    `json:"user1_address"`
	User2Address string    `json:"user2_address"`
	Icebreakers  []string  `json:"icebreakers,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// OrderMembers returns the two addresses in storage order.
func OrderMembers(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

func (b *Bond) HasMember(address string) bool {
	return b.User1Address == address || b.User2Address == address
}

func (b *Bond) Counterpart(address string) (string, bool) {
	if b.User1Address == address {
		return b.User2Address, true
	}
	if b.User2Address == address {
		return b.User1Address, true
	}
	return "", false
}

// BlockRecord is a directional suppression of one profile by another.
type BlockRecord struct {
	ID             string    `json:"id"`
	BlockerAddress string    `json:"blocker_address"`
	BlockedAddress string    `json:"blocked_address"`
	CreatedAt      time.Time `json:"created_at"`
}
