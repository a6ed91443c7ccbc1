package domain

import "time"

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusDeclined RequestStatus = "declined"
)

// PairRequest is a directed proposal to bond. Rows are never deleted by the
// lifecycle, only moved out of pending.
type PairRequest struct {
	ID          string        `json:"id"`
	FromAddress string        `json:"from_address"`
	ToAddress   string        `json:"to_address"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
}

func (r *PairRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

func (r *PairRequest) Involves(address string) bool {
	return r.FromAddress == address || r.ToAddress == address
}
