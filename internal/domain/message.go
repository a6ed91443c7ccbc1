package domain

import "time"

type Message struct {
	ID              string    `json:"id"`
	BondID          string    `json:"pair_id"`
	SenderAddress   string    `json:"sender_address"`
	ReceiverAddress string    `json:"receiver_address"`
	Body            string    `json:"message"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}
