package models

import (
	"time"

	id "dealroom/pkg/domain"
)

// Message is one entry in a listing-scoped thread between two users.
type Message struct {
	ID          id.MessageID
	ListingID   id.ListingID
	SenderID    id.UserID
	RecipientID id.UserID
	Body        string
	CreatedAt   time.Time
}

// Involves reports whether userID is a party to the message.
func (m *Message) Involves(userID id.UserID) bool {
	return m.SenderID == userID || m.RecipientID == userID
}
