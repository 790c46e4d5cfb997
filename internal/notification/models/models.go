package models

import (
	"time"

	id "dealroom/pkg/domain"
)

// Kind groups notifications by the subsystem that raised them.
type Kind string

const (
	KindNDA  Kind = "nda"
	KindDeal Kind = "deal"
)

// Notification is an in-app notice for one user.
type Notification struct {
	ID        id.NotificationID
	UserID    id.UserID
	Type      Kind
	Title     string
	Body      string
	Link      string
	ReadAt    *time.Time
	CreatedAt time.Time
}

// Payload is what a sender supplies. In-app delivery always happens; Email
// additionally queues a message to the recipient's directory address.
type Payload struct {
	Title string
	Body  string
	Link  string
	Email bool
}
