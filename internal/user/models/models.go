package models

import (
	"time"

	id "dealroom/pkg/domain"
)

// User is a directory entry. Activities and emails resolve actors through it.
type User struct {
	ID        id.UserID
	Name      string
	Email     string
	Role      id.Role
	CreatedAt time.Time
}

// DisplayName falls back to the email local part, then to a role label.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		for i, r := range u.Email {
			if r == '@' {
				return u.Email[:i]
			}
		}
		return u.Email
	}
	if u.Role != "" {
		return string(u.Role)
	}
	return "unknown"
}
