package domain

import "time"

// Comment is a user comment on a project. Author is populated on reads.
type Comment struct {
	ID        string
	ProjectID string
	UserID    string
	Text      string
	CreatedAt time.Time
	Author    User
}
