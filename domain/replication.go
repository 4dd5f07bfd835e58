package domain

import "time"

// UserChange describes a User row written by a committed transaction.
// Previous is nil when the row was inserted.
type UserChange struct {
	Previous *User
	Current  User
}

// AuthorizationChanged reports whether the commit flipped the authorized flag.
func (c UserChange) AuthorizationChanged() bool {
	return c.Previous != nil && c.Previous.Authorized != c.Current.Authorized
}

// Commit is the set of rows written by one successful transaction.
type Commit struct {
	Timestamp time.Time
	Users     []UserChange
	Messages  []Message
}

func (c Commit) IsEmpty() bool {
	return len(c.Users) == 0 && len(c.Messages) == 0
}

// Update is what a single observer receives after visibility filtering.
// When ResetMessages is set, Messages replaces the observer's whole feed.
type Update struct {
	Users         []User
	Messages      []Message
	ResetMessages bool
}

func (u Update) IsEmpty() bool {
	return len(u.Users) == 0 && len(u.Messages) == 0 && !u.ResetMessages
}
