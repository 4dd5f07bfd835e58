// Package domain contains core concepts of the chat system.
// This file defines the User entity: one row per distinct caller identity.
// No runtime, network, or storage logic should be added here.
package domain

// User holds the authorization and presence state of a participant.
// Name stays nil until the participant sets one.
type User struct {
	Identity   Identity
	Name       *string
	Online     bool
	Authorized bool
}

// WithOnline returns a copy of the row with only the presence flag changed.
func (u User) WithOnline(online bool) User {
	u.Online = online
	return u
}

// WithName returns a copy of the row with only the display name changed.
func (u User) WithName(name string) User {
	u.Name = &name
	return u
}

// DisplayName returns the name or the identity when none was set.
func (u User) DisplayName() string {
	if u.Name == nil {
		return u.Identity.String()
	}
	return *u.Name
}
