package domain

import "time"

// User represents a portal account.
type User struct {
	ID           string
	Email        string
	Name         string
	Course       string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Profile is the outward-facing view of a user. It never carries the
// password hash.
type Profile struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Course string `json:"course"`
}

// Profile returns the public projection of the user.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, Name: u.Name, Course: u.Course}
}
