package models

import "strings"

// UserProfile is the user record returned by the backend on login.
type UserProfile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `json:"is_active"`
	IsStaff   bool   `json:"is_staff"`
}

// FullName joins first and last name, trimming the gap when either is empty.
func (u UserProfile) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ProfileEdit carries the locally editable profile fields. Nil fields are left unchanged.
type ProfileEdit struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Username  *string `json:"username,omitempty"`
}
