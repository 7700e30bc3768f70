package models

import "time"

// LoginResult is the body of a successful backend login.
type LoginResult struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}

// SessionView is what the UI reads to render navigation and account state.
type SessionView struct {
	LoggedIn  bool         `json:"logged_in"`
	Expired   bool         `json:"expired"`
	User      *UserProfile `json:"user,omitempty"`
	LoginTime *time.Time   `json:"login_time,omitempty"`
}

type CartIdentity struct {
	CartCode string `json:"cart_code"`
}

type Preferences struct {
	DarkMode bool `json:"dark_mode"`
}
