package models

import "time"

// UserData is the locally persisted login record. PINHash is a bcrypt hash
// captured at the last successful online login so the user can log in again
// while offline. Expiry gates offline logins, not queued sync: expired
// credentials only block new user actions.
type UserData struct {
	UserID       string    `json:"userID"`
	UserName     string    `json:"userName"`
	SiteID       string    `json:"siteID"`
	PINHash      []byte    `json:"pinHash"`
	LastAuthTime time.Time `json:"lastAuthTime"`
	Expiry       time.Time `json:"expiry"`
}

// Expired reports whether the stored credentials are past their expiry.
func (u UserData) Expired() bool {
	return !u.Expiry.IsZero() && time.Now().After(u.Expiry)
}
