// Package model defines the data structures used throughout the application.
package model

// User represents a registered account.
//
// There is no password — each user receives an opaque secret Key at
// registration time, and that key authorizes every later mutation of the
// record. The key is returned exactly once (in the registration response)
// and never appears in any read view afterwards.
//
// WHY ID int AND NOT A STRING ID?
// User ids are assigned sequentially by the store (1, 2, 3, ...) and are
// part of the public API: clients look users up by numeric id or by
// username, and the lookup rule is "numeric → id, otherwise → username".
// A random string id (xid/uuid) would make that rule ambiguous.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`     // Display name, not unique
	Username string `json:"username"` // Unique across all users, case-sensitive
	Key      string `json:"key"`      // Secret credential, never exposed in views
}

// UserView is the public shape of a user — everything except the key.
type UserView struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// View returns the key-free public view of the user.
func (u *User) View() UserView {
	return UserView{ID: u.ID, Name: u.Name, Username: u.Username}
}

// UserPatch carries the updatable user fields.
//
// WHY POINTER FIELDS?
// A pointer distinguishes "field absent from the request" (nil) from "field
// present but empty" (&""). Only fields that were actually sent are applied;
// everything else in the request body — including attempts to change id or
// key — is ignored.
type UserPatch struct {
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
}
