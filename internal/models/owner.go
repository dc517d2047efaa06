package models

// Owner is the authenticated identity every persisted record is scoped to.
// The id is the token's subject claim; the backend keeps no user table of
// its own.
type Owner struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}
