package models

// User is the display projection of an account. Credentials and the
// signup/login flows live in the external auth subsystem; the server only
// stores the identity and what the UI needs to render a contact.
type User struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	Email      string `json:"email,omitempty"`
	ProfilePic string `json:"profilePic,omitempty"`
	CreatedAt  int64  `json:"createdAt,omitempty"`
}
