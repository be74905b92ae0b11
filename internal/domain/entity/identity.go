package entity

// Identity is the resolved principal of a browser session. It is created on
// successful session resolution and destroyed on sign-out or a failed session
// check. Only the auth service writes it; everything else reads snapshots.
type Identity struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}
