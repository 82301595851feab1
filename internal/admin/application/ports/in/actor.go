package in

// Actor is the authenticated caller as supplied by the auth layer.
type Actor struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"is_admin"`
}
