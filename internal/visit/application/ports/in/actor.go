package in

// Actor is the authenticated caller as supplied by the auth layer. The
// engine trusts this identity and only checks what it is allowed to do.
type Actor struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"is_admin"`
}
