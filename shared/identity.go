package shared

// Identity is the normalized caller principal derived from a verified
// token: either a registered user or a guest session. It is never
// persisted; for guests ID aliases the GuestSession id.
type Identity struct {
	ID        string
	Kind      string
	SessionID string
	Email     string
	Username  string
}

func (i Identity) IsGuest() bool {
	return i.Kind == KindGuest
}

func (i Identity) DisplayName() string {
	if i.Username != "" {
		return i.Username
	}
	return i.Email
}
