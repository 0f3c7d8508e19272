package core

// Identity is the active user context used as the storage partition key.
// The zero value is the anonymous local identity.
type Identity struct {
	userID string
}

// Anonymous returns the unauthenticated local identity.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns the identity for a signed-in user. An empty id
// degrades to the anonymous identity.
func Authenticated(userID string) Identity {
	return Identity{userID: userID}
}

func (i Identity) IsAuthenticated() bool {
	return i.userID != ""
}

// UserID returns the remote user id, or the empty string for anonymous.
func (i Identity) UserID() string {
	return i.userID
}

// StorageKey returns the local persistence partition key for this identity.
func (i Identity) StorageKey() string {
	if i.userID == "" {
		return "local-guest"
	}
	return i.userID
}
