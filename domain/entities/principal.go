package entities

import "time"

// Principal is the authenticated identity behind one request. It is built
// by the session verifier from a valid bearer token and is never persisted.
type Principal struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}
