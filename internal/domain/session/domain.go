package session

import "time"

// Record backs a live refresh token. Records are immutable once stored.
type Record struct {
	Token          string
	OwnerID        string
	ClientIdentity string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// Live reports whether the record is still usable at now. Presence in the
// store alone says nothing: expired rows may linger until the sweeper runs.
func (r *Record) Live(now time.Time) bool {
	return r != nil && r.ExpiresAt.After(now)
}
