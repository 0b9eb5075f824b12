package model

import "time"

// Credential holds a stored secret for an external service, e.g. the Spotify
// refresh token. Values are encrypted at rest by the adapter layer; this
// struct carries plaintext at the domain boundary.
type Credential struct {
	ID        int64
	Service   string
	Value     string
	UpdatedAt time.Time
}
