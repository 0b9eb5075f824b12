package model

import "time"

// ImportedTrack is a ledger entry recording the result of importing one
// Pandora song into Spotify. The (StationID, FeedbackID) pair is unique;
// re-running a sync upserts the same row rather than importing twice.
type ImportedTrack struct {
	ID             int64
	StationID      string
	FeedbackID     string
	Title          string
	Artist         string
	SpotifyTrackID string
	Status         MatchStatus
	ImportedAt     time.Time
}
