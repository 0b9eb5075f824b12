package model

import "time"

// Station represents a Pandora station owned by the configured account.
type Station struct {
	ID                int64
	PandoraID         string
	Name              string
	LikedSongCount    int
	SpotifyPlaylistID string
	AddedAt           time.Time
	UpdatedAt         time.Time
}

// HasPlaylist reports whether a Spotify playlist has already been created
// for this station.
func (s Station) HasPlaylist() bool {
	return s.SpotifyPlaylistID != ""
}
