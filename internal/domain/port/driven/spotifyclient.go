package driven

import (
	"context"
	"errors"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/model"
)

// ErrTrackNotFound is returned when a Spotify search yields no results for a
// song, even after the album-qualified fallback query.
var ErrTrackNotFound = errors.New("spotify: track not found")

// ErrNotAuthenticated is returned when no Spotify refresh token is available;
// the user must run the login command first.
var ErrNotAuthenticated = errors.New("spotify: not authenticated, run the login command first")

// SpotifyClient defines the driven port for writing playlists to Spotify.
type SpotifyClient interface {
	// CurrentUserID returns the Spotify ID of the authorized user.
	CurrentUserID(ctx context.Context) (string, error)

	// CreatePlaylist creates an empty playlist owned by the authorized user
	// and returns its Spotify ID.
	CreatePlaylist(ctx context.Context, name string) (string, error)

	// FindTrack searches for a song and returns the Spotify track ID of the
	// best match. Returns ErrTrackNotFound when no match exists.
	FindTrack(ctx context.Context, song model.Song) (string, error)

	// AddTracks appends tracks to a playlist. Implementations split large
	// inputs into API-sized batches.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error
}
