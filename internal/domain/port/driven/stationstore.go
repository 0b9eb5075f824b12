package driven

import (
	"context"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/model"
)

// StationStore defines the driven port for station persistence.
type StationStore interface {
	// Upsert inserts or updates a station by its Pandora ID. The stored
	// Spotify playlist mapping is preserved across upserts.
	Upsert(ctx context.Context, station model.Station) error

	// Get retrieves a station by Pandora ID. Returns nil, nil if absent.
	Get(ctx context.Context, pandoraID string) (*model.Station, error)

	// ListAll returns all known stations ordered by name.
	ListAll(ctx context.Context) ([]model.Station, error)

	// SetPlaylistID records the Spotify playlist created for a station.
	SetPlaylistID(ctx context.Context, pandoraID, playlistID string) error
}
