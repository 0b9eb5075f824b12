package driven

import (
	"context"
	"errors"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/model"
)

// ErrUnauthorized is returned when a Pandora request fails because the
// session is missing or rejected (failed login, expired auth token).
var ErrUnauthorized = errors.New("pandora: not authorized")

// PandoraClient defines the driven port for reading from the Pandora API.
type PandoraClient interface {
	// Login establishes a session for the configured account. It must be
	// called before any other method. Returns ErrUnauthorized when the
	// credentials are rejected.
	Login(ctx context.Context) error

	// ListStations returns the account's stations.
	ListStations(ctx context.Context) ([]model.Station, error)

	// ListLikedSongs returns every positively-rated song on the given station,
	// paging through the feedback endpoint as needed.
	ListLikedSongs(ctx context.Context, stationID string) ([]model.Song, error)
}
