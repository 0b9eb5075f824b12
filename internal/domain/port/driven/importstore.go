package driven

import (
	"context"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/model"
)

// ImportStore defines the driven port for the import ledger. The ledger is
// what makes sync runs idempotent: a song recorded as matched is never
// imported again, while not_found songs are retried on later runs.
type ImportStore interface {
	// Record inserts or replaces the ledger entry for (StationID, FeedbackID).
	Record(ctx context.Context, track model.ImportedTrack) error

	// Get retrieves the ledger entry for a song. Returns nil, nil if absent.
	Get(ctx context.Context, stationID, feedbackID string) (*model.ImportedTrack, error)

	// ListByStation returns all ledger entries for a station.
	ListByStation(ctx context.Context, stationID string) ([]model.ImportedTrack, error)

	// CountByStatus returns the number of ledger entries per match status
	// for a station.
	CountByStatus(ctx context.Context, stationID string) (map[model.MatchStatus]int, error)
}
