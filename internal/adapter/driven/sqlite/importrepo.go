package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/model"
	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ImportStore = (*ImportRepo)(nil)

// ImportRepo is the SQLite implementation of the ImportStore port interface.
type ImportRepo struct {
	db *DB
}

// NewImportRepo creates a new ImportRepo backed by the given DB.
func NewImportRepo(db *DB) *ImportRepo {
	return &ImportRepo{db: db}
}

// Record inserts or replaces the ledger entry for (StationID, FeedbackID).
func (r *ImportRepo) Record(ctx context.Context, track model.ImportedTrack) error {
	const query = `
		INSERT INTO imported_tracks (station_id, feedback_id, title, artist, spotify_track_id, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id, feedback_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			spotify_track_id = excluded.spotify_track_id,
			status = excluded.status,
			imported_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		track.StationID, track.FeedbackID, track.Title, track.Artist,
		track.SpotifyTrackID, string(track.Status),
	)
	if err != nil {
		return fmt.Errorf("record import %s/%s: %w", track.StationID, track.FeedbackID, err)
	}
	return nil
}

// Get retrieves the ledger entry for a song. Returns nil, nil if absent.
func (r *ImportRepo) Get(ctx context.Context, stationID, feedbackID string) (*model.ImportedTrack, error) {
	const query = `
		SELECT id, station_id, feedback_id, title, artist, spotify_track_id, status, imported_at
		FROM imported_tracks
		WHERE station_id = ? AND feedback_id = ?
	`

	track, err := scanImportedTrack(r.db.Reader.QueryRowContext(ctx, query, stationID, feedbackID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get import %s/%s: %w", stationID, feedbackID, err)
	}
	return track, nil
}

// ListByStation returns all ledger entries for a station ordered by feedback ID.
func (r *ImportRepo) ListByStation(ctx context.Context, stationID string) ([]model.ImportedTrack, error) {
	const query = `
		SELECT id, station_id, feedback_id, title, artist, spotify_track_id, status, imported_at
		FROM imported_tracks
		WHERE station_id = ?
		ORDER BY feedback_id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, fmt.Errorf("list imports for station %s: %w", stationID, err)
	}
	defer rows.Close()

	var tracks []model.ImportedTrack
	for rows.Next() {
		track, err := scanImportedTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		tracks = append(tracks, *track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate imports: %w", err)
	}

	return tracks, nil
}

// CountByStatus returns the number of ledger entries per match status for a station.
func (r *ImportRepo) CountByStatus(ctx context.Context, stationID string) (map[model.MatchStatus]int, error) {
	const query = `
		SELECT status, COUNT(*)
		FROM imported_tracks
		WHERE station_id = ?
		GROUP BY status
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, fmt.Errorf("count imports for station %s: %w", stationID, err)
	}
	defer rows.Close()

	counts := make(map[model.MatchStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan import count: %w", err)
		}
		counts[model.MatchStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import counts: %w", err)
	}

	return counts, nil
}

func scanImportedTrack(s scanner) (*model.ImportedTrack, error) {
	var track model.ImportedTrack
	var status, importedAt string

	if err := s.Scan(
		&track.ID, &track.StationID, &track.FeedbackID, &track.Title, &track.Artist,
		&track.SpotifyTrackID, &status, &importedAt,
	); err != nil {
		return nil, err
	}

	track.Status = model.MatchStatus(status)

	var err error
	if track.ImportedAt, err = parseTime(importedAt); err != nil {
		return nil, fmt.Errorf("parse imported_at: %w", err)
	}

	return &track, nil
}
