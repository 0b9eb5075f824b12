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
var _ driven.StationStore = (*StationRepo)(nil)

// StationRepo is the SQLite implementation of the StationStore port interface.
type StationRepo struct {
	db *DB
}

// NewStationRepo creates a new StationRepo backed by the given DB.
func NewStationRepo(db *DB) *StationRepo {
	return &StationRepo{db: db}
}

// Upsert inserts or updates a station by Pandora ID. The Spotify playlist
// mapping is deliberately not touched here; SetPlaylistID owns that column.
func (r *StationRepo) Upsert(ctx context.Context, station model.Station) error {
	const query = `
		INSERT INTO stations (pandora_id, name, liked_song_count)
		VALUES (?, ?, ?)
		ON CONFLICT(pandora_id) DO UPDATE SET
			name = excluded.name,
			liked_song_count = excluded.liked_song_count,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.Writer.ExecContext(ctx, query, station.PandoraID, station.Name, station.LikedSongCount)
	if err != nil {
		return fmt.Errorf("upsert station %s: %w", station.PandoraID, err)
	}
	return nil
}

// Get retrieves a station by Pandora ID. Returns nil, nil if absent.
func (r *StationRepo) Get(ctx context.Context, pandoraID string) (*model.Station, error) {
	const query = `
		SELECT id, pandora_id, name, liked_song_count, spotify_playlist_id, added_at, updated_at
		FROM stations
		WHERE pandora_id = ?
	`

	station, err := scanStation(r.db.Reader.QueryRowContext(ctx, query, pandoraID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get station %s: %w", pandoraID, err)
	}
	return station, nil
}

// ListAll returns all known stations ordered by name.
func (r *StationRepo) ListAll(ctx context.Context) ([]model.Station, error) {
	const query = `
		SELECT id, pandora_id, name, liked_song_count, spotify_playlist_id, added_at, updated_at
		FROM stations
		ORDER BY name
	`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var stations []model.Station
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, *station)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}

	return stations, nil
}

// SetPlaylistID records the Spotify playlist created for a station.
func (r *StationRepo) SetPlaylistID(ctx context.Context, pandoraID, playlistID string) error {
	const query = `
		UPDATE stations
		SET spotify_playlist_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE pandora_id = ?
	`

	result, err := r.db.Writer.ExecContext(ctx, query, playlistID, pandoraID)
	if err != nil {
		return fmt.Errorf("set playlist for station %s: %w", pandoraID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set playlist for station %s: %w", pandoraID, err)
	}
	if affected == 0 {
		return fmt.Errorf("set playlist for station %s: station not found", pandoraID)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanStation(s scanner) (*model.Station, error) {
	var station model.Station
	var addedAt, updatedAt string

	if err := s.Scan(
		&station.ID, &station.PandoraID, &station.Name, &station.LikedSongCount,
		&station.SpotifyPlaylistID, &addedAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if station.AddedAt, err = parseTime(addedAt); err != nil {
		return nil, fmt.Errorf("parse added_at: %w", err)
	}
	if station.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &station, nil
}
