// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/model"
	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/port/driven"
)

// defaultWatchInterval applies when watch mode is requested without a
// configured interval.
const defaultWatchInterval = 6 * time.Hour

// SyncOptions tunes a SyncService.
type SyncOptions struct {
	// StationFilter restricts the sync to a single Pandora station ID.
	StationFilter string
	// Interval is the watch-mode re-sync period.
	Interval time.Duration
	// DryRun logs what would be imported without touching Spotify or the
	// local database.
	DryRun bool
}

// SyncService orchestrates the migration: Pandora stations and liked songs
// in, Spotify playlists out, with the import ledger making re-runs
// idempotent.
type SyncService struct {
	pandora  driven.PandoraClient
	spotify  driven.SpotifyClient
	stations driven.StationStore
	imports  driven.ImportStore
	opts     SyncOptions
}

// NewSyncService creates a new SyncService with all required dependencies.
func NewSyncService(
	pandora driven.PandoraClient,
	spotify driven.SpotifyClient,
	stations driven.StationStore,
	imports driven.ImportStore,
	opts SyncOptions,
) *SyncService {
	return &SyncService{
		pandora:  pandora,
		spotify:  spotify,
		stations: stations,
		imports:  imports,
		opts:     opts,
	}
}

// RunOnce performs a full sync pass. A station failure is logged and counted
// but does not abort the run; only listing stations can fail the pass
// outright.
func (s *SyncService) RunOnce(ctx context.Context) (model.SyncReport, error) {
	start := time.Now()

	stations, err := s.listStations(ctx)
	if err != nil {
		return model.SyncReport{}, err
	}

	var report model.SyncReport
	for _, station := range stations {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		stationReport, err := s.syncStation(ctx, station)
		report.Merge(stationReport)
		if err != nil {
			slog.Error("station sync failed", "station", station.Name, "station_id", station.PandoraID, "error", err)
			report.FailedStations++
			continue
		}
		report.Stations++
	}

	report.Duration = time.Since(start).Round(time.Millisecond)
	slog.Info("sync complete",
		"stations", report.Stations,
		"failed_stations", report.FailedStations,
		"songs", report.Songs,
		"matched", report.Matched,
		"not_found", report.NotFound,
		"skipped", report.Skipped,
		"duration", report.Duration,
	)
	return report, nil
}

// Watch runs an immediate sync, then re-syncs on the configured interval
// until the context is canceled.
func (s *SyncService) Watch(ctx context.Context) error {
	interval := s.opts.Interval
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	if _, err := s.RunOnce(ctx); err != nil {
		slog.Error("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				slog.Error("sync cycle failed", "error", err)
			}
		}
	}
}

// StationStatuses pairs the account's stations with their import-ledger
// progress, for the stations command.
func (s *SyncService) StationStatuses(ctx context.Context) ([]model.StationStatus, error) {
	stations, err := s.listStations(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]model.StationStatus, 0, len(stations))
	for _, station := range stations {
		if stored, err := s.stations.Get(ctx, station.PandoraID); err != nil {
			return nil, err
		} else if stored != nil {
			station = *stored
		}

		counts, err := s.imports.CountByStatus(ctx, station.PandoraID)
		if err != nil {
			return nil, err
		}

		statuses = append(statuses, model.StationStatus{
			Station:  station,
			Imported: counts[model.MatchStatusMatched],
			Missing:  counts[model.MatchStatusNotFound],
		})
	}
	return statuses, nil
}

// listStations fetches the account's stations and applies the optional
// station filter.
func (s *SyncService) listStations(ctx context.Context) ([]model.Station, error) {
	stations, err := s.pandora.ListStations(ctx)
	if err != nil {
		return nil, err
	}

	if s.opts.StationFilter == "" {
		return stations, nil
	}
	for _, station := range stations {
		if station.PandoraID == s.opts.StationFilter {
			return []model.Station{station}, nil
		}
	}
	return nil, fmt.Errorf("station %s not found on this account", s.opts.StationFilter)
}

// syncStation migrates one station: fetch liked songs, ensure the playlist
// exists, match songs not yet in the ledger, and batch-add the hits.
// Per-song failures degrade to log lines; the returned report always reflects
// the work that did happen.
func (s *SyncService) syncStation(ctx context.Context, station model.Station) (model.SyncReport, error) {
	var report model.SyncReport

	songs, err := s.pandora.ListLikedSongs(ctx, station.PandoraID)
	if err != nil {
		return report, fmt.Errorf("listing liked songs: %w", err)
	}
	report.Songs = len(songs)

	station.LikedSongCount = len(songs)
	if !s.opts.DryRun {
		if err := s.stations.Upsert(ctx, station); err != nil {
			return report, err
		}
	}

	playlistID, err := s.ensurePlaylist(ctx, station)
	if err != nil {
		return report, err
	}

	var trackIDs []string
	var ledger []model.ImportedTrack

	for _, song := range songs {
		existing, err := s.imports.Get(ctx, station.PandoraID, song.FeedbackID)
		if err != nil {
			slog.Error("ledger lookup failed", "song", song.Label(), "error", err)
			continue
		}
		if existing != nil && existing.Status == model.MatchStatusMatched {
			report.Skipped++
			continue
		}

		trackID, err := s.spotify.FindTrack(ctx, song)
		if errors.Is(err, driven.ErrTrackNotFound) {
			report.NotFound++
			slog.Warn("no spotify match", "station", station.Name, "song", song.Label())
			if !s.opts.DryRun {
				s.record(ctx, song, "", model.MatchStatusNotFound)
			}
			continue
		}
		if err != nil {
			slog.Error("track search failed", "station", station.Name, "song", song.Label(), "error", err)
			continue
		}

		report.Matched++
		if s.opts.DryRun {
			slog.Info("dry run: would import", "station", station.Name, "song", song.Label(), "track_id", trackID)
			continue
		}

		trackIDs = append(trackIDs, trackID)
		ledger = append(ledger, model.ImportedTrack{
			StationID:      song.StationID,
			FeedbackID:     song.FeedbackID,
			Title:          song.Title,
			Artist:         song.Artist,
			SpotifyTrackID: trackID,
			Status:         model.MatchStatusMatched,
		})
	}

	if len(trackIDs) > 0 {
		if err := s.spotify.AddTracks(ctx, playlistID, trackIDs); err != nil {
			return report, fmt.Errorf("adding tracks: %w", err)
		}
		for _, entry := range ledger {
			if err := s.imports.Record(ctx, entry); err != nil {
				slog.Error("ledger record failed", "station", station.Name, "feedback", entry.FeedbackID, "error", err)
			}
		}
	}

	slog.Info("station synced",
		"station", station.Name,
		"songs", report.Songs,
		"matched", report.Matched,
		"not_found", report.NotFound,
		"skipped", report.Skipped,
	)
	return report, nil
}

// ensurePlaylist returns the station's Spotify playlist ID, creating the
// playlist and storing the mapping on first encounter. Dry runs never create
// anything and return an empty ID.
func (s *SyncService) ensurePlaylist(ctx context.Context, station model.Station) (string, error) {
	if s.opts.DryRun {
		return "", nil
	}

	stored, err := s.stations.Get(ctx, station.PandoraID)
	if err != nil {
		return "", err
	}
	if stored != nil && stored.HasPlaylist() {
		return stored.SpotifyPlaylistID, nil
	}

	playlistID, err := s.spotify.CreatePlaylist(ctx, station.Name)
	if err != nil {
		return "", fmt.Errorf("creating playlist for %q: %w", station.Name, err)
	}
	if err := s.stations.SetPlaylistID(ctx, station.PandoraID, playlistID); err != nil {
		return "", err
	}

	slog.Info("playlist created", "station", station.Name, "playlist_id", playlistID)
	return playlistID, nil
}

// record writes a ledger entry, logging instead of failing the station.
func (s *SyncService) record(ctx context.Context, song model.Song, trackID string, status model.MatchStatus) {
	err := s.imports.Record(ctx, model.ImportedTrack{
		StationID:      song.StationID,
		FeedbackID:     song.FeedbackID,
		Title:          song.Title,
		Artist:         song.Artist,
		SpotifyTrackID: trackID,
		Status:         status,
	})
	if err != nil {
		slog.Error("ledger record failed", "song", song.Label(), "error", err)
	}
}
