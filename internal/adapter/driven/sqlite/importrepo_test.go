package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/model"
)

func TestImportRepo_RecordAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportRepo(db)
	ctx := context.Background()

	err := repo.Record(ctx, model.ImportedTrack{
		StationID:      "st-1",
		FeedbackID:     "fb-1",
		Title:          "Amsterdam",
		Artist:         "Gregory Alan Isakov",
		SpotifyTrackID: "trk-1",
		Status:         model.MatchStatusMatched,
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "st-1", "fb-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Amsterdam", got.Title)
	assert.Equal(t, "trk-1", got.SpotifyTrackID)
	assert.Equal(t, model.MatchStatusMatched, got.Status)
	assert.False(t, got.ImportedAt.IsZero())
}

func TestImportRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportRepo(db)

	got, err := repo.Get(context.Background(), "st-1", "nope")

	require.NoError(t, err)
	assert.Nil(t, got)
}

// A not_found entry is upgraded to matched when a later run finds the track.
func TestImportRepo_RecordUpgradesStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, model.ImportedTrack{
		StationID:  "st-1",
		FeedbackID: "fb-1",
		Title:      "Amsterdam",
		Status:     model.MatchStatusNotFound,
	}))
	require.NoError(t, repo.Record(ctx, model.ImportedTrack{
		StationID:      "st-1",
		FeedbackID:     "fb-1",
		Title:          "Amsterdam",
		SpotifyTrackID: "trk-1",
		Status:         model.MatchStatusMatched,
	}))

	got, err := repo.Get(ctx, "st-1", "fb-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.MatchStatusMatched, got.Status)
	assert.Equal(t, "trk-1", got.SpotifyTrackID)

	tracks, err := repo.ListByStation(ctx, "st-1")
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}

func TestImportRepo_ListByStation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, model.ImportedTrack{StationID: "st-1", FeedbackID: "fb-2", Title: "b", Status: model.MatchStatusMatched}))
	require.NoError(t, repo.Record(ctx, model.ImportedTrack{StationID: "st-1", FeedbackID: "fb-1", Title: "a", Status: model.MatchStatusMatched}))
	require.NoError(t, repo.Record(ctx, model.ImportedTrack{StationID: "st-2", FeedbackID: "fb-3", Title: "c", Status: model.MatchStatusMatched}))

	tracks, err := repo.ListByStation(ctx, "st-1")

	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "fb-1", tracks[0].FeedbackID)
	assert.Equal(t, "fb-2", tracks[1].FeedbackID)
}

func TestImportRepo_CountByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImportRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, model.ImportedTrack{StationID: "st-1", FeedbackID: "fb-1", Title: "a", Status: model.MatchStatusMatched}))
	require.NoError(t, repo.Record(ctx, model.ImportedTrack{StationID: "st-1", FeedbackID: "fb-2", Title: "b", Status: model.MatchStatusMatched}))
	require.NoError(t, repo.Record(ctx, model.ImportedTrack{StationID: "st-1", FeedbackID: "fb-3", Title: "c", Status: model.MatchStatusNotFound}))

	counts, err := repo.CountByStatus(ctx, "st-1")

	require.NoError(t, err)
	assert.Equal(t, 2, counts[model.MatchStatusMatched])
	assert.Equal(t, 1, counts[model.MatchStatusNotFound])
	assert.Zero(t, counts[model.MatchStatusSkipped])
}
