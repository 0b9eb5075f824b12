package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/model"
)

func TestStationRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStationRepo(db)
	ctx := context.Background()

	err := repo.Upsert(ctx, model.Station{
		PandoraID:      "st-1",
		Name:           "Folk Radio",
		LikedSongCount: 12,
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "st-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "st-1", got.PandoraID)
	assert.Equal(t, "Folk Radio", got.Name)
	assert.Equal(t, 12, got.LikedSongCount)
	assert.False(t, got.HasPlaylist())
	assert.False(t, got.AddedAt.IsZero())
}

func TestStationRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStationRepo(db)

	got, err := repo.Get(context.Background(), "nope")

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStationRepo_UpsertPreservesPlaylistMapping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStationRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.Station{PandoraID: "st-1", Name: "Folk Radio"}))
	require.NoError(t, repo.SetPlaylistID(ctx, "st-1", "pl-1"))

	// A later sync upserts the station again with fresh metadata.
	require.NoError(t, repo.Upsert(ctx, model.Station{PandoraID: "st-1", Name: "Folk Radio (renamed)", LikedSongCount: 20}))

	got, err := repo.Get(ctx, "st-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Folk Radio (renamed)", got.Name)
	assert.Equal(t, 20, got.LikedSongCount)
	assert.Equal(t, "pl-1", got.SpotifyPlaylistID)
}

func TestStationRepo_SetPlaylistIDMissingStation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStationRepo(db)

	err := repo.SetPlaylistID(context.Background(), "nope", "pl-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStationRepo_ListAllOrderedByName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStationRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.Station{PandoraID: "st-2", Name: "Jazz Radio"}))
	require.NoError(t, repo.Upsert(ctx, model.Station{PandoraID: "st-1", Name: "Folk Radio"}))

	stations, err := repo.ListAll(ctx)

	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, "Folk Radio", stations[0].Name)
	assert.Equal(t, "Jazz Radio", stations[1].Name)
}
