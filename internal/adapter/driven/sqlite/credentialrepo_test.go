package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/port/driven"
)

// testKey returns a deterministic 32-byte AES-256 key.
func testKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestCredentialRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	err := repo.Set(ctx, "spotify_refresh_token", "rt-abc123")
	require.NoError(t, err)

	val, err := repo.Get(ctx, "spotify_refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "rt-abc123", val)
}

func TestCredentialRepo_ValueEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "spotify_refresh_token", "rt-abc123"))

	var stored string
	err := db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = ?`, "spotify_refresh_token").Scan(&stored)
	require.NoError(t, err)
	assert.NotContains(t, stored, "rt-abc123")
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())

	val, err := repo.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestCredentialRepo_SetOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "spotify_refresh_token", "old-value"))
	require.NoError(t, repo.Set(ctx, "spotify_refresh_token", "new-value"))

	val, err := repo.Get(ctx, "spotify_refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "new-value", val)
}

func TestCredentialRepo_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "spotify_refresh_token", "rt-abc"))
	require.NoError(t, repo.Set(ctx, "pandora_password", "hunter2"))

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "pandora_password", creds[0].Service)
	assert.Equal(t, "hunter2", creds[0].Value)
	assert.Equal(t, "spotify_refresh_token", creds[1].Service)
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "spotify_refresh_token", "rt-abc"))
	require.NoError(t, repo.Delete(ctx, "spotify_refresh_token"))

	val, err := repo.Get(ctx, "spotify_refresh_token")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestCredentialRepo_NoKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, nil)
	ctx := context.Background()

	err := repo.Set(ctx, "spotify_refresh_token", "rt-abc")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.Get(ctx, "spotify_refresh_token")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestCredentialRepo_WrongKeyFailsDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewCredentialRepo(db, testKey()).Set(ctx, "spotify_refresh_token", "rt-abc"))

	otherKey := testKey()
	otherKey[0] ^= 0xff
	_, err := NewCredentialRepo(db, otherKey).Get(ctx, "spotify_refresh_token")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt")
}
