// Package spotify implements the SpotifyClient port using the zmb3/spotify
// library, plus the OAuth flow that feeds it an authorized http.Client.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	spotifyapi "github.com/zmb3/spotify/v2"

	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/model"
	"github.com/BenChaimberg/pandora-to-spotify/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SpotifyClient = (*Client)(nil)

// addTracksBatchSize is the Spotify API limit for a single add-tracks call.
const addTracksBatchSize = 100

// Client implements the driven.SpotifyClient port.
type Client struct {
	sp     *spotifyapi.Client
	public bool

	mu     sync.Mutex
	userID string
}

// NewClient creates a Client on top of an authorized http.Client (see
// Authenticator.Client). public controls the visibility of created playlists.
func NewClient(httpClient *http.Client, public bool) *Client {
	return &Client{
		sp:     spotifyapi.New(httpClient, spotifyapi.WithRetry(true)),
		public: public,
	}
}

// NewClientWithBaseURL creates a Client against a custom API base URL.
// This constructor is intended for testing, allowing injection of an
// httptest server. baseURL must end with a trailing slash.
func NewClientWithBaseURL(httpClient *http.Client, baseURL string, public bool) *Client {
	return &Client{
		sp:     spotifyapi.New(httpClient, spotifyapi.WithBaseURL(baseURL)),
		public: public,
	}
}

// CurrentUserID returns the Spotify ID of the authorized user, cached after
// the first call.
func (c *Client) CurrentUserID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID != "" {
		return c.userID, nil
	}

	user, err := c.sp.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching current user: %w", err)
	}
	c.userID = user.ID
	return c.userID, nil
}

// CreatePlaylist creates an empty playlist owned by the authorized user and
// returns its Spotify ID. Visibility follows the client's public setting.
func (c *Client) CreatePlaylist(ctx context.Context, name string) (string, error) {
	userID, err := c.CurrentUserID(ctx)
	if err != nil {
		return "", err
	}

	playlist, err := c.sp.CreatePlaylistForUser(ctx, userID, name, "", c.public, false)
	if err != nil {
		return "", fmt.Errorf("creating playlist %q: %w", name, err)
	}

	slog.Debug("playlist created", "name", name, "playlist_id", playlist.ID, "public", c.public)
	return string(playlist.ID), nil
}

// FindTrack searches for a song by title and artist, falling back to an
// album-qualified query when the first search misses. The first hit wins.
func (c *Client) FindTrack(ctx context.Context, song model.Song) (string, error) {
	id, err := c.searchTrack(ctx, buildQuery(song, false))
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, driven.ErrTrackNotFound) || song.Album == "" {
		return "", fmt.Errorf("searching for %q: %w", song.Label(), err)
	}

	id, err = c.searchTrack(ctx, buildQuery(song, true))
	if err != nil {
		return "", fmt.Errorf("searching for %q: %w", song.Label(), err)
	}
	return id, nil
}

// AddTracks appends tracks to a playlist in batches of at most 100.
func (c *Client) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	for start := 0; start < len(trackIDs); start += addTracksBatchSize {
		end := start + addTracksBatchSize
		if end > len(trackIDs) {
			end = len(trackIDs)
		}

		batch := make([]spotifyapi.ID, 0, end-start)
		for _, id := range trackIDs[start:end] {
			batch = append(batch, spotifyapi.ID(id))
		}

		if _, err := c.sp.AddTracksToPlaylist(ctx, spotifyapi.ID(playlistID), batch...); err != nil {
			return fmt.Errorf("adding %d tracks to playlist %s: %w", len(batch), playlistID, err)
		}
	}
	return nil
}

// searchTrack runs one track search and returns the first hit's ID.
func (c *Client) searchTrack(ctx context.Context, query string) (string, error) {
	result, err := c.sp.Search(ctx, query, spotifyapi.SearchTypeTrack, spotifyapi.Limit(1))
	if err != nil {
		return "", err
	}
	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return "", driven.ErrTrackNotFound
	}
	return string(result.Tracks.Tracks[0].ID), nil
}

// buildQuery assembles a Spotify search query with field filters. Empty
// fields are omitted; the album filter is only added on the fallback pass.
func buildQuery(song model.Song, withAlbum bool) string {
	var b strings.Builder
	b.WriteString("track:")
	b.WriteString(song.Title)
	if song.Artist != "" {
		b.WriteString(" artist:")
		b.WriteString(song.Artist)
	}
	if withAlbum && song.Album != "" {
		b.WriteString(" album:")
		b.WriteString(song.Album)
	}
	return b.String()
}
