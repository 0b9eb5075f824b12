package model

// MatchStatus represents the outcome of matching a Pandora song against the
// Spotify catalog.
type MatchStatus string

const (
	// MatchStatusMatched means a Spotify track was found and added to the playlist.
	MatchStatusMatched MatchStatus = "matched"
	// MatchStatusNotFound means the search returned no results; retried on later runs.
	MatchStatusNotFound MatchStatus = "not_found"
	// MatchStatusSkipped means the song was deliberately excluded from import.
	MatchStatusSkipped MatchStatus = "skipped"
)
