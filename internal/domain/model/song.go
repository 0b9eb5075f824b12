package model

// Song represents a single piece of positive feedback (a thumbed-up track)
// on a Pandora station. Artist and Album may be empty; Pandora does not
// guarantee either field for every feedback entry.
type Song struct {
	FeedbackID string
	StationID  string
	Title      string
	Artist     string
	Album      string
}

// Label returns a short human-readable identifier for logging.
func (s Song) Label() string {
	if s.Artist == "" {
		return s.Title
	}
	return s.Title + " by " + s.Artist
}
