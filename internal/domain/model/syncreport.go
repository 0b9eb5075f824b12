package model

import "time"

// SyncReport summarizes a single sync run.
type SyncReport struct {
	Stations       int
	FailedStations int
	Songs          int
	Matched        int
	NotFound       int
	Skipped        int
	Duration       time.Duration
}

// Merge folds a per-station report into the run total.
func (r *SyncReport) Merge(other SyncReport) {
	r.Songs += other.Songs
	r.Matched += other.Matched
	r.NotFound += other.NotFound
	r.Skipped += other.Skipped
}

// StationStatus pairs a station with its import-ledger progress, as shown by
// the stations command.
type StationStatus struct {
	Station  Station
	Imported int
	Missing  int
}
