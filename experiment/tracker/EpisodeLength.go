package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/gopole/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment.
//
// Note that an episode must finish for this Tracker to cache its data.
// If the last episode in an experiment does not finish, that episode's
// length will not be saved.
type EpisodeLength struct {
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength Tracker which will save
// its data at the specified location filename
func NewEpisodeLength(filename string) Tracker {
	var tracker EpisodeLength
	tracker.filename = filename
	return &tracker
}

// Track tracks the episode lengths in an experiment. When this function
// is called, it caches the episode length if the timestep passed to it
// is the last timestep in the episode. Otherwise, it waits to receive
// the last timestep in an episode before caching the episode length.
func (e *EpisodeLength) Track(t timestep.TimeStep) {
	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, float64(t.Number))
	}
}

// Save saves the data tracked by the EpisodeLength Tracker to disk
func (e *EpisodeLength) Save() error {
	file, err := os.Create(e.filename)
	if err != nil {
		return fmt.Errorf("save: could not create save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(e.episodeLengths); err != nil {
		return fmt.Errorf("save: could not encode episode lengths: %v", err)
	}

	return nil
}
