// Package experiment implements functionality for running an
// experiment
package experiment

import (
	"github.com/samuelfneumann/gopole/experiment/tracker"
	ts "github.com/samuelfneumann/gopole/timestep"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments run an agent in an environment episode by episode,
// caching each environmental TimeStep in RAM to be later saved to
// disk. The Save() function will then take all cached data and save it
// to disk. This is usually performed after an experiment has been run.
// The Run() method runs all of the experiment's episodes, and the
// RunEpisode() method runs a single episode.
//
// In order to save data, Experiments use Trackers. Trackers determine
// which data generated during the experiment is saved. Experiments
// will send each TimeStep to Trackers using the Tracker's Track()
// method. The Tracker then determines which data from the TimeStep it
// caches and saves. New Trackers can be registered with an Experiment
// through the constructor or through an Experiment's Register()
// function.
//
// Experiments also periodically save the weights an agent is learning.
// After an episode finishes, the Experiment offers the episode's index
// to each of its Checkpointers, which save the agent's weights on the
// episode indices they are configured to.
type Experiment interface {
	Run() error
	RunEpisode() error

	// Tracks current timestep by sending it to Trackers
	track(ts.TimeStep)

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)

	// Saves the current state of the agent's weights
	checkpoint(episode int) error
}
