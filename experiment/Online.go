package experiment

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/samuelfneumann/gopole/agent"
	env "github.com/samuelfneumann/gopole/environment"
	"github.com/samuelfneumann/gopole/experiment/checkpointer"
	"github.com/samuelfneumann/gopole/experiment/tracker"
	ts "github.com/samuelfneumann/gopole/timestep"
)

// Online is an Experiment that runs an agent online for a fixed number
// of episodes. No offline evaluation is performed.
type Online struct {
	env.Environment
	agent.Agent
	episodes       int
	currentEpisode int
	trackers       []tracker.Tracker
	checkpointers  []checkpointer.Checkpointer
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The episodes parameter determines
// how many episodes the experiment is run for, the t parameter is a
// slice of tracker.Tracker which determine what data is saved, and the
// c parameter is a slice of checkpointer.Checkpointer which determine
// when the agent's weights are saved.
func NewOnline(e env.Environment, a agent.Agent, episodes int,
	t []tracker.Tracker, c []checkpointer.Checkpointer) (*Online, error) {
	if episodes < 1 {
		return nil, fmt.Errorf("newonline: experiments must run a positive "+
			"number of episodes\n\twant(>0)\n\thave(%v)", episodes)
	}

	return &Online{e, a, episodes, 0, t, c}, nil
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() error {
	step, err := o.Environment.Reset()
	if err != nil {
		return fmt.Errorf("runepisode: could not reset environment: %v", err)
	}
	if err := o.Agent.ObserveFirst(step); err != nil {
		return fmt.Errorf("runepisode: %v", err)
	}
	o.track(step)

	// Run the episode to completion. The environment ends episodes
	// itself, either at a terminal state or at its step limit.
	for !step.Last() {
		o.Environment.Render()

		// Select action, step in environment
		action, err := o.Agent.SelectAction(step)
		if err != nil {
			return fmt.Errorf("runepisode: could not select action: %v", err)
		}
		step, _, err = o.Environment.Step(action)
		if err != nil {
			return fmt.Errorf("runepisode: could not step environment: %v",
				err)
		}

		// Cache the environment step in each Tracker
		o.track(step)

		// Observe the timestep and step the agent
		if err := o.Agent.Observe(action, step); err != nil {
			return fmt.Errorf("runepisode: %v", err)
		}
		if err := o.Agent.Step(); err != nil {
			return fmt.Errorf("runepisode: could not step agent: %v", err)
		}
	}
	o.Agent.EndEpisode()

	glog.Infof("episode %v finished after %v steps", o.currentEpisode,
		step.Number)
	o.currentEpisode++

	return nil
}

// Run runs the entire experiment for all episodes, offering each
// finished episode's index to every Checkpointer
func (o *Online) Run() error {
	for o.currentEpisode < o.episodes {
		episode := o.currentEpisode

		if err := o.RunEpisode(); err != nil {
			return fmt.Errorf("run: %v", err)
		}
		if err := o.checkpoint(episode); err != nil {
			return fmt.Errorf("run: %v", err)
		}
	}

	return nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, tracker := range o.trackers {
		if err := tracker.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}

	return nil
}

// track tracks the current timestep by caching its data in each
// tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// checkpoint offers a finished episode's index to each checkpointer
func (o *Online) checkpoint(episode int) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(episode); err != nil {
			return fmt.Errorf("checkpoint: %v", err)
		}
	}

	return nil
}
