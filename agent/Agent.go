// Package agent defines an agent interface
package agent

import (
	ts "github.com/samuelfneumann/gopole/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// A Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records that an action led to some timestep
	Observe(action int, nextStep ts.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(ts.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. For a given agent, the
// Policy and Learner should share weights so that any changes the
// Learner makes to the weights are reflected in the actions the Policy
// chooses.
type Policy interface {
	SelectAction(t ts.TimeStep) (int, error)
}
