// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"fmt"

	"github.com/samuelfneumann/gopole/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when and how episodes end
type Ender interface {
	// End takes the most recent TimeStep in an environment. If the
	// episode should end at this TimeStep, End modifies the TimeStep
	// so that its StepType is timestep.Last, records how the episode
	// ended, and returns true. Otherwise End leaves the TimeStep
	// untouched and returns false.
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme and episode ending scheme for
// taking actions in some environment
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for taking action a in state,
	// resulting in a transition to nextState
	GetReward(state mat.Vector, a int, nextState mat.Vector) float64

	// AtGoal returns whether state is a goal state of the Task
	AtGoal(state mat.Matrix) bool

	// Min and Max return the minimum and maximum attainable rewards
	Min() float64
	Max() float64
}

// Environment implements a simulated environment, which includes a Task
// to complete. Environments have a fixed number of discrete actions,
// denoted 0, 1, ..., Actions()-1.
type Environment interface {
	Task
	fmt.Stringer

	// Reset resets the environment between episodes, returning the
	// first TimeStep of the new episode
	Reset() (timestep.TimeStep, error)

	// Step takes one environmental step given an action, returning
	// the next TimeStep and whether that TimeStep is the last in the
	// episode
	Step(action int) (timestep.TimeStep, bool, error)

	// Render draws the current environment state if rendering is
	// enabled for the environment and does nothing otherwise
	Render()

	// Actions returns the number of legal actions
	Actions() int

	// ObservationLen returns the length of observation vectors
	ObservationLen() int

	// CurrentTimeStep returns the most recent TimeStep of the
	// environment
	CurrentTimeStep() timestep.TimeStep
}
