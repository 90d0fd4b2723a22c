package cartpole

import (
	"math"

	env "github.com/samuelfneumann/gopole/environment"
	ts "github.com/samuelfneumann/gopole/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	// FailAngle is the default pole angle (+/-) at which balancing
	// fails
	FailAngle float64 = 12 * 2 * math.Pi / 360

	// FailPosition is the default cart position (+/-) at which
	// balancing fails
	FailPosition float64 = 2.4
)

// Balance implements the classic control Cartpole Balance task. In
// this Task, the goal of the agent is to balance the pole on the cart
// in an upright position for as long as possible.
//
// The rewards are +1 for every timestep on which the pole remains
// balanced and 0 on the timestep where the pole falls below the fail
// angle or the cart leaves the fail position bounds.
//
// Episodes end with a timestep.TerminalStateReached when the pole
// falls below the fail angle or the cart leaves the fail position
// bounds, and with a timestep.Timeout at a step limit.
type Balance struct {
	env.Starter
	stepLimiter     env.Ender
	angleLimiter    env.Ender
	positionLimiter env.Ender
	failAngle       float64
	failPosition    float64
}

// NewBalance creates and returns a new Balance task
func NewBalance(s env.Starter, episodeSteps int, failAngle,
	failPosition float64) *Balance {
	stepLimiter := env.NewStepLimit(episodeSteps)

	// Create the Enders for the failure conditions
	legalAngles := []r1.Interval{{Min: -failAngle, Max: failAngle}}
	angleLimiter := env.NewIntervalLimit(legalAngles, []int{2},
		ts.TerminalStateReached)

	legalPositions := []r1.Interval{{Min: -failPosition, Max: failPosition}}
	positionLimiter := env.NewIntervalLimit(legalPositions, []int{0},
		ts.TerminalStateReached)

	return &Balance{s, stepLimiter, angleLimiter, positionLimiter, failAngle,
		failPosition}
}

// End checks if a TimeStep is the last in an episode. If so, it
// adjusts the TimeStep's StepType to timestep.Last, records how the
// episode ended, and returns true. Otherwise, the function does not
// adjust the TimeStep and returns false.
func (b *Balance) End(t *ts.TimeStep) bool {
	if end := b.angleLimiter.End(t); end {
		return true
	}
	if end := b.positionLimiter.End(t); end {
		return true
	}
	if end := b.stepLimiter.End(t); end {
		return true
	}
	return false
}

// GetReward returns the reward for an action taken in some state,
// resulting in a transition to the next state nextState.
func (b *Balance) GetReward(_ mat.Vector, _ int,
	nextState mat.Vector) float64 {
	// An angle of 0 is pointing straight up, so balancing requires
	// angles of lesser magnitude than the fail angle
	angle := math.Abs(nextState.AtVec(2))
	position := math.Abs(nextState.AtVec(0))

	if angle < b.failAngle && position < b.failPosition {
		return 1.0
	}
	return 0.0
}

// AtGoal returns whether or not the argument state is a goal state,
// that is, whether the pole is still balanced
func (b *Balance) AtGoal(state mat.Matrix) bool {
	return math.Abs(state.At(0, 2)) < b.failAngle &&
		math.Abs(state.At(0, 0)) < b.failPosition
}

// Min returns the minimum possible reward that can be received in the
// environment
func (b *Balance) Min() float64 {
	return 0.0
}

// Max returns the maximum possible reward that can be received in the
// environment
func (b *Balance) Max() float64 {
	return 1.0
}
