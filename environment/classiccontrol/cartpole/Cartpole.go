// Package cartpole implements the Cartpole classic control environment
package cartpole

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	env "github.com/samuelfneumann/gopole/environment"
	ts "github.com/samuelfneumann/gopole/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // magnitude of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Bounds (+/-) on state variables. Observations leave these bounds
	// only on an episode-ending step.
	PositionBounds        float64 = 2 * FailPosition
	SpeedBounds           float64 = math.MaxFloat64
	AngleBounds           float64 = 2 * FailAngle
	AngularVelocityBounds float64 = math.MaxFloat64

	// StartBound bounds (+/-) each feature of starting states
	StartBound float64 = 0.05

	// Discrete actions
	Left  int = 0
	Right int = 1
)

// rendering geometry in pixels
const (
	frameWidth  int     = 600
	frameHeight int     = 400
	cartWidth   float64 = 50
	cartHeight  float64 = 30
)

// Cartpole implements the classic control environment Cartpole. In
// this environment, a pole is attached to a cart, which can move
// horizontally. The agent must keep the pole balanced upright for as
// long as possible.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity.
//
// Actions are discrete and consist of the direction of the force
// applied to the cart:
//
//	Action	Meaning
//	  0		Accelerate left
//	  1		Accelerate right
//
// Stepping with any other action panics.
//
// When rendering is enabled, every Render() call draws the current
// cart and pole pose to CartPole<step>.png in the working directory.
// Frame files are reused between episodes.
type Cartpole struct {
	env.Task
	lastStep       ts.TimeStep
	discount       float64
	gravity        float64
	forceMag       float64
	poleMass       float64
	halfPoleLength float64
	cartMass       float64
	dt             float64
	positionBounds r1.Interval
	angleBounds    r1.Interval
	render         bool
}

// New constructs a new Cartpole environment with the argument task.
// The render flag controls whether Render() draws frames or is a
// no-op.
func New(t env.Task, discount float64, render bool) (*Cartpole, ts.TimeStep,
	error) {
	positionBounds := r1.Interval{Min: -PositionBounds, Max: PositionBounds}
	angleBounds := r1.Interval{Min: -AngleBounds, Max: AngleBounds}

	// Get the first state
	state := t.Start()
	if err := validateState(state, positionBounds, angleBounds); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	firstStep := ts.New(ts.First, 0.0, discount, state, 0)

	cartpole := Cartpole{t, firstStep, discount, Gravity, ForceMag, PoleMass,
		HalfPoleLength, CartMass, Dt, positionBounds, angleBounds, render}

	return &cartpole, firstStep, nil
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Cartpole) Reset() (ts.TimeStep, error) {
	state := c.Start()
	if err := validateState(state, c.positionBounds, c.angleBounds); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	startStep := ts.New(ts.First, 0, c.discount, state, 0)
	c.lastStep = startStep

	return startStep, nil
}

// Step takes one environmental step given an action and returns the
// next state as a timestep.TimeStep and a bool indicating whether or
// not the episode has ended
func (c *Cartpole) Step(action int) (ts.TimeStep, bool, error) {
	// Ensure a legal action was selected
	if action < Left || action > Right {
		panic(fmt.Sprintf("step: illegal action %v ∉ (%v, %v)", action,
			Left, Right))
	}

	// Get state variables
	state := c.lastStep.Observation
	x, xDot := state.AtVec(0), state.AtVec(1)
	th, thDot := state.AtVec(2), state.AtVec(3)

	// Magnify the action force in the appropriate direction
	force := -c.forceMag
	if action == Right {
		force = c.forceMag
	}

	// Calculate physical variables to determine the next state
	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	totalMass := c.poleMass + c.cartMass
	poleMassLength := c.poleMass * c.halfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / totalMass
	thAcc := (c.gravity*sinTheta - cosTheta*temp) / (c.halfPoleLength *
		(4.0/3.0 - c.poleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/totalMass

	// Update state variables using Euler kinematic integration. The
	// position and angle are not clipped or wrapped; the episode ends
	// once either leaves its legal interval.
	x += c.dt * xDot
	xDot += c.dt * xAcc
	th += c.dt * thDot
	thDot += c.dt * thAcc

	// Create the new timestep
	newState := mat.NewVecDense(4, []float64{x, xDot, th, thDot})
	reward := c.GetReward(c.lastStep.Observation, action, newState)
	nextStep := ts.New(ts.Mid, reward, c.discount, newState,
		c.lastStep.Number+1)

	// Check if the step ends the episode
	c.End(&nextStep)

	c.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// Render draws the current cart and pole pose to a PNG file in the
// working directory. If the environment was constructed with rendering
// disabled, Render is a no-op.
func (c *Cartpole) Render() {
	if !c.render {
		return
	}

	dc := gg.NewContext(frameWidth, frameHeight)
	dc.SetColor(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	dc.Clear()

	// World-to-pixel scale along the track
	scale := float64(frameWidth) / (2 * PositionBounds)
	cartY := float64(frameHeight) - 100

	// Track
	dc.SetColor(color.RGBA{A: 255})
	dc.SetLineWidth(2)
	dc.DrawLine(0, cartY+cartHeight/2, float64(frameWidth),
		cartY+cartHeight/2)
	dc.Stroke()

	state := c.lastStep.Observation
	cartX := state.AtVec(0)*scale + float64(frameWidth)/2
	th := state.AtVec(2)

	// Cart
	dc.ClearPath()
	dc.SetColor(color.RGBA{R: 77, G: 77, B: 128, A: 255})
	dc.DrawRectangle(cartX-cartWidth/2, cartY-cartHeight/2, cartWidth,
		cartHeight)
	dc.Fill()

	// Pole, drawn from the cart's top centre at the current angle. An
	// angle of 0 points straight up.
	poleLen := scale * 2 * c.halfPoleLength
	tipX := cartX + poleLen*math.Sin(th)
	tipY := cartY - cartHeight/2 - poleLen*math.Cos(th)

	dc.ClearPath()
	dc.SetColor(color.RGBA{R: 204, G: 153, B: 102, A: 255})
	dc.SetLineWidth(6)
	dc.DrawLine(cartX, cartY-cartHeight/2, tipX, tipY)
	dc.Stroke()

	dc.SavePNG(fmt.Sprintf("CartPole%v.png", c.lastStep.Number))
}

// Actions returns the number of legal actions
func (c *Cartpole) Actions() int {
	return Right - Left + 1
}

// ObservationLen returns the length of observation vectors
func (c *Cartpole) ObservationLen() int {
	return 4
}

// CurrentTimeStep returns the current time step of the environment
func (c *Cartpole) CurrentTimeStep() ts.TimeStep {
	return c.lastStep
}

// validateState ensures that a state observation is between the
// physical bounds of the Cartpole environment
func validateState(obs mat.Vector, positionBounds,
	angleBounds r1.Interval) error {
	if obs.Len() != 4 {
		return fmt.Errorf("validateState: expected 4 state features, got %v",
			obs.Len())
	}

	position := obs.AtVec(0)
	if position < positionBounds.Min || position > positionBounds.Max {
		return fmt.Errorf("validateState: position %v is not within "+
			"bounds %v", position, positionBounds)
	}

	angle := obs.AtVec(2)
	if angle < angleBounds.Min || angle > angleBounds.Max {
		return fmt.Errorf("validateState: angle %v is not within bounds %v",
			angle, angleBounds)
	}

	return nil
}

func (c *Cartpole) String() string {
	msg := "Cartpole  |  Position: %v  | Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := c.lastStep.Observation
	position, speed := state.AtVec(0), state.AtVec(1)
	angle, velocity := state.AtVec(2), state.AtVec(3)

	return fmt.Sprintf(msg, position, speed, angle, velocity)
}
