// Package gym provides access to OpenAI Gym environments running
// behind a gym HTTP API server.
//
// The server owns the environment: physics, reward, and episode
// ending all happen remotely, so the Task methods of environments in
// this package panic if called. Only environments with discrete
// action spaces are supported.
package gym

import (
	"fmt"

	ts "github.com/samuelfneumann/gopole/timestep"
	"gonum.org/v1/gonum/mat"
)

// GymEnv implements access to an environment hosted on a gym server
type GymEnv struct {
	client      *Client
	instanceID  string
	envID       string
	discount    float64
	render      bool
	currentStep ts.TimeStep
	actions     int
	obsLen      int
}

// New returns a new GymEnv backed by the gym server at baseURL. The
// envID must name an environment with a discrete action space, for
// example CartPole-v0. If render is true the server renders the
// environment on every step.
func New(baseURL, envID string, discount float64, render bool) (*GymEnv,
	ts.TimeStep, error) {
	client, err := NewClient(baseURL)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	instanceID, err := client.Create(envID)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"environment: %v", err)
	}

	actionSpace, err := client.ActionSpace(instanceID)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	if actionSpace.Name != "Discrete" {
		return nil, ts.TimeStep{}, fmt.Errorf("new: environment %v has "+
			"action space %v, only Discrete is supported", envID,
			actionSpace.Name)
	}

	obsSpace, err := client.ObservationSpace(instanceID)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	obsLen := len(obsSpace.Low)
	if len(obsSpace.Shape) > 0 {
		obsLen = 1
		for _, dim := range obsSpace.Shape {
			obsLen *= dim
		}
	}

	obs, err := client.Reset(instanceID)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not reset "+
			"environment: %v", err)
	}

	gymEnv := &GymEnv{
		client:     client,
		instanceID: instanceID,
		envID:      envID,
		discount:   discount,
		render:     render,
		actions:    actionSpace.N,
		obsLen:     obsLen,
	}

	t := ts.New(ts.First, 0, discount, mat.NewVecDense(len(obs), obs), 0)
	gymEnv.currentStep = t

	return gymEnv, t, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.client.Reset(g.instanceID)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	t := ts.New(ts.First, 0, g.discount, mat.NewVecDense(len(obs), obs), 0)
	g.currentStep = t

	return t, nil
}

// Step takes a single environmental step
func (g *GymEnv) Step(action int) (ts.TimeStep, bool, error) {
	if action < 0 || action >= g.actions {
		panic(fmt.Sprintf("step: illegal action %v ∉ (0, %v)", action,
			g.actions-1))
	}

	obs, reward, done, err := g.client.Step(g.instanceID, action, g.render)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %v", err)
	}

	t := ts.New(ts.Mid, reward, g.discount, mat.NewVecDense(len(obs), obs),
		g.currentStep.Number+1)
	if done {
		// The server does not report whether the episode ended in a
		// terminal state or at the server's own step limit
		t.StepType = ts.Last
		t.SetEnd(ts.TerminalStateReached)
	}
	g.currentStep = t

	return t, done, nil
}

// Render implements the environment.Environment interface. Rendering
// of server-side environments happens on the server during stepping
// when the GymEnv was constructed with rendering enabled, so this
// function does nothing.
func (g *GymEnv) Render() {}

// Actions returns the number of legal actions
func (g *GymEnv) Actions() int {
	return g.actions
}

// ObservationLen returns the length of observation vectors
func (g *GymEnv) ObservationLen() int {
	return g.obsLen
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// Start implements the environment.Environment interface. This
// function panics: starting states are drawn on the server.
func (g *GymEnv) Start() *mat.VecDense {
	panic("start: cannot calculate starting state for GymEnv")
}

// GetReward implements the environment.Environment interface. This
// function panics: rewards are computed on the server.
func (g *GymEnv) GetReward(_ mat.Vector, _ int, _ mat.Vector) float64 {
	panic("getReward: cannot calculate reward for transition in GymEnv")
}

// End implements the environment.Environment interface. This function
// panics: episode ending is decided on the server.
func (g *GymEnv) End(*ts.TimeStep) bool {
	panic("end: cannot calculate ending for GymEnv")
}

// AtGoal implements the environment.Environment interface. This
// function panics: goal checking is not enabled for GymEnv.
func (g *GymEnv) AtGoal(mat.Matrix) bool {
	panic("atGoal: cannot calculate at goal for GymEnv")
}

// Min returns the minimum possible reward receivable in the
// environment. Reward ranges are known for the CartPole environments
// only.
func (g *GymEnv) Min() float64 {
	switch g.envID {
	case "CartPole-v0", "CartPole-v1":
		return 0.0
	}

	panic(fmt.Sprintf("min: no known reward bounds for %v", g.envID))
}

// Max returns the maximum possible reward receivable in the
// environment. Reward ranges are known for the CartPole environments
// only.
func (g *GymEnv) Max() float64 {
	switch g.envID {
	case "CartPole-v0", "CartPole-v1":
		return 1.0
	}

	panic(fmt.Sprintf("max: no known reward bounds for %v", g.envID))
}

// Close closes the server-side environment instance
func (g *GymEnv) Close() error {
	if err := g.client.Close(g.instanceID); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	return nil
}

func (g *GymEnv) String() string {
	return fmt.Sprintf("%v  |  gym server:  %v", g.envID, g.client.baseURL)
}
