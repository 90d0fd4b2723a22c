// Package montecarlo implements Monte Carlo value prediction for
// two-action episodic environments.
//
// The agent runs an epsilon greedy policy over a learned state-action
// value function. During an episode it records each observation with
// the action taken from it. When the episode ends, the discounted
// return of every step is computed backward from the episode's end and
// the value function is fit toward those returns in a single pass.
// Every step earns an implicit reward of 1 regardless of the
// environment's reward signal, so the learned values estimate how long
// an episode survives past a state-action pair.
package montecarlo

import (
	"fmt"

	"github.com/samuelfneumann/gopole/agent"
	"github.com/samuelfneumann/gopole/environment"
	"github.com/samuelfneumann/gopole/network"
	ts "github.com/samuelfneumann/gopole/timestep"
)

// MonteCarlo implements the Monte Carlo value prediction agent.
type MonteCarlo struct {
	policy  *EGreedy
	valueFn network.ValueFunction
	decay   float64

	features int
	inputs   []float64 // Flattened (observation, one-hot action) rows
	steps    int
	prevStep ts.TimeStep
}

// New creates and returns a new MonteCarlo agent.
func New(env environment.Environment, c agent.Config,
	seed int64) (*MonteCarlo, error) {
	if !c.ValidAgent(&MonteCarlo{}) {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}

	config, ok := c.(Config)
	if !ok {
		return nil, fmt.Errorf("new: invalid configuration type: %T", c)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	if config.valueFn == nil {
		return nil, fmt.Errorf("new: config has no value function: " +
			"construct the agent with Config.CreateAgent")
	}

	if env.Actions() != numActions {
		return nil, fmt.Errorf("new: montecarlo requires a two-action "+
			"environment\n\twant(%v)\n\thave(%v)", numActions, env.Actions())
	}

	features := env.ObservationLen() + numActions
	if config.valueFn.Features() != features {
		return nil, fmt.Errorf("new: value function takes %v features but "+
			"the environment requires %v", config.valueFn.Features(),
			features)
	}

	policy, err := NewEGreedy(config.valueFn, config.Epsilon,
		config.EpsilonIncrement, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy: %v", err)
	}

	return &MonteCarlo{
		policy:   policy,
		valueFn:  config.valueFn,
		decay:    config.Decay,
		features: features,
		inputs:   make([]float64, 0, config.MaxEpisodeSteps*features),
	}, nil
}

// SelectAction selects an action at the given timestep.
func (m *MonteCarlo) SelectAction(t ts.TimeStep) (int, error) {
	return m.policy.SelectAction(t)
}

// ObserveFirst observes and records the first timestep in an episode.
func (m *MonteCarlo) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %v is not the first "+
			"timestep of its episode", t.Number)
	}

	m.inputs = m.inputs[:0]
	m.steps = 0
	m.prevStep = t
	return nil
}

// Observe records that taking action at the previously observed
// timestep led to nextStep.
//
// The observation an episode ends on is never recorded: no action is
// taken from it, so it has no return.
func (m *MonteCarlo) Observe(action int, nextStep ts.TimeStep) error {
	if action < 0 || action >= numActions {
		return fmt.Errorf("observe: illegal action %v", action)
	}

	obs := m.prevStep.Observation.RawVector().Data
	if len(obs)+numActions != m.features {
		return fmt.Errorf("observe: invalid observation length\n\twant(%v)"+
			"\n\thave(%v)", m.features-numActions, len(obs))
	}

	m.inputs = append(m.inputs, obs...)
	for i := 0; i < numActions; i++ {
		if i == action {
			m.inputs = append(m.inputs, 1.0)
		} else {
			m.inputs = append(m.inputs, 0.0)
		}
	}
	m.steps++

	m.prevStep = nextStep
	return nil
}

// Step updates the agent's value function. A MonteCarlo agent only
// updates after observing the final timestep of an episode; at every
// other timestep Step does nothing.
func (m *MonteCarlo) Step() error {
	if !m.prevStep.Last() || m.steps == 0 {
		return nil
	}

	targets := returns(m.steps, m.decay)
	if err := m.valueFn.Fit(m.inputs, targets); err != nil {
		return fmt.Errorf("step: could not fit value function: %v", err)
	}

	// The trajectory is consumed by the update
	m.inputs = m.inputs[:0]
	m.steps = 0
	return nil
}

// EndEpisode performs cleanup at the end of an episode.
func (m *MonteCarlo) EndEpisode() {
	// Discard any steps that did not end in an update
	m.inputs = m.inputs[:0]
	m.steps = 0
}

// Epsilon returns the current epsilon of the agent's policy.
func (m *MonteCarlo) Epsilon() float64 {
	return m.policy.Epsilon()
}

// Save writes the weights of the agent's value function to the file
// at path.
func (m *MonteCarlo) Save(path string) error {
	return m.valueFn.Save(path)
}

// Load replaces the weights of the agent's value function with those
// in the file at path.
func (m *MonteCarlo) Load(path string) error {
	return m.valueFn.Load(path)
}

// returns computes the discounted return earned at each of the n steps
// of an episode in which every step earns a unit reward. The final
// step's return is 1, and each earlier step's return is one more than
// the following step's return decayed by decay.
func returns(n int, decay float64) []float64 {
	targets := make([]float64, n)

	current := 0.0
	for i := n - 1; i >= 0; i-- {
		current = current*decay + 1.0
		targets[i] = current
	}

	return targets
}
