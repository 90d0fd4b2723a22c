package montecarlo

import (
	"fmt"
	"math/rand"

	"github.com/samuelfneumann/gopole/network"
	ts "github.com/samuelfneumann/gopole/timestep"
)

// numActions is the number of actions the policy chooses between. The
// exploration rule flips between the greedy action and its single
// alternative, so exactly two actions are supported.
const numActions int = 2

// EGreedy implements an epsilon greedy policy over a two-action
// environment using a learned value function.
//
// Unlike the usual formulation, epsilon here is the INVERSE of the
// exploration probability: the policy explores with probability
// 1/epsilon, so larger epsilon means less exploration. Epsilon grows
// by a fixed increment whenever exploration actually occurs, and only
// then. Exploration therefore decays at a data-dependent rate rather
// than on a fixed schedule.
type EGreedy struct {
	valueFn   network.ValueFunction
	epsilon   float64
	increment float64
	rng       *rand.Rand
}

// NewEGreedy creates and returns a new EGreedy policy that selects
// among the actions of a two-action environment using valueFn. The
// policy explores with probability 1/epsilon, adding increment to
// epsilon each time it does.
func NewEGreedy(valueFn network.ValueFunction, epsilon, increment float64,
	seed int64) (*EGreedy, error) {
	if valueFn == nil {
		return nil, fmt.Errorf("newegreedy: no value function given")
	}
	if epsilon <= 0 {
		return nil, fmt.Errorf("newegreedy: epsilon must be positive"+
			"\n\thave(%v)", epsilon)
	}
	if increment < 0 {
		return nil, fmt.Errorf("newegreedy: epsilon increment cannot be "+
			"negative\n\thave(%v)", increment)
	}

	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &EGreedy{
		valueFn:   valueFn,
		epsilon:   epsilon,
		increment: increment,
		rng:       rng,
	}, nil
}

// SelectAction selects an action at the given timestep.
//
// The policy queries the value function once per action, pairing the
// observation with each action's one-hot encoding. The action with the
// higher predicted value is the greedy choice; ties go to the second
// action. With probability 1/epsilon the policy takes the non-greedy
// action instead and grows epsilon by its increment.
func (e *EGreedy) SelectAction(t ts.TimeStep) (int, error) {
	obs := t.Observation.RawVector().Data
	if len(obs)+numActions != e.valueFn.Features() {
		return 0, fmt.Errorf("selectaction: invalid observation length"+
			"\n\twant(%v)\n\thave(%v)", e.valueFn.Features()-numActions,
			len(obs))
	}

	// One candidate input row per action
	inputs := make([]float64, 0, numActions*e.valueFn.Features())
	for action := 0; action < numActions; action++ {
		inputs = append(inputs, obs...)
		for i := 0; i < numActions; i++ {
			if i == action {
				inputs = append(inputs, 1.0)
			} else {
				inputs = append(inputs, 0.0)
			}
		}
	}

	values, err := e.valueFn.Predict(inputs)
	if err != nil {
		return 0, fmt.Errorf("selectaction: could not predict action "+
			"values: %v", err)
	}

	greedy := 1
	if values[0] > values[1] {
		greedy = 0
	}

	// With probability 1/epsilon take the non-greedy action
	if e.rng.Float64() < 1.0/e.epsilon {
		e.epsilon += e.increment
		return 1 - greedy, nil
	}

	return greedy, nil
}

// Epsilon returns the policy's current epsilon value.
func (e *EGreedy) Epsilon() float64 {
	return e.epsilon
}

// SetEpsilon sets the policy's epsilon value.
func (e *EGreedy) SetEpsilon(epsilon float64) {
	e.epsilon = epsilon
}
