package montecarlo

import (
	"fmt"

	"github.com/samuelfneumann/gopole/agent"
	env "github.com/samuelfneumann/gopole/environment"
	"github.com/samuelfneumann/gopole/initwfn"
	"github.com/samuelfneumann/gopole/network"
	"github.com/samuelfneumann/gopole/solver"
)

// Default configuration constants
const (
	defaultLayerSize    int     = 30
	defaultNumLayers    int     = 3
	defaultLearningRate float64 = 0.00007

	defaultEpsilon          float64 = 2.0
	defaultEpsilonIncrement float64 = 0.01
	defaultDecay            float64 = 1.0

	defaultMaxEpisodeSteps int = 200
)

// Config implements a configuration for a MonteCarlo agent
type Config struct {
	Layers      []int                 // Hidden layer sizes in neural net
	Biases      []bool                // Whether each hidden layer has a bias
	Activations []*network.Activation // Activation of each hidden layer
	Solver      *solver.Solver        // Solver for learning weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	Epsilon          float64 // Initial policy epsilon
	EpsilonIncrement float64 // Epsilon increase on each exploring step
	Decay            float64 // Per-step decay of future reward

	// MaxEpisodeSteps bounds the number of steps an episode may take
	// and so the batch size of the value function update. It must be
	// at least the episode step limit of the environment the agent
	// acts in.
	MaxEpisodeSteps int

	valueFn network.ValueFunction
}

// DefaultConfig returns a configuration of the MonteCarlo agent with
// all configuration variables set to default values: three hidden
// layers of 30 ReLU units learned with Adam.
func DefaultConfig() (Config, error) {
	layers := make([]int, defaultNumLayers)
	biases := make([]bool, defaultNumLayers)
	activations := make([]*network.Activation, defaultNumLayers)
	for i := 0; i < defaultNumLayers; i++ {
		layers[i] = defaultLayerSize
		biases[i] = true
		activations[i] = network.ReLU()
	}

	// The value function's cost averages over the batch already, so
	// the solver should not divide gradients by the batch size again.
	adam, err := solver.NewDefaultAdam(defaultLearningRate, 1)
	if err != nil {
		return Config{}, fmt.Errorf("defaultconfig: could not create "+
			"solver: %v", err)
	}

	initWFn, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return Config{}, fmt.Errorf("defaultconfig: could not create "+
			"weight initializer: %v", err)
	}

	return Config{
		Layers:      layers,
		Biases:      biases,
		Activations: activations,
		Solver:      adam,
		InitWFn:     initWFn,

		Epsilon:          defaultEpsilon,
		EpsilonIncrement: defaultEpsilonIncrement,
		Decay:            defaultDecay,

		MaxEpisodeSteps: defaultMaxEpisodeSteps,
	}, nil
}

// Validate checks a Config to ensure it is a valid configuration of a
// MonteCarlo agent.
func (c Config) Validate() error {
	if len(c.Layers) != len(c.Biases) {
		return fmt.Errorf("config: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.Layers), len(c.Biases))
	}

	if len(c.Layers) != len(c.Activations) {
		return fmt.Errorf("config: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.Layers), len(c.Activations))
	}

	if c.Solver == nil {
		return fmt.Errorf("config: no solver")
	}

	if c.InitWFn == nil {
		return fmt.Errorf("config: no weight initializer")
	}

	if c.Epsilon <= 0 {
		return fmt.Errorf("config: epsilon must be positive\n\twant(>0)"+
			"\n\thave(%v)", c.Epsilon)
	}

	if c.EpsilonIncrement < 0 {
		return fmt.Errorf("config: epsilon increment cannot be negative"+
			"\n\twant(>=0)\n\thave(%v)", c.EpsilonIncrement)
	}

	if c.Decay < 0 || c.Decay > 1 {
		return fmt.Errorf("config: decay must be in [0, 1]\n\twant([0, 1])"+
			"\n\thave(%v)", c.Decay)
	}

	if c.MaxEpisodeSteps < 1 {
		return fmt.Errorf("config: episodes must have a positive step "+
			"limit\n\twant(>0)\n\thave(%v)", c.MaxEpisodeSteps)
	}

	return nil
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*MonteCarlo)
	return ok
}

// CreateAgent creates a new MonteCarlo agent based on the configuration
func (c Config) CreateAgent(e env.Environment, s uint64) (agent.Agent, error) {
	seed := int64(s)

	features := e.ObservationLen() + numActions

	valueFn, err := network.NewValueMLP(
		features,
		c.MaxEpisodeSteps,
		c.Layers,
		c.Biases,
		c.InitWFn.InitWFn(),
		c.Activations,
		c.Solver,
	)
	if err != nil {
		return &MonteCarlo{}, fmt.Errorf("createagent: could not create "+
			"value function: %v", err)
	}
	c.valueFn = valueFn

	return New(e, c, seed)
}
