package montecarlo

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/samuelfneumann/gopole/environment"
	"github.com/samuelfneumann/gopole/environment/classiccontrol/cartpole"
	ts "github.com/samuelfneumann/gopole/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// stubValueFn is a ValueFunction with fixed predictions that records
// the data it is fit on
type stubValueFn struct {
	features   int
	values     []float64
	fitInputs  [][]float64
	fitTargets [][]float64
}

func newStubValueFn(features int, values ...float64) *stubValueFn {
	return &stubValueFn{features: features, values: values}
}

func (s *stubValueFn) Features() int { return s.features }

func (s *stubValueFn) Predict(inputs []float64) ([]float64, error) {
	if len(inputs) == 0 || len(inputs)%s.features != 0 {
		return nil, fmt.Errorf("predict: invalid input length %v",
			len(inputs))
	}

	rows := len(inputs) / s.features
	values := make([]float64, rows)
	for i := range values {
		values[i] = s.values[i%len(s.values)]
	}
	return values, nil
}

func (s *stubValueFn) Fit(inputs, targets []float64) error {
	s.fitInputs = append(s.fitInputs, append([]float64(nil), inputs...))
	s.fitTargets = append(s.fitTargets, append([]float64(nil), targets...))
	return nil
}

func (s *stubValueFn) Save(path string) error { return nil }

func (s *stubValueFn) Load(path string) error { return nil }

// newBalanceEnv returns a Cartpole environment with the Balance task
func newBalanceEnv(t *testing.T, seed uint64) environment.Environment {
	bounds := make([]r1.Interval, 4)
	for i := range bounds {
		bounds[i] = r1.Interval{
			Min: -cartpole.StartBound,
			Max: cartpole.StartBound,
		}
	}
	starter := environment.NewUniformStarter(bounds, seed)
	task := cartpole.NewBalance(starter, 200, cartpole.FailAngle,
		cartpole.FailPosition)

	env, _, err := cartpole.New(task, 1.0, false)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}
	return env
}

// newStubAgent returns a MonteCarlo agent whose value function is the
// argument stub
func newStubAgent(t *testing.T, stub *stubValueFn) *MonteCarlo {
	config, err := DefaultConfig()
	if err != nil {
		t.Fatalf("could not create config: %v", err)
	}
	config.valueFn = stub

	agent, err := New(newBalanceEnv(t, 14), config, 14)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	return agent
}

func TestReturns(t *testing.T) {
	tests := []struct {
		n     int
		decay float64
		want  []float64
	}{
		{5, 1.0, []float64{5, 4, 3, 2, 1}},
		{3, 0.5, []float64{1.75, 1.5, 1}},
		{1, 0.9, []float64{1}},
	}

	for _, test := range tests {
		got := returns(test.n, test.decay)
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("wrong returns for %v steps with decay %v: got %v, "+
				"want %v", test.n, test.decay, got, test.want)
		}
	}
}

func TestMonteCarloFitsReturnsAtEpisodeEnd(t *testing.T) {
	stub := newStubValueFn(6, 0, 0)
	agent := newStubAgent(t, stub)

	obs := func(v ...float64) *mat.VecDense { return mat.NewVecDense(4, v) }

	first := ts.New(ts.First, 0, 1, obs(0.01, 0.02, 0.03, 0.04), 0)
	if err := agent.ObserveFirst(first); err != nil {
		t.Fatalf("could not observe first step: %v", err)
	}

	second := ts.New(ts.Mid, 1, 1, obs(0.05, 0.06, 0.07, 0.08), 1)
	if err := agent.Observe(0, second); err != nil {
		t.Fatalf("could not observe step: %v", err)
	}

	third := ts.New(ts.Mid, 1, 1, obs(0.09, 0.10, 0.11, 0.12), 2)
	if err := agent.Observe(1, third); err != nil {
		t.Fatalf("could not observe step: %v", err)
	}

	last := ts.New(ts.Last, 1, 1, obs(0.13, 0.14, 0.15, 0.16), 3)
	last.SetEnd(ts.TerminalStateReached)
	if err := agent.Observe(0, last); err != nil {
		t.Fatalf("could not observe step: %v", err)
	}

	if err := agent.Step(); err != nil {
		t.Fatalf("could not update agent: %v", err)
	}

	if len(stub.fitTargets) != 1 {
		t.Fatalf("wrong number of value function updates: got %v, want 1",
			len(stub.fitTargets))
	}

	// Three actions were taken, so three (observation, action) pairs
	// are fit toward returns of 3, 2, and 1. The episode's final
	// observation has no return and is never fit.
	wantTargets := []float64{3, 2, 1}
	if !reflect.DeepEqual(stub.fitTargets[0], wantTargets) {
		t.Errorf("wrong update targets: got %v, want %v",
			stub.fitTargets[0], wantTargets)
	}

	wantInputs := []float64{
		0.01, 0.02, 0.03, 0.04, 1, 0,
		0.05, 0.06, 0.07, 0.08, 0, 1,
		0.09, 0.10, 0.11, 0.12, 1, 0,
	}
	if !reflect.DeepEqual(stub.fitInputs[0], wantInputs) {
		t.Errorf("wrong update inputs: got %v, want %v",
			stub.fitInputs[0], wantInputs)
	}

	// The trajectory is consumed by the update, so stepping again
	// cannot refit it
	if err := agent.Step(); err != nil {
		t.Fatalf("could not update agent: %v", err)
	}
	if len(stub.fitTargets) != 1 {
		t.Errorf("agent refit a consumed trajectory")
	}
}

func TestMonteCarloOnlyFitsAfterEpisodeEnd(t *testing.T) {
	stub := newStubValueFn(6, 0, 0)
	agent := newStubAgent(t, stub)

	obs := mat.NewVecDense(4, []float64{0.01, 0.02, 0.03, 0.04})
	if err := agent.ObserveFirst(ts.New(ts.First, 0, 1, obs, 0)); err != nil {
		t.Fatalf("could not observe first step: %v", err)
	}
	if err := agent.Observe(0, ts.New(ts.Mid, 1, 1, obs, 1)); err != nil {
		t.Fatalf("could not observe step: %v", err)
	}

	if err := agent.Step(); err != nil {
		t.Fatalf("could not update agent: %v", err)
	}
	if len(stub.fitTargets) != 0 {
		t.Errorf("agent updated before the episode ended")
	}
}

func TestMonteCarloEndEpisodeDiscardsTrajectory(t *testing.T) {
	stub := newStubValueFn(6, 0, 0)
	agent := newStubAgent(t, stub)

	obs := mat.NewVecDense(4, []float64{0.01, 0.02, 0.03, 0.04})
	if err := agent.ObserveFirst(ts.New(ts.First, 0, 1, obs, 0)); err != nil {
		t.Fatalf("could not observe first step: %v", err)
	}

	last := ts.New(ts.Last, 1, 1, obs, 1)
	last.SetEnd(ts.Timeout)
	if err := agent.Observe(0, last); err != nil {
		t.Fatalf("could not observe step: %v", err)
	}

	agent.EndEpisode()
	if err := agent.Step(); err != nil {
		t.Fatalf("could not update agent: %v", err)
	}
	if len(stub.fitTargets) != 0 {
		t.Errorf("agent fit a discarded trajectory")
	}
}

func TestMonteCarloObserveValidatesArguments(t *testing.T) {
	stub := newStubValueFn(6, 0, 0)
	agent := newStubAgent(t, stub)

	obs := mat.NewVecDense(4, []float64{0.01, 0.02, 0.03, 0.04})
	if err := agent.ObserveFirst(ts.New(ts.First, 0, 1, obs, 0)); err != nil {
		t.Fatalf("could not observe first step: %v", err)
	}

	next := ts.New(ts.Mid, 1, 1, obs, 1)
	if err := agent.Observe(-1, next); err == nil {
		t.Errorf("no error for a negative action")
	}
	if err := agent.Observe(2, next); err == nil {
		t.Errorf("no error for an out-of-range action")
	}

	mid := ts.New(ts.Mid, 1, 1, obs, 1)
	if err := agent.ObserveFirst(mid); err == nil {
		t.Errorf("no error observing a mid step as the first step")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	env := newBalanceEnv(t, 14)

	config, err := DefaultConfig()
	if err != nil {
		t.Fatalf("could not create config: %v", err)
	}
	if _, err := New(env, config, 14); err == nil {
		t.Errorf("no error for a config without a value function")
	}

	// The environment produces 4-feature observations, so the value
	// function must take 6 features
	config.valueFn = newStubValueFn(5, 0, 0)
	if _, err := New(env, config, 14); err == nil {
		t.Errorf("no error for a value function with wrong features")
	}

	config.valueFn = newStubValueFn(6, 0, 0)
	config.Epsilon = 0
	if _, err := New(env, config, 14); err == nil {
		t.Errorf("no error for an invalid config")
	}
}

func TestConfigValidate(t *testing.T) {
	valid, err := DefaultConfig()
	if err != nil {
		t.Fatalf("could not create config: %v", err)
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		change func(*Config)
	}{
		{"mismatched biases", func(c *Config) { c.Biases = []bool{true} }},
		{"mismatched activations", func(c *Config) {
			c.Activations = c.Activations[:1]
		}},
		{"no solver", func(c *Config) { c.Solver = nil }},
		{"no weight initializer", func(c *Config) { c.InitWFn = nil }},
		{"non-positive epsilon", func(c *Config) { c.Epsilon = 0 }},
		{"negative increment", func(c *Config) { c.EpsilonIncrement = -1 }},
		{"decay above 1", func(c *Config) { c.Decay = 1.1 }},
		{"negative decay", func(c *Config) { c.Decay = -0.1 }},
		{"non-positive step limit", func(c *Config) { c.MaxEpisodeSteps = 0 }},
	}

	for _, test := range tests {
		config, err := DefaultConfig()
		if err != nil {
			t.Fatalf("could not create config: %v", err)
		}
		test.change(&config)
		if err := config.Validate(); err == nil {
			t.Errorf("no error for config with %v", test.name)
		}
	}
}

func TestCreateAgentBuildsWorkingAgent(t *testing.T) {
	env := newBalanceEnv(t, 14)

	config, err := DefaultConfig()
	if err != nil {
		t.Fatalf("could not create config: %v", err)
	}

	a, err := config.CreateAgent(env, 14)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	if !config.ValidAgent(a) {
		t.Errorf("created agent is not valid for its config")
	}

	agent, ok := a.(*MonteCarlo)
	if !ok {
		t.Fatalf("created agent has wrong type %T", a)
	}
	if agent.Epsilon() != defaultEpsilon {
		t.Errorf("wrong starting epsilon: got %v, want %v", agent.Epsilon(),
			defaultEpsilon)
	}

	step, err := env.Reset()
	if err != nil {
		t.Fatalf("could not reset environment: %v", err)
	}
	action, err := agent.SelectAction(step)
	if err != nil {
		t.Fatalf("could not select action: %v", err)
	}
	if action != 0 && action != 1 {
		t.Errorf("illegal action %v", action)
	}
}

func BenchmarkReturns(b *testing.B) {
	for i := 0; i < b.N; i++ {
		returns(200, 1.0)
	}
}
