package montecarlo

import (
	"testing"

	ts "github.com/samuelfneumann/gopole/timestep"
	"gonum.org/v1/gonum/mat"
)

// neverExplore is an epsilon so large that the exploration probability
// 1/epsilon is negligible
const neverExplore float64 = 1e12

func testStep(obs ...float64) ts.TimeStep {
	return ts.New(ts.First, 0, 1, mat.NewVecDense(len(obs), obs), 0)
}

func TestEGreedySelectsGreedyAction(t *testing.T) {
	tests := []struct {
		values []float64
		action int
	}{
		{[]float64{2, 1}, 0},
		{[]float64{1, 2}, 1},
		{[]float64{1, 1}, 1}, // Ties go to the second action
		{[]float64{-1, -2}, 0},
	}

	for _, test := range tests {
		valueFn := newStubValueFn(6, test.values...)
		policy, err := NewEGreedy(valueFn, neverExplore, 0.01, 14)
		if err != nil {
			t.Fatalf("could not create policy: %v", err)
		}

		action, err := policy.SelectAction(testStep(0.1, 0.2, 0.3, 0.4))
		if err != nil {
			t.Fatalf("could not select action: %v", err)
		}
		if action != test.action {
			t.Errorf("wrong greedy action for values %v: got %v, want %v",
				test.values, action, test.action)
		}
		if policy.Epsilon() != neverExplore {
			t.Errorf("epsilon changed on a greedy step: got %v, want %v",
				policy.Epsilon(), neverExplore)
		}
	}
}

func TestEGreedyExploresWithInverseEpsilonProbability(t *testing.T) {
	// With epsilon = 1 the exploration probability 1/epsilon is 1, so
	// every selection must take the non-greedy action
	valueFn := newStubValueFn(6, 2, 1) // Greedy action is 0
	policy, err := NewEGreedy(valueFn, 1.0, 0.25, 14)
	if err != nil {
		t.Fatalf("could not create policy: %v", err)
	}

	action, err := policy.SelectAction(testStep(0.1, 0.2, 0.3, 0.4))
	if err != nil {
		t.Fatalf("could not select action: %v", err)
	}
	if action != 1 {
		t.Errorf("exploring step took the greedy action")
	}
	if policy.Epsilon() != 1.25 {
		t.Errorf("epsilon after exploring step: got %v, want %v",
			policy.Epsilon(), 1.25)
	}

	// The non-greedy action flips with the greedy one
	policy.SetEpsilon(1.0)
	valueFn.values = []float64{1, 2} // Greedy action is now 1
	action, err = policy.SelectAction(testStep(0.1, 0.2, 0.3, 0.4))
	if err != nil {
		t.Fatalf("could not select action: %v", err)
	}
	if action != 0 {
		t.Errorf("exploring step took the greedy action")
	}
	if policy.Epsilon() != 1.25 {
		t.Errorf("epsilon after exploring step: got %v, want %v",
			policy.Epsilon(), 1.25)
	}
}

func TestEGreedyZeroIncrementKeepsEpsilonFixed(t *testing.T) {
	valueFn := newStubValueFn(6, 2, 1)
	policy, err := NewEGreedy(valueFn, 1.0, 0.0, 14)
	if err != nil {
		t.Fatalf("could not create policy: %v", err)
	}

	for i := 0; i < 10; i++ {
		action, err := policy.SelectAction(testStep(0.1, 0.2, 0.3, 0.4))
		if err != nil {
			t.Fatalf("could not select action: %v", err)
		}
		if action != 1 {
			t.Errorf("exploring step %v took the greedy action", i)
		}
		if policy.Epsilon() != 1.0 {
			t.Errorf("epsilon changed with a zero increment: got %v",
				policy.Epsilon())
		}
	}
}

func TestEGreedyValidatesObservationLength(t *testing.T) {
	valueFn := newStubValueFn(6, 0, 0)
	policy, err := NewEGreedy(valueFn, neverExplore, 0.01, 14)
	if err != nil {
		t.Fatalf("could not create policy: %v", err)
	}

	// The value function takes 6 features, so observations must have
	// 4 features
	if _, err := policy.SelectAction(testStep(0.1, 0.2, 0.3)); err == nil {
		t.Errorf("no error for a short observation")
	}
	step := testStep(0.1, 0.2, 0.3, 0.4, 0.5)
	if _, err := policy.SelectAction(step); err == nil {
		t.Errorf("no error for a long observation")
	}
}

func TestNewEGreedyValidatesArguments(t *testing.T) {
	valueFn := newStubValueFn(6, 0, 0)

	if _, err := NewEGreedy(nil, 2.0, 0.01, 14); err == nil {
		t.Errorf("no error for a nil value function")
	}
	if _, err := NewEGreedy(valueFn, 0.0, 0.01, 14); err == nil {
		t.Errorf("no error for a non-positive epsilon")
	}
	if _, err := NewEGreedy(valueFn, 2.0, -0.01, 14); err == nil {
		t.Errorf("no error for a negative epsilon increment")
	}
}
