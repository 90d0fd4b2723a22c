package experiment

import (
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/samuelfneumann/gopole/experiment/checkpointer"
	"github.com/samuelfneumann/gopole/experiment/tracker"
	ts "github.com/samuelfneumann/gopole/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// stubEnv is an Environment whose episodes always take a fixed number
// of steps, with a reward of 1 on each step
type stubEnv struct {
	episodeLength int
	current       ts.TimeStep
	renders       int
}

func (s *stubEnv) Reset() (ts.TimeStep, error) {
	s.current = ts.New(ts.First, 0, 1, mat.NewVecDense(4, nil), 0)
	return s.current, nil
}

func (s *stubEnv) Step(action int) (ts.TimeStep, bool, error) {
	number := s.current.Number + 1

	stepType := ts.Mid
	step := ts.New(stepType, 1, 1, mat.NewVecDense(4, nil), number)
	if number >= s.episodeLength {
		step.StepType = ts.Last
		step.SetEnd(ts.TerminalStateReached)
	}

	s.current = step
	return step, step.Last(), nil
}

func (s *stubEnv) Render() { s.renders++ }

func (s *stubEnv) Actions() int { return 2 }

func (s *stubEnv) ObservationLen() int { return 4 }

func (s *stubEnv) CurrentTimeStep() ts.TimeStep { return s.current }

func (s *stubEnv) String() string { return "Stub" }

func (s *stubEnv) Start() *mat.VecDense { return mat.NewVecDense(4, nil) }

func (s *stubEnv) End(t *ts.TimeStep) bool { return t.Last() }

func (s *stubEnv) GetReward(_ mat.Vector, _ int, _ mat.Vector) float64 {
	return 1
}

func (s *stubEnv) AtGoal(_ mat.Matrix) bool { return false }

func (s *stubEnv) Min() float64 { return 0 }

func (s *stubEnv) Max() float64 { return 1 }

// stubAgent counts the agent callbacks an experiment makes
type stubAgent struct {
	observeFirsts int
	observes      int
	steps         int
	endEpisodes   int
}

func (s *stubAgent) ObserveFirst(ts.TimeStep) error {
	s.observeFirsts++
	return nil
}

func (s *stubAgent) Observe(int, ts.TimeStep) error {
	s.observes++
	return nil
}

func (s *stubAgent) Step() error {
	s.steps++
	return nil
}

func (s *stubAgent) EndEpisode() { s.endEpisodes++ }

func (s *stubAgent) SelectAction(ts.TimeStep) (int, error) { return 0, nil }

// stubSaver records the paths it is asked to save to
type stubSaver struct {
	paths []string
}

func (s *stubSaver) Save(path string) error {
	s.paths = append(s.paths, path)
	return nil
}

func TestOnlineRunDrivesAgentTrackersAndCheckpointers(t *testing.T) {
	const episodes, episodeLength, interval = 5, 3, 2

	dir := t.TempDir()
	env := &stubEnv{episodeLength: episodeLength}
	agent := &stubAgent{}
	saver := &stubSaver{}

	lengthFile := filepath.Join(dir, "lengths.bin")
	returnFile := filepath.Join(dir, "returns.bin")
	trackers := []tracker.Tracker{
		tracker.NewEpisodeLength(lengthFile),
		tracker.NewReturn(returnFile),
	}

	check, err := checkpointer.NewNEpisode(interval, saver,
		checkpointer.EpisodeFilename(filepath.Join(dir, "W"), ""))
	if err != nil {
		t.Fatalf("could not create checkpointer: %v", err)
	}

	exp, err := NewOnline(env, agent, episodes, trackers,
		[]checkpointer.Checkpointer{check})
	if err != nil {
		t.Fatalf("could not create experiment: %v", err)
	}
	if err := exp.Run(); err != nil {
		t.Fatalf("could not run experiment: %v", err)
	}

	// Each episode observes one first step, then acts, observes, and
	// steps the agent once per environmental step
	if agent.observeFirsts != episodes {
		t.Errorf("wrong number of first observations: got %v, want %v",
			agent.observeFirsts, episodes)
	}
	if agent.observes != episodes*episodeLength {
		t.Errorf("wrong number of observations: got %v, want %v",
			agent.observes, episodes*episodeLength)
	}
	if agent.steps != episodes*episodeLength {
		t.Errorf("wrong number of agent updates: got %v, want %v",
			agent.steps, episodes*episodeLength)
	}
	if agent.endEpisodes != episodes {
		t.Errorf("wrong number of episode ends: got %v, want %v",
			agent.endEpisodes, episodes)
	}
	if env.renders != episodes*episodeLength {
		t.Errorf("wrong number of rendered frames: got %v, want %v",
			env.renders, episodes*episodeLength)
	}

	// Episodes 0, 2, and 4 are checkpointing indices
	wantPaths := []string{
		filepath.Join(dir, "W0"),
		filepath.Join(dir, "W2"),
		filepath.Join(dir, "W4"),
	}
	if !reflect.DeepEqual(saver.paths, wantPaths) {
		t.Errorf("wrong checkpoint paths: got %v, want %v", saver.paths,
			wantPaths)
	}

	if err := exp.Save(); err != nil {
		t.Fatalf("could not save tracked data: %v", err)
	}

	lengths, err := tracker.LoadData(lengthFile)
	if err != nil {
		t.Fatalf("could not load episode lengths: %v", err)
	}
	if !floats.Equal(lengths, []float64{3, 3, 3, 3, 3}) {
		t.Errorf("wrong episode lengths: got %v", lengths)
	}

	returns, err := tracker.LoadData(returnFile)
	if err != nil {
		t.Fatalf("could not load returns: %v", err)
	}
	if !floats.Equal(returns, []float64{3, 3, 3, 3, 3}) {
		t.Errorf("wrong returns: got %v", returns)
	}
}

func TestOnlineRegisterAddsTracker(t *testing.T) {
	dir := t.TempDir()
	env := &stubEnv{episodeLength: 2}

	exp, err := NewOnline(env, &stubAgent{}, 1, nil, nil)
	if err != nil {
		t.Fatalf("could not create experiment: %v", err)
	}

	lengthFile := filepath.Join(dir, "lengths.bin")
	exp.Register(tracker.NewEpisodeLength(lengthFile))

	if err := exp.Run(); err != nil {
		t.Fatalf("could not run experiment: %v", err)
	}
	if err := exp.Save(); err != nil {
		t.Fatalf("could not save tracked data: %v", err)
	}

	lengths, err := tracker.LoadData(lengthFile)
	if err != nil {
		t.Fatalf("could not load episode lengths: %v", err)
	}
	if !floats.Equal(lengths, []float64{2}) {
		t.Errorf("wrong episode lengths: got %v", lengths)
	}
}

// failingAgent fails to select actions
type failingAgent struct {
	stubAgent
}

func (f *failingAgent) SelectAction(ts.TimeStep) (int, error) {
	return 0, fmt.Errorf("selectaction: no action available")
}

func TestOnlineRunEpisodeReportsAgentErrors(t *testing.T) {
	env := &stubEnv{episodeLength: 2}

	exp, err := NewOnline(env, &failingAgent{}, 1, nil, nil)
	if err != nil {
		t.Fatalf("could not create experiment: %v", err)
	}
	if err := exp.RunEpisode(); err == nil {
		t.Errorf("no error from an agent that cannot select actions")
	}
}

func TestNewOnlineValidatesEpisodes(t *testing.T) {
	env := &stubEnv{episodeLength: 2}

	if _, err := NewOnline(env, &stubAgent{}, 0, nil, nil); err == nil {
		t.Errorf("no error for an experiment with no episodes")
	}
}
