// Command gopole trains a Monte Carlo value prediction agent to
// balance the cartpole.
//
// By default the agent runs on the native cartpole environment. With
// the -gym_url flag it runs against a remote OpenAI gym HTTP API
// server instead. Checkpoints of the value function weights are
// written every -checkpoint_every episodes, and a checkpoint can be
// loaded back with -resume_from to continue a run.
package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/samuelfneumann/gopole/agent/montecarlo"
	"github.com/samuelfneumann/gopole/environment"
	"github.com/samuelfneumann/gopole/environment/classiccontrol/cartpole"
	"github.com/samuelfneumann/gopole/environment/gym"
	"github.com/samuelfneumann/gopole/experiment"
	"github.com/samuelfneumann/gopole/experiment/checkpointer"
	"github.com/samuelfneumann/gopole/experiment/tracker"
	"github.com/samuelfneumann/gopole/initwfn"
	"github.com/samuelfneumann/gopole/network"
	"github.com/samuelfneumann/gopole/solver"
	"gonum.org/v1/gonum/spatial/r1"
)

var (
	configPath = flag.String("config", "", "path to a JSON agent "+
		"configuration file")
	episodes = flag.Int("episodes", 10000, "number of episodes to run")
	every    = flag.Int("checkpoint_every", 100, "number of episodes "+
		"between checkpoints")
	basePath = flag.String("base_path", ".", "directory checkpoints and "+
		"tracked data are written to")
	prefix = flag.String("prefix", "CartPole_MonteCarloW", "checkpoint "+
		"filename prefix, suffixed with the episode index")
	resumeFrom = flag.String("resume_from", "", "weights file to load "+
		"before training")
	render  = flag.Bool("render", false, "render the environment")
	verbose = flag.Bool("verbose", false, "log per-fit and per-checkpoint "+
		"detail")
	seed   = flag.Uint64("seed", 14, "random seed")
	gymURL = flag.String("gym_url", "", "base URL of a gym HTTP API "+
		"server to run against instead of the native cartpole")
	gymID = flag.String("gym_env", "CartPole-v0", "gym environment ID "+
		"to create when -gym_url is given")

	learningRate = flag.Float64("learning_rate", 0.00007, "Adam step size")
	decay        = flag.Float64("decay", 1.0, "per-step decay of future "+
		"reward")
	hiddenWidth = flag.Int("hidden_width", 30, "width of each hidden "+
		"layer")
	maxEpisodeSteps = flag.Int("max_episode_steps", 200, "step limit per "+
		"episode")
)

func main() {
	flag.Parse()
	flag.Set("logtostderr", "true")
	if *verbose {
		flag.Set("v", "1")
	}
	defer glog.Flush()

	config, err := loadConfig()
	if err != nil {
		glog.Fatalf("could not configure agent: %v", err)
	}

	if err := os.MkdirAll(*basePath, 0755); err != nil {
		glog.Fatalf("could not create checkpoint directory: %v", err)
	}

	env, cleanup, err := newEnvironment(config.MaxEpisodeSteps)
	if err != nil {
		glog.Fatalf("could not create environment: %v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	a, err := config.CreateAgent(env, *seed)
	if err != nil {
		glog.Fatalf("could not create agent: %v", err)
	}
	agent := a.(*montecarlo.MonteCarlo)

	if *resumeFrom != "" {
		if err := agent.Load(*resumeFrom); err != nil {
			glog.Fatalf("could not load weights from %v: %v", *resumeFrom,
				err)
		}
		glog.Infof("resumed from %v", *resumeFrom)
	}

	check, err := checkpointer.NewNEpisode(*every, agent,
		checkpointer.EpisodeFilename(filepath.Join(*basePath, *prefix), ""))
	if err != nil {
		glog.Fatalf("could not create checkpointer: %v", err)
	}

	trackers := []tracker.Tracker{
		tracker.NewEpisodeLength(filepath.Join(*basePath,
			"episodeLengths.bin")),
		tracker.NewReturn(filepath.Join(*basePath, "returns.bin")),
	}

	exp, err := experiment.NewOnline(env, agent, *episodes, trackers,
		[]checkpointer.Checkpointer{check})
	if err != nil {
		glog.Fatalf("could not create experiment: %v", err)
	}

	if err := exp.Run(); err != nil {
		glog.Fatalf("experiment failed: %v", err)
	}
	if err := exp.Save(); err != nil {
		glog.Fatalf("could not save tracked data: %v", err)
	}
}

// loadConfig builds the agent configuration from defaults, an optional
// JSON configuration file, and any explicitly set command line flags,
// in that order of precedence.
func loadConfig() (montecarlo.Config, error) {
	config, err := montecarlo.DefaultConfig()
	if err != nil {
		return montecarlo.Config{}, err
	}

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return montecarlo.Config{}, err
		}
		if err := json.Unmarshal(data, &config); err != nil {
			return montecarlo.Config{}, err
		}
	}

	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "learning_rate":
			adam, err := solver.NewDefaultAdam(*learningRate, 1)
			if err != nil {
				flagErr = err
				return
			}
			config.Solver = adam
		case "decay":
			config.Decay = *decay
		case "hidden_width":
			layers := make([]int, len(config.Layers))
			biases := make([]bool, len(config.Layers))
			activations := make([]*network.Activation, len(config.Layers))
			for i := range layers {
				layers[i] = *hiddenWidth
				biases[i] = true
				activations[i] = network.ReLU()
			}
			config.Layers = layers
			config.Biases = biases
			config.Activations = activations
		case "max_episode_steps":
			config.MaxEpisodeSteps = *maxEpisodeSteps
		}
	})
	if flagErr != nil {
		return montecarlo.Config{}, flagErr
	}

	if config.InitWFn == nil {
		init, err := initwfn.NewGlorotU(1.0)
		if err != nil {
			return montecarlo.Config{}, err
		}
		config.InitWFn = init
	}

	return config, config.Validate()
}

// newEnvironment returns the environment to train on: the native
// cartpole, or a remote gym environment when -gym_url is given. The
// returned cleanup function, if any, releases server-side resources.
func newEnvironment(episodeSteps int) (environment.Environment, func(),
	error) {
	if *gymURL != "" {
		env, _, err := gym.New(*gymURL, *gymID, 1.0, *render)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := env.Close(); err != nil {
				glog.Warningf("could not close gym environment: %v", err)
			}
		}
		return env, cleanup, nil
	}

	bounds := make([]r1.Interval, 4)
	for i := range bounds {
		bounds[i] = r1.Interval{
			Min: -cartpole.StartBound,
			Max: cartpole.StartBound,
		}
	}
	starter := environment.NewUniformStarter(bounds, *seed)
	task := cartpole.NewBalance(starter, episodeSteps, cartpole.FailAngle,
		cartpole.FailPosition)

	env, _, err := cartpole.New(task, 1.0, *render)
	if err != nil {
		return nil, nil, err
	}
	return env, nil, nil
}
