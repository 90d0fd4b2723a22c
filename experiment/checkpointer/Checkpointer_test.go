package checkpointer

import (
	"reflect"
	"strings"
	"testing"
)

// recordingSaver records the paths it is asked to save to
type recordingSaver struct {
	paths []string
}

func (r *recordingSaver) Save(path string) error {
	r.paths = append(r.paths, path)
	return nil
}

func TestNEpisodeCheckpointsOnInterval(t *testing.T) {
	saver := &recordingSaver{}
	check, err := NewNEpisode(3, saver, EpisodeFilename("weights", ""))
	if err != nil {
		t.Fatalf("could not create checkpointer: %v", err)
	}

	for episode := 0; episode < 10; episode++ {
		if err := check.Checkpoint(episode); err != nil {
			t.Fatalf("could not checkpoint episode %v: %v", episode, err)
		}
	}

	want := []string{"weights0", "weights3", "weights6", "weights9"}
	if !reflect.DeepEqual(saver.paths, want) {
		t.Errorf("wrong checkpoint paths: got %v, want %v", saver.paths,
			want)
	}
}

func TestNewNEpisodeValidatesArguments(t *testing.T) {
	saver := &recordingSaver{}
	filename := EpisodeFilename("weights", "")

	if _, err := NewNEpisode(0, saver, filename); err == nil {
		t.Errorf("no error for a non-positive checkpoint interval")
	}
	if _, err := NewNEpisode(1, nil, filename); err == nil {
		t.Errorf("no error for a nil object")
	}
	if _, err := NewNEpisode(1, saver, nil); err == nil {
		t.Errorf("no error for a nil filename function")
	}
}

func TestEpisodeFilename(t *testing.T) {
	tests := []struct {
		filename  string
		extension string
		episode   int
		want      string
	}{
		{"data/CartPole_MonteCarloW", "", 0, "data/CartPole_MonteCarloW0"},
		{"data/CartPole_MonteCarloW", "", 100, "data/CartPole_MonteCarloW100"},
		{"weights", ".bin", 42, "weights42.bin"},
	}

	for _, test := range tests {
		name := EpisodeFilename(test.filename, test.extension)
		if got := name(test.episode); got != test.want {
			t.Errorf("wrong filename: got %v, want %v", got, test.want)
		}
	}
}

func TestTimeFilename(t *testing.T) {
	name := TimeFilename("weights", ".bin")(0)

	if !strings.HasPrefix(name, "weights-") {
		t.Errorf("filename %v does not start with the given filename", name)
	}
	if !strings.HasSuffix(name, ".bin") {
		t.Errorf("filename %v does not end with the given extension", name)
	}
}
