package checkpointer

import (
	"fmt"

	"github.com/golang/glog"
)

// nEpisode implements checkpointing every N episodes
type nEpisode struct {
	interval int
	object   Saver // Object to save

	// filename returns the string filename of the file to save the
	// object in for a given episode index.
	//
	// If each saved object should be stored in a separate file named
	// by the episode index it was saved on (e.g. file0, file100, ...),
	// use the static function EpisodeFilename, which will return a
	// function that names files this way.
	//
	// Otherwise, if each saved object should be stored in a separate
	// file, but the filename does not matter, use the static function
	// TimeFilename to generate the required naming function. For
	// example:
	//
	// n, err := NewNEpisode(10, object, TimeFilename("filename", ".bin"))
	filename func(episode int) string
}

// NewNEpisode returns a checkpointer that checkpoints on every episode
// index divisible by n: episodes 0, n, 2n, and so on.
func NewNEpisode(n int, object Saver,
	filename func(episode int) string) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newnepisode: checkpoint interval must be "+
			"positive\n\twant(>0)\n\thave(%v)", n)
	}
	if object == nil {
		return nil, fmt.Errorf("newnepisode: no object to checkpoint")
	}
	if filename == nil {
		return nil, fmt.Errorf("newnepisode: no filename function")
	}

	return &nEpisode{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint checkpoints the Checkpointer's tracked object by calling
// its Save() method if episode is a checkpointing index
func (n *nEpisode) Checkpoint(episode int) error {
	if episode%n.interval != 0 {
		return nil
	}

	path := n.filename(episode)
	if err := n.object.Save(path); err != nil {
		return fmt.Errorf("checkpoint: could not save to %v: %v", path, err)
	}
	glog.V(1).Infof("checkpointed to %v", path)

	return nil
}
