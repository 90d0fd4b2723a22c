// Package checkpointer implements periodic saving of experiment
// objects, such as agent weights, to disk
package checkpointer

// A Saver is an object that can save itself to a file
type Saver interface {
	Save(path string) error
}

// Checkpointer saves objects periodically as an experiment's episodes
// complete
type Checkpointer interface {
	Checkpoint(episode int) error
}
