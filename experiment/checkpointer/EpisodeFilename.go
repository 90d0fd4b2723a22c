package checkpointer

import "fmt"

// EpisodeFilename returns a function which names checkpoint files by
// suffixing the episode index to a filename. The filename parameter is
// the full filename with its path, while the extension parameter
// determines the file extension, if any.
func EpisodeFilename(filename, extension string) func(int) string {
	return func(episode int) string {
		return fmt.Sprintf("%v%v%v", filename, episode, extension)
	}
}
