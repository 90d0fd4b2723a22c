package checkpointer

import (
	"fmt"
	"time"
)

// TimeFilename returns a function which will append to a filename the
// number of nanoseconds since January 1, 1970, ignoring the episode
// index.
func TimeFilename(filename, extension string) func(int) string {
	return func(int) string {
		return fmt.Sprintf("%v-%v%v", filename, time.Now().UnixNano(),
			extension)
	}
}
