// Package styles colors the few messages cmdsieve writes to stderr outside
// of the structured renderers.
package styles

import (
	"os"

	"github.com/muesli/termenv"
)

var stderr = termenv.NewOutput(os.Stderr)

// ERROR colors s red when stderr supports it.
func ERROR(s string) string {
	return stderr.String(s).
		Foreground(stderr.Color("9")).
		String()
}
