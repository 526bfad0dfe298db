package console

import (
	"fmt"
	"io"
	"os"
)

var errWriter io.Writer = os.Stderr

// SetOutput redirects diagnostics. Standard output is never used here since it
// carries read data.
func SetOutput(w io.Writer) {
	errWriter = w
}

func Error(msg string) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Red("ERROR"), msg)
}

func Warnf(msg string, args ...interface{}) {
	_, _ = fmt.Fprintf(errWriter, "%s: %s\n", Yellow("WARN"), fmt.Sprintf(msg, args...))
}
