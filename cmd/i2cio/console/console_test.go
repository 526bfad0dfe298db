package console

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestDiagnostics(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Error("read length must be between 1 and 256 at line 1 offset 12")
	Warnf("could not close bus: %v", "busy")
	assert.Equal(t, "ERROR: read length must be between 1 and 256 at line 1 offset 12\nWARN: could not close bus: busy\n", buf.String())
}

func TestExit(t *testing.T) {
	err := Exit(2, "unexpected argument %q", "foo")
	assert.Equal(t, 2, err.ExitCode())
	assert.Equal(t, `unexpected argument "foo"`, err.Error())
}
