package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func runWith(t *testing.T, input string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"i2cio"}, args...), strings.NewReader(input), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		input string
		out   string
	}{
		{"write then read", []string{"-n"}, "D 0x18 1 W 0x06 R 2", "0x55 0x55 \n"},
		{"two transactions", []string{"--dry-run"}, "D 0x50 0 W 0x00 0x00 ; W 0x01 R 4", "0x55 0x55 0x55 0x55 \n"},
		{"decimal", []string{"-nd"}, "D 0x10 2 R 3", "85 85 85 \n"},
		{"binary", []string{"-nb"}, "D 0x10 2 R 3 R 1", "\x55\x55\x55\x55"},
		{"binary wins over decimal", []string{"-ndb"}, "D 0x10 2 R 2", "\x55\x55"},
		{"comments and case", []string{"-n"}, "d 0x18 1 # set device\n w 0x06 r 2\n", "0x55 0x55 \n"},
		{"empty input", []string{"-n"}, "", ""},
		{"separate flags", []string{"-n", "-d"}, "D 0x10 2 R 1", "85 \n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, out, errOut := runWith(t, tc.input, tc.args...)
			assert.Equal(t, 0, code, errOut)
			assert.Equal(t, tc.out, out)
		})
	}
}

func TestRun_ParseError(t *testing.T) {
	code, out, errOut := runWith(t, "W 0x01", "-n")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, `ERROR: unexpected "W" at line 1 offset 1`)
}

func TestRun_ErrorKeepsEarlierOutput(t *testing.T) {
	code, out, errOut := runWith(t, "D 1 0 R 1 ;\nR 0", "-n")
	assert.Equal(t, 1, code)
	assert.Equal(t, "0x55 \n", out)
	assert.Contains(t, errOut, "at line 2 offset 3")
}

func TestRun_UnexpectedEOF(t *testing.T) {
	code, out, errOut := runWith(t, "D 1 0\nR", "-n")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "unexpected end of input at line 2")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"unknown flag", []string{"-x"}, "flag provided but not defined"},
		{"positional argument", []string{"-n", "foo"}, `unexpected argument "foo"`},
		{"unknown adapter", []string{"-a", "usb"}, `unknown adapter "usb"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, out, errOut := runWith(t, "D 1 0 R 1", tc.args...)
			assert.Equal(t, 2, code)
			assert.Empty(t, out)
			assert.Contains(t, errOut, "USAGE:")
			assert.Contains(t, errOut, tc.msg)
		})
	}
}

func TestRun_Help(t *testing.T) {
	code, out, errOut := runWith(t, "", "-h")
	assert.Equal(t, 0, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "--dry-run")
	assert.Contains(t, errOut, "precedence")
}

func TestRun_BusOpenFailure(t *testing.T) {
	code, out, errOut := runWith(t, "D 1 9999 R 1")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "invalid bus")
	assert.Contains(t, errOut, "at line 1 offset 5")
}

func TestRun_Dump(t *testing.T) {
	code, out, errOut := runWith(t, "D 0x18 1 W 0x06 R 2", "-n", "--dump")
	assert.Equal(t, 0, code)
	assert.Equal(t, "0x55 0x55 \n", out)
	assert.Contains(t, errOut, "bus: 1")
	assert.Contains(t, errOut, "0x18")
	assert.Contains(t, errOut, "dir: read")
}
