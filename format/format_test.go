package format

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mklimuk/i2cio"
)

func TestModeFromFlags(t *testing.T) {
	tests := []struct {
		decimal, binary bool
		expected        Mode
	}{
		{false, false, Hex},
		{true, false, Decimal},
		{false, true, Binary},
		{true, true, Binary},
	}
	for _, test := range tests {
		t.Run(test.expected.String(), func(t *testing.T) {
			assert.Equal(t, test.expected, ModeFromFlags(test.decimal, test.binary))
		})
	}
}

func transaction() []i2cio.Message {
	return []i2cio.Message{
		{Addr: 0x18, Dir: i2cio.Write, Buf: []byte{0x06}},
		{Addr: 0x18, Dir: i2cio.Read, Buf: []byte{0x00, 0x0A, 0xFF}},
		{Addr: 0x18, Dir: i2cio.Write, Buf: []byte{0x07, 0x08}},
		{Addr: 0x18, Dir: i2cio.Read, Buf: []byte{0x55}},
	}
}

func TestFormatter_Emit(t *testing.T) {
	tests := []struct {
		mode     Mode
		expected string
	}{
		{Hex, "0x00 0x0A 0xFF \n0x55 \n"},
		{Decimal, "0 10 255 \n85 \n"},
		{Binary, "\x00\x0a\xff\x55"},
	}
	for _, test := range tests {
		t.Run(test.mode.String(), func(t *testing.T) {
			var out bytes.Buffer
			err := New(&out, test.mode).Emit(transaction())
			assert.NoError(t, err)
			assert.Equal(t, test.expected, out.String())
		})
	}
}

func TestFormatter_WriteOnly(t *testing.T) {
	var out bytes.Buffer
	err := New(&out, Hex).Emit([]i2cio.Message{{Addr: 0x50, Dir: i2cio.Write, Buf: []byte{0x00, 0x00}}})
	assert.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestFormatter_FullLengthLine(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, i2cio.MaxLength)
	var out bytes.Buffer
	err := New(&out, Hex).Emit([]i2cio.Message{{Dir: i2cio.Read, Buf: data}})
	assert.NoError(t, err)
	assert.Equal(t, 5*i2cio.MaxLength+1, out.Len())
	assert.Equal(t, byte('\n'), out.Bytes()[out.Len()-1])
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestFormatter_WriteError(t *testing.T) {
	err := New(failingWriter{}, Decimal).Emit(transaction())
	assert.ErrorContains(t, err, "broken pipe")
}
