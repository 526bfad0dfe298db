// Package format renders the read buffers of a completed transaction.
package format

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mklimuk/i2cio"
)

type Mode int

const (
	// Hex prints one line per read message, each byte as 0xHH followed by a space.
	Hex Mode = iota
	// Decimal is Hex with unpadded decimal values.
	Decimal
	// Binary writes the raw bytes with no separators.
	Binary
)

func (m Mode) String() string {
	switch m {
	case Decimal:
		return "decimal"
	case Binary:
		return "binary"
	default:
		return "hex"
	}
}

// ModeFromFlags resolves the output flags: binary wins over decimal wins over hex.
func ModeFromFlags(decimal, binary bool) Mode {
	switch {
	case binary:
		return Binary
	case decimal:
		return Decimal
	}
	return Hex
}

type Formatter struct {
	w    io.Writer
	mode Mode
	buf  []byte
}

func New(w io.Writer, mode Mode) *Formatter {
	return &Formatter{w: w, mode: mode, buf: make([]byte, 0, 5*i2cio.MaxLength+1)}
}

func (f *Formatter) Mode() Mode {
	return f.mode
}

// Emit writes the read messages of msgs in order. Write messages are skipped.
func (f *Formatter) Emit(msgs []i2cio.Message) error {
	for _, m := range msgs {
		if m.Dir != i2cio.Read {
			continue
		}
		if err := f.emit(m.Buf); err != nil {
			return fmt.Errorf("could not write read data: %w", err)
		}
	}
	return nil
}

func (f *Formatter) emit(data []byte) error {
	if f.mode == Binary {
		_, err := f.w.Write(data)
		return err
	}
	line := f.buf[:0]
	for _, b := range data {
		if f.mode == Decimal {
			line = strconv.AppendUint(line, uint64(b), 10)
		} else {
			line = append(line, '0', 'x', hexDigits[b>>4], hexDigits[b&0x0F])
		}
		line = append(line, ' ')
	}
	line = append(line, '\n')
	f.buf = line
	_, err := f.w.Write(line)
	return err
}

const hexDigits = "0123456789ABCDEF"
