package i2cio

import (
	"context"
	"errors"
	"fmt"
)

const (
	// MaxMessages is the largest number of messages the kernel accepts in a single
	// combined transfer (I2C_RDWR_IOCTL_MAX_MSGS).
	MaxMessages = 42
	// MaxLength is the largest payload of a single message.
	MaxLength = 256
	// MaxAddress is the largest 7-bit device address.
	MaxAddress = 127
	// MaxByte is the largest value a write message may carry.
	MaxByte = 255
	// DryRunFill is the byte read buffers are filled with when nothing touches the bus.
	DryRunFill byte = 0x55
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")
var ErrBusClosed = errors.New("no bus open")
var ErrUnsupportedTransaction = errors.New("transaction shape not supported by adapter")

var (
	ErrTooManyMessages = errors.New("too many messages")
	ErrByte            = fmt.Errorf("write value exceeds %d", MaxByte)
	ErrWriteLength     = fmt.Errorf("write length exceeds %d", MaxLength)
	ErrReadLength      = fmt.Errorf("read length must be between 1 and %d", MaxLength)
	ErrAddress         = fmt.Errorf("device address exceeds %d", MaxAddress)
)

type Direction byte

const (
	Write Direction = iota
	Read
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// Message is a single I2C sub-message. For writes Buf holds the bytes to send, for
// reads it is the buffer the adapter fills; in both cases len(Buf) is the message
// length.
type Message struct {
	Addr byte
	Dir  Direction
	Buf  []byte
}

// Bus performs atomic multi-message transfers on one bus at a time.
type Bus interface {
	// Open switches to the given bus, closing the previously open one.
	Open(ctx context.Context, bus int) error
	// Submit executes msgs as one transaction. Read buffers are filled in place.
	Submit(ctx context.Context, msgs []Message) error
	Close() error
}
