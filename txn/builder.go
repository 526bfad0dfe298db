// Package txn assembles I2C messages into transactions and hands complete
// transactions to a bus and an output emitter.
package txn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mklimuk/i2cio"
)

var (
	ErrNoMessage   = errors.New("no message in progress")
	ErrMessageOpen = errors.New("message still in progress")
	ErrEmptyWrite  = errors.New("write message has no data")
	ErrPending     = errors.New("transaction pending")
)

// Emitter receives every transaction after the bus has executed it.
type Emitter interface {
	Emit(msgs []i2cio.Message) error
}

type Options struct {
	MaxMessages int
}

type Option func(*Options)

// WithMaxMessages lowers the per-transaction message cap. Values outside
// 1..i2cio.MaxMessages are ignored.
func WithMaxMessages(n int) Option {
	return func(o *Options) {
		if n >= 1 && n <= i2cio.MaxMessages {
			o.MaxMessages = n
		}
	}
}

// Builder holds the transaction being accumulated. Payload buffers for every
// message slot are allocated once and reused across transactions.
type Builder struct {
	bus  i2cio.Bus
	out  Emitter
	max  int
	msgs []i2cio.Message
	bufs [][]byte

	nmsgs   int
	current bool // msgs[nmsgs] has been started but not counted yet
	addr    byte
	busNum  int
}

func New(bus i2cio.Bus, out Emitter, opts ...Option) *Builder {
	config := Options{MaxMessages: i2cio.MaxMessages}
	for _, opt := range opts {
		opt(&config)
	}
	backing := make([]byte, config.MaxMessages*i2cio.MaxLength)
	bufs := make([][]byte, config.MaxMessages)
	for i := range bufs {
		lo, hi := i*i2cio.MaxLength, (i+1)*i2cio.MaxLength
		bufs[i] = backing[lo:hi:hi]
	}
	return &Builder{
		bus:    bus,
		out:    out,
		max:    config.MaxMessages,
		msgs:   make([]i2cio.Message, config.MaxMessages),
		bufs:   bufs,
		busNum: -1,
	}
}

// SetDevice selects the address used by subsequent messages and switches the bus.
// The transaction must have been flushed before.
func (b *Builder) SetDevice(ctx context.Context, addr byte, bus int) error {
	if b.current || b.nmsgs > 0 {
		return ErrPending
	}
	if addr > i2cio.MaxAddress {
		return i2cio.ErrAddress
	}
	if err := b.bus.Open(ctx, bus); err != nil {
		return err
	}
	b.addr = addr
	b.busNum = bus
	slog.Debug("device selected", "addr", fmt.Sprintf("0x%02X", addr), "bus", bus)
	return nil
}

func (b *Builder) BeginRead() error {
	return b.begin(i2cio.Read)
}

func (b *Builder) BeginWrite() error {
	return b.begin(i2cio.Write)
}

func (b *Builder) begin(dir i2cio.Direction) error {
	if b.current {
		return ErrMessageOpen
	}
	if b.nmsgs >= b.max {
		return fmt.Errorf("%w: max %d per transaction", i2cio.ErrTooManyMessages, b.max)
	}
	b.msgs[b.nmsgs] = i2cio.Message{Addr: b.addr, Dir: dir, Buf: b.bufs[b.nmsgs][:0]}
	b.current = true
	return nil
}

// SetReadLength sizes the read message in progress and completes it.
func (b *Builder) SetReadLength(n int) error {
	if !b.currentIs(i2cio.Read) {
		return ErrNoMessage
	}
	if n < 1 || n > i2cio.MaxLength {
		return i2cio.ErrReadLength
	}
	b.msgs[b.nmsgs].Buf = b.bufs[b.nmsgs][:n]
	b.nmsgs++
	b.current = false
	return nil
}

func (b *Builder) AppendWriteByte(v byte) error {
	if !b.currentIs(i2cio.Write) {
		return ErrNoMessage
	}
	m := &b.msgs[b.nmsgs]
	if len(m.Buf) >= i2cio.MaxLength {
		return i2cio.ErrWriteLength
	}
	m.Buf = append(m.Buf, v)
	return nil
}

// CloseCurrent completes the write message in progress.
func (b *Builder) CloseCurrent() error {
	if !b.currentIs(i2cio.Write) {
		return ErrNoMessage
	}
	if len(b.msgs[b.nmsgs].Buf) == 0 {
		return ErrEmptyWrite
	}
	b.nmsgs++
	b.current = false
	return nil
}

// Flush submits the accumulated messages, if any, and emits the read results.
// The transaction is cleared even when the bus fails.
func (b *Builder) Flush(ctx context.Context) error {
	if b.current {
		return ErrMessageOpen
	}
	if b.nmsgs == 0 {
		return nil
	}
	msgs := b.msgs[:b.nmsgs]
	b.nmsgs = 0
	slog.Debug("submitting transaction", "addr", fmt.Sprintf("0x%02X", b.addr), "bus", b.busNum, "messages", len(msgs))
	if err := b.bus.Submit(ctx, msgs); err != nil {
		return err
	}
	return b.out.Emit(msgs)
}

// Pending returns the number of completed messages waiting for a flush.
func (b *Builder) Pending() int {
	return b.nmsgs
}

func (b *Builder) Address() byte {
	return b.addr
}

func (b *Builder) MaxMessages() int {
	return b.max
}

func (b *Builder) currentIs(dir i2cio.Direction) bool {
	return b.current && b.msgs[b.nmsgs].Dir == dir
}
