package i2c

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/i2cio"
)

var _ i2cio.Bus = &PeriphBus{}

// PeriphBus reaches the bus through the periph.io driver registry. periph exposes a
// single write-then-read transfer per call, so only transactions shaped [W], [R] or
// [W R] can be submitted atomically.
type PeriphBus struct {
	initOnce sync.Once
	initErr  error
	bus      i2c.BusCloser
}

func NewPeriphBus() *PeriphBus {
	return &PeriphBus{}
}

func (b *PeriphBus) init() error {
	b.initOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			b.initErr = fmt.Errorf("could not init host: %w", err)
			return
		}
		for _, driver := range state.Loaded {
			slog.Debug("periph driver loaded", "driver", driver.String())
		}
	})
	return b.initErr
}

func (b *PeriphBus) Open(ctx context.Context, num int) error {
	if err := b.init(); err != nil {
		return err
	}
	if err := b.Close(); err != nil {
		return err
	}
	bus, err := i2creg.Open(strconv.Itoa(num))
	if err != nil {
		return fmt.Errorf("could not open i2c bus %d: %w", num, err)
	}
	b.bus = bus
	slog.Debug("opened periph i2c bus", "bus", bus.String())
	return nil
}

func (b *PeriphBus) Submit(ctx context.Context, msgs []i2cio.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if b.bus == nil {
		return i2cio.ErrBusClosed
	}
	w, r, err := txShape(msgs)
	if err != nil {
		return err
	}
	err = b.bus.Tx(uint16(msgs[0].Addr), w, r)
	if err != nil {
		return fmt.Errorf("could not transfer on i2c bus %x: %w", msgs[0].Addr, err)
	}
	return nil
}

func (b *PeriphBus) Close() error {
	if b.bus == nil {
		return nil
	}
	err := b.bus.Close()
	b.bus = nil
	return err
}

// txShape maps a transaction onto the write and read halves of a single Tx call.
func txShape(msgs []i2cio.Message) (w, r []byte, err error) {
	switch {
	case len(msgs) == 1 && msgs[0].Dir == i2cio.Read:
		return nil, msgs[0].Buf, nil
	case len(msgs) == 1:
		return msgs[0].Buf, nil, nil
	case len(msgs) == 2 && msgs[0].Dir == i2cio.Write && msgs[1].Dir == i2cio.Read:
		return msgs[0].Buf, msgs[1].Buf, nil
	}
	return nil, nil, fmt.Errorf("%w: %s", i2cio.ErrUnsupportedTransaction, describe(msgs))
}

func describe(msgs []i2cio.Message) string {
	s := "["
	for i, m := range msgs {
		if i > 0 {
			s += " "
		}
		if m.Dir == i2cio.Read {
			s += "R"
		} else {
			s += "W"
		}
	}
	return s + "]"
}
