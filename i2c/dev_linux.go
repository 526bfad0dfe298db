//go:build linux

package i2c

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/mklimuk/i2cio"
	"github.com/mklimuk/i2cio/ioctx"
)

// from linux/i2c-dev.h and linux/i2c.h
const (
	ioctlRdwr   = 0x0707 // I2C_RDWR
	msgFlagRead = 0x0001 // I2C_M_RD
)

// i2cMsg mirrors struct i2c_msg.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

// rdwrData mirrors struct i2c_rdwr_ioctl_data.
type rdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

var _ i2cio.Bus = &DevBus{}

// DevBus submits transactions to /dev/i2c-N with the kernel combined transfer ioctl.
type DevBus struct {
	fd    int
	path  string
	descs [i2cio.MaxMessages]i2cMsg
}

func NewDevBus() *DevBus {
	return &DevBus{fd: -1}
}

func (b *DevBus) Open(ctx context.Context, bus int) error {
	if err := b.Close(); err != nil {
		return err
	}
	path := DevicePath(bus)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return &os.PathError{Op: "open", Path: path, Err: err}
	}
	b.fd = fd
	b.path = path
	slog.Debug("opened i2c bus", "path", path)
	return nil
}

func (b *DevBus) Submit(ctx context.Context, msgs []i2cio.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if b.fd < 0 {
		return i2cio.ErrBusClosed
	}
	if len(msgs) > len(b.descs) {
		return i2cio.ErrTooManyMessages
	}
	verbose := ioctx.IsVerbose(ctx)
	for i, m := range msgs {
		d := i2cMsg{addr: uint16(m.Addr), len: uint16(len(m.Buf))}
		if m.Dir == i2cio.Read {
			d.flags = msgFlagRead
		} else if verbose {
			slog.Debug("i2c write", "path", b.path, "addr", fmt.Sprintf("0x%02X", m.Addr), "data", hex.EncodeToString(m.Buf))
		}
		if len(m.Buf) > 0 {
			d.buf = uintptr(unsafe.Pointer(&m.Buf[0]))
		}
		b.descs[i] = d
	}
	data := rdwrData{
		msgs:  uintptr(unsafe.Pointer(&b.descs[0])),
		nmsgs: uint32(len(msgs)),
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(b.fd), ioctlRdwr, uintptr(unsafe.Pointer(&data)))
	runtime.KeepAlive(msgs)
	if errno != 0 {
		return fmt.Errorf("I2C_RDWR ioctl failed: %w", errno)
	}
	if verbose {
		for _, m := range msgs {
			if m.Dir == i2cio.Read {
				slog.Debug("i2c read", "path", b.path, "addr", fmt.Sprintf("0x%02X", m.Addr), "data", hex.EncodeToString(m.Buf))
			}
		}
	}
	return nil
}

func (b *DevBus) Close() error {
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	if err != nil {
		return fmt.Errorf("could not close %s: %w", b.path, err)
	}
	return nil
}
