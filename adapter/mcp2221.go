package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/i2cio"
	"github.com/mklimuk/i2cio/ioctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// HID command codes
const (
	cmdStatus        byte = 0x10
	cmdGetData       byte = 0x40
	cmdWrite         byte = 0x90
	cmdRead          byte = 0x91
	cmdWriteRepeated byte = 0x92
	cmdReadRepeated  byte = 0x93
	cmdWriteNoStop   byte = 0x94
)

const reportSize = 64

// MaxPayload is the largest message the bridge moves in a single report.
const MaxPayload = 60

var ErrCommandFailed = errors.New("command failed")
var ErrDeviceNotFound = errors.New("MCP2221 device not found")
var ErrPayloadTooLarge = fmt.Errorf("message exceeds %d bytes", MaxPayload)

var _ i2cio.Bus = &MCP2221{}

// Opener returns the HID handle of the index-th bridge.
type Opener func(index int) (io.ReadWriteCloser, error)

type MCP2221Opts struct {
	ResponseWait time.Duration
	Opener       Opener
}

type MCP2221Opt func(*MCP2221Opts)

func WithResponseWait(wait time.Duration) MCP2221Opt {
	return func(o *MCP2221Opts) {
		o.ResponseWait = wait
	}
}

func WithOpener(opener Opener) MCP2221Opt {
	return func(o *MCP2221Opts) {
		o.Opener = opener
	}
}

// MCP2221 is a Microchip USB to I2C bridge. The bus number given to Open selects
// the bridge among the enumerated devices.
//
// A STOP condition follows every read and every write except a write-no-stop, so
// the bridge executes [W], [R], [W R] and [W W] atomically and rejects other
// transactions.
type MCP2221 struct {
	mx           sync.Mutex
	dev          io.ReadWriteCloser
	open         Opener
	request      []byte
	response     []byte
	responseWait time.Duration
}

type MCP2221Status struct {
	I2CDataBufferCounter   int
	I2CSpeedDivider        int
	I2CTimeout             int
	CurrentAddress         string
	LastWriteRequestedSize uint16
	LastWriteSentSize      uint16
	ReadPending            int
}

func NewMCP2221(opts ...MCP2221Opt) *MCP2221 {
	config := MCP2221Opts{
		ResponseWait: 50 * time.Millisecond,
		Opener:       openHID,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &MCP2221{
		open:         config.Opener,
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: config.ResponseWait,
	}
}

func openHID(index int) (io.ReadWriteCloser, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, ErrDeviceNotFound
	}
	if index < 0 || index >= len(devs) {
		return nil, fmt.Errorf("no device with id %d (%d found)", index, len(devs))
	}
	dev, err := devs[index].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) Open(ctx context.Context, bus int) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.close(); err != nil {
		return err
	}
	dev, err := d.open(bus)
	if err != nil {
		return err
	}
	d.dev = dev
	slog.Debug("opened MCP2221", "index", bus)
	return nil
}

func (d *MCP2221) Close() error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.close()
}

func (d *MCP2221) close() error {
	if d.dev == nil {
		return nil
	}
	err := d.dev.Close()
	d.dev = nil
	if err != nil {
		return fmt.Errorf("could not close MCP2221: %w", err)
	}
	return nil
}

func (d *MCP2221) Submit(ctx context.Context, msgs []i2cio.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.dev == nil {
		return i2cio.ErrBusClosed
	}
	cmds, err := commands(msgs)
	if err != nil {
		return err
	}
	for i, m := range msgs {
		if m.Dir == i2cio.Read {
			err = d.readFromAddr(ctx, cmds[i], m.Addr, m.Buf)
		} else {
			err = d.writeToAddr(ctx, cmds[i], m.Addr, m.Buf)
		}
		if err != nil {
			d.release(ctx)
			return fmt.Errorf("message %d: %w", i+1, err)
		}
	}
	return nil
}

// commands picks the bridge command for every message of a transaction.
func commands(msgs []i2cio.Message) ([]byte, error) {
	for _, m := range msgs {
		if len(m.Buf) > MaxPayload {
			return nil, ErrPayloadTooLarge
		}
	}
	switch {
	case len(msgs) == 1 && msgs[0].Dir == i2cio.Read:
		return []byte{cmdRead}, nil
	case len(msgs) == 1:
		return []byte{cmdWrite}, nil
	case len(msgs) == 2 && msgs[0].Dir == i2cio.Write && msgs[1].Dir == i2cio.Read:
		return []byte{cmdWriteNoStop, cmdReadRepeated}, nil
	case len(msgs) == 2 && msgs[0].Dir == i2cio.Write:
		return []byte{cmdWriteNoStop, cmdWriteRepeated}, nil
	}
	return nil, fmt.Errorf("%w: MCP2221 holds the bus for at most one write followed by one message", i2cio.ErrUnsupportedTransaction)
}

func (d *MCP2221) writeToAddr(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	// write could not be performed
	if d.response[1] == 0x01 {
		slog.Debug("adapter busy")
		return i2cio.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) readFromAddr(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		slog.Debug("adapter busy")
		return i2cio.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdGetData
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == 0x41 {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

// release cancels the transfer in progress so the engine accepts new commands.
func (d *MCP2221) release(ctx context.Context) {
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = 0x10
	err := d.send(ctx)
	if err != nil {
		slog.Warn("could not release MCP2221 bus", "error", err)
		return
	}
	status := bufferToStatus(d.response)
	slog.Debug("released MCP2221 bus", "status", *status)
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

func (d *MCP2221) send(ctx context.Context) error {
	verbose := ioctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter", "report", hex.Dump(d.request))
	}
	n, err := d.dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	timer := time.NewTimer(d.responseWait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	n, err = d.dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.Debug("read message from adapter", "report", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
