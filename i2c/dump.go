package i2c

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/i2cio"
)

var _ i2cio.Bus = &Dumper{}

// DumpMessage is the YAML form of a submitted message.
type DumpMessage struct {
	Addr string `yaml:"addr"`
	Dir  string `yaml:"dir"`
	Len  int    `yaml:"len"`
	Data string `yaml:"data"`
}

// DumpTransaction is the YAML document written for every submitted transaction.
type DumpTransaction struct {
	Bus      int           `yaml:"bus"`
	Messages []DumpMessage `yaml:"messages"`
	Error    string        `yaml:"error,omitempty"`
}

// Dumper forwards everything to the wrapped bus and writes each submitted
// transaction, with the data read back, as a YAML document.
type Dumper struct {
	next    i2cio.Bus
	enc     *yaml.Encoder
	bus     int
	encoded bool
}

func NewDumper(next i2cio.Bus, w io.Writer) *Dumper {
	return &Dumper{next: next, enc: yaml.NewEncoder(w), bus: -1}
}

func (d *Dumper) Open(ctx context.Context, bus int) error {
	err := d.next.Open(ctx, bus)
	if err != nil {
		return err
	}
	d.bus = bus
	return nil
}

func (d *Dumper) Submit(ctx context.Context, msgs []i2cio.Message) error {
	err := d.next.Submit(ctx, msgs)
	doc := DumpTransaction{Bus: d.bus, Messages: make([]DumpMessage, 0, len(msgs))}
	for _, m := range msgs {
		doc.Messages = append(doc.Messages, DumpMessage{
			Addr: fmt.Sprintf("0x%02X", m.Addr),
			Dir:  m.Dir.String(),
			Len:  len(m.Buf),
			Data: fmt.Sprintf("% X", m.Buf),
		})
	}
	if err != nil {
		doc.Error = err.Error()
	}
	d.encoded = true
	if encErr := d.enc.Encode(doc); encErr != nil && err == nil {
		return fmt.Errorf("could not dump transaction: %w", encErr)
	}
	return err
}

func (d *Dumper) Close() error {
	var encErr error
	// the encoder only has a stream to terminate once a document was written
	if d.encoded {
		encErr = d.enc.Close()
	}
	if err := d.next.Close(); err != nil {
		return err
	}
	return encErr
}
