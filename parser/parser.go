// Package parser reads the i2cio command language and drives a transaction
// assembler.
//
// The language is a stream of tokens:
//
//	D addr bus        select device address (0-127) and bus for the following R/W
//	R length          read length bytes (1-256)
//	W byte [byte...]  write one or more bytes (0-255)
//	;                 end the current transaction
//	# ...             comment to end of line
//
// Command letters are case insensitive, numbers follow C strtoul base 0 rules and
// line breaks carry no meaning. Messages accumulate into one transaction until ';',
// the next D or the end of input.
package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mklimuk/i2cio"
)

// Assembler receives the operations decoded from the command stream.
type Assembler interface {
	SetDevice(ctx context.Context, addr byte, bus int) error
	BeginRead() error
	SetReadLength(n int) error
	BeginWrite() error
	AppendWriteByte(v byte) error
	CloseCurrent() error
	Flush(ctx context.Context) error
}

type Parser struct {
	asm   Assembler
	state State
	line  int
	addr  byte
}

func New(asm Assembler) *Parser {
	return &Parser{asm: asm, state: StateInit}
}

func (p *Parser) State() State {
	return p.state
}

// Run consumes r line by line and finishes the stream at end of input.
func (p *Parser) Run(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := br.ReadString('\n')
		if len(text) > 0 {
			if perr := p.Feed(ctx, text); perr != nil {
				return perr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("input error in line %d: %w", p.line+1, err)
		}
	}
	return p.Finish(ctx)
}

// Feed parses one line of input.
func (p *Parser) Feed(ctx context.Context, text string) error {
	p.line++
	ofs := 0
	for ofs < len(text) {
		c := text[ofs]
		switch {
		case isSpace(c):
			ofs++
		case c == '#':
			return nil
		case c >= '0' && c <= '9':
			n, end := scanNumber(text, ofs)
			if err := p.number(ctx, n, text[ofs:end]); err != nil {
				return p.errorAt(ofs, err)
			}
			ofs = end
		default:
			if err := p.command(ctx, c); err != nil {
				return p.errorAt(ofs, err)
			}
			ofs++
		}
	}
	return nil
}

// Finish handles the end of input: a write in progress is completed and any
// pending transaction is flushed.
func (p *Parser) Finish(ctx context.Context) error {
	switch p.state {
	case StateWriting:
		if err := p.asm.CloseCurrent(); err != nil {
			return err
		}
		fallthrough
	case StateIdle:
		if err := p.asm.Flush(ctx); err != nil {
			return err
		}
		p.state = StateIdle
	case StateInit:
	default:
		return &PositionError{Line: p.line, Err: ErrUnexpectedEOF}
	}
	return nil
}

func (p *Parser) command(ctx context.Context, c byte) error {
	switch c {
	case 'D', 'd':
		return p.device(ctx, c)
	case 'R', 'r':
		return p.message(c, p.asm.BeginRead, StateRead)
	case 'W', 'w':
		return p.message(c, p.asm.BeginWrite, StateWrite)
	case ';':
		return p.boundary(ctx, c)
	}
	return invalid(c)
}

func (p *Parser) device(ctx context.Context, c byte) error {
	switch p.state {
	case StateWriting:
		if err := p.asm.CloseCurrent(); err != nil {
			return err
		}
		fallthrough
	case StateIdle:
		if err := p.asm.Flush(ctx); err != nil {
			return err
		}
	case StateInit:
	default:
		return unexpected(string(c))
	}
	p.state = StateAddr
	return nil
}

func (p *Parser) message(c byte, begin func() error, next State) error {
	switch p.state {
	case StateWriting:
		if err := p.asm.CloseCurrent(); err != nil {
			return err
		}
	case StateIdle:
	default:
		return unexpected(string(c))
	}
	if err := begin(); err != nil {
		return err
	}
	p.state = next
	return nil
}

func (p *Parser) boundary(ctx context.Context, c byte) error {
	switch p.state {
	case StateWriting:
		if err := p.asm.CloseCurrent(); err != nil {
			return err
		}
		fallthrough
	case StateIdle:
		if err := p.asm.Flush(ctx); err != nil {
			return err
		}
		p.state = StateIdle
	case StateInit:
		// no device yet, nothing to end
	default:
		return unexpected(string(c))
	}
	return nil
}

func (p *Parser) number(ctx context.Context, n uint64, literal string) error {
	switch p.state {
	case StateAddr:
		if n > i2cio.MaxAddress {
			return i2cio.ErrAddress
		}
		p.addr = byte(n)
		p.state = StateBus
	case StateBus:
		if n > math.MaxInt32 {
			return ErrBusNumber
		}
		if err := p.asm.SetDevice(ctx, p.addr, int(n)); err != nil {
			return fmt.Errorf("invalid bus: %w", err)
		}
		p.state = StateIdle
	case StateRead:
		if n == 0 || n > i2cio.MaxLength {
			return i2cio.ErrReadLength
		}
		if err := p.asm.SetReadLength(int(n)); err != nil {
			return err
		}
		p.state = StateIdle
	case StateWrite, StateWriting:
		if n > i2cio.MaxByte {
			return i2cio.ErrByte
		}
		if err := p.asm.AppendWriteByte(byte(n)); err != nil {
			return err
		}
		p.state = StateWriting
	default:
		return unexpected(literal)
	}
	return nil
}

func (p *Parser) errorAt(ofs int, err error) error {
	return &PositionError{Line: p.line, Column: ofs + 1, Err: err}
}
