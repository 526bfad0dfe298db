//go:build !linux

package i2c

import (
	"context"

	"github.com/mklimuk/i2cio"
)

var _ i2cio.Bus = &DevBus{}

type DevBus struct{}

func NewDevBus() *DevBus {
	return &DevBus{}
}

func (b *DevBus) Open(ctx context.Context, bus int) error {
	return ErrUnsupportedPlatform
}

func (b *DevBus) Submit(ctx context.Context, msgs []i2cio.Message) error {
	return ErrUnsupportedPlatform
}

func (b *DevBus) Close() error {
	return nil
}
