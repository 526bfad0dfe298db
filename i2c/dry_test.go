package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2cio"
)

func TestDryBus_FillsReads(t *testing.T) {
	b := NewDryBus()
	ctx := context.Background()
	require.NoError(t, b.Open(ctx, 7))

	msgs := []i2cio.Message{
		{Addr: 0x50, Dir: i2cio.Write, Buf: []byte{0x00, 0x01}},
		{Addr: 0x50, Dir: i2cio.Read, Buf: make([]byte, 4)},
	}
	require.NoError(t, b.Submit(ctx, msgs))
	assert.Equal(t, []byte{0x00, 0x01}, msgs[0].Buf, "write payload must not be touched")
	assert.Equal(t, []byte{0x55, 0x55, 0x55, 0x55}, msgs[1].Buf)
	assert.NoError(t, b.Close())
}
