package i2c

import (
	"errors"
	"fmt"
)

// DevicePathFormat is the character device of an i2c-dev bus.
const DevicePathFormat = "/dev/i2c-%d"

var ErrUnsupportedPlatform = errors.New("i2c-dev buses are only available on linux")

func DevicePath(bus int) string {
	return fmt.Sprintf(DevicePathFormat, bus)
}
