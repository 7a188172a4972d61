//go:build !linux

package device

import "errors"

func setSystemClock(epoch uint64) error {
	return errors.New("setting the clock is only supported on linux")
}
