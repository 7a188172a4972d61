package device

import "golang.org/x/sys/unix"

func setSystemClock(epoch uint64) error {
	tv := unix.NsecToTimeval(int64(epoch) * 1e9)
	return unix.Settimeofday(&tv)
}
