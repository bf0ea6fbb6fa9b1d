//go:build darwin

package sysquery

import "golang.org/x/sys/unix"

// sysctlSource reads kernel parameters through sysctlbyname.
type sysctlSource struct{}

// New returns the native sysctl-backed source.
func New() Source { return sysctlSource{} }

func (sysctlSource) Int32(name string) (int32, error) {
	v, err := unix.SysctlUint32(name)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

func (sysctlSource) Int64(name string) (int64, error) {
	v, err := unix.SysctlUint64(name)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// String preserves the classic sysctlbyname buffer contract: the value
// lands in buf, and a too-small buf reports ENOMEM. unix.Sysctl sizes
// the kernel read internally, so only the copy is bounded here.
func (sysctlSource) String(name string, buf []byte) (int, error) {
	v, err := unix.Sysctl(name)
	if err != nil {
		return 0, err
	}
	if len(v)+1 > len(buf) {
		return 0, unix.ENOMEM
	}
	return copy(buf, v), nil
}
