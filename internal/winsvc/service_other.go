//go:build !windows

package winsvc

import (
	"context"
	"errors"
)

// Definition describes a service registration; unused off Windows.
type Definition struct {
	Name        string
	DisplayName string
	Description string
	ExePath     string
	Args        []string
}

var errUnsupported = errors.New("windows services are not supported on this platform")

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool { return false }

// RunService is not supported on non-Windows platforms.
func RunService(_ string, _ func(ctx context.Context) error) error {
	return errUnsupported
}

// SetupEventLog is a no-op on non-Windows platforms.
func SetupEventLog(_ string) {}

// Install is not supported on non-Windows platforms.
func Install(Definition) error { return errUnsupported }

// Uninstall is not supported on non-Windows platforms.
func Uninstall(string) error { return errUnsupported }

// ExePath is only meaningful on Windows.
func ExePath() (string, error) {
	return "", errors.New("ExePath is only used on Windows")
}
