//go:build !darwin

package sysquery

// unsupportedSource fails every query. Resolvers treat the failures the
// same as any other missing kernel parameter and leave facts absent.
type unsupportedSource struct{}

// New returns a source whose queries all fail with ErrUnsupported.
func New() Source { return unsupportedSource{} }

func (unsupportedSource) Int32(string) (int32, error) { return 0, ErrUnsupported }

func (unsupportedSource) Int64(string) (int64, error) { return 0, ErrUnsupported }

func (unsupportedSource) String(string, []byte) (int, error) { return 0, ErrUnsupported }
