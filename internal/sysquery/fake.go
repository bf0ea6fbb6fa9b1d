package sysquery

// Fake is an in-memory Source for resolver tests. Queries not present
// in any map fail with ErrUnsupported. String honors the caller-buffer
// contract, so tests exercise buffer-growth loops for real.
type Fake struct {
	Ints    map[string]int64
	Strings map[string]string
	Errs    map[string]error

	// Calls records every query name in invocation order.
	Calls []string

	// StringBufSizes records the buffer length of each String call.
	StringBufSizes []int
}

var _ Source = (*Fake)(nil)

func (f *Fake) Int32(name string) (int32, error) {
	f.Calls = append(f.Calls, name)
	if err, ok := f.Errs[name]; ok {
		return 0, err
	}
	if v, ok := f.Ints[name]; ok {
		return int32(v), nil
	}
	return 0, ErrUnsupported
}

func (f *Fake) Int64(name string) (int64, error) {
	f.Calls = append(f.Calls, name)
	if err, ok := f.Errs[name]; ok {
		return 0, err
	}
	if v, ok := f.Ints[name]; ok {
		return v, nil
	}
	return 0, ErrUnsupported
}

func (f *Fake) String(name string, buf []byte) (int, error) {
	f.Calls = append(f.Calls, name)
	f.StringBufSizes = append(f.StringBufSizes, len(buf))
	if err, ok := f.Errs[name]; ok {
		return 0, err
	}
	v, ok := f.Strings[name]
	if !ok {
		return 0, ErrUnsupported
	}
	if len(v)+1 > len(buf) {
		return 0, ErrInsufficientBuffer
	}
	return copy(buf, v), nil
}
