package sysquery

// ReadString reads a variable-length string parameter, starting with a
// buffer of initial bytes and doubling until the value fits. Any error
// other than a too-small buffer is returned to the caller.
func ReadString(src Source, name string, initial int) (string, error) {
	if initial <= 0 {
		initial = 256
	}
	buf := make([]byte, initial)
	for {
		n, err := src.String(name, buf)
		if err == nil {
			return string(buf[:n]), nil
		}
		if !IsInsufficientBuffer(err) {
			return "", err
		}
		buf = make([]byte, len(buf)*2)
	}
}
