package sysquery

import (
	"errors"
	"strings"
	"syscall"
	"testing"
)

func TestReadStringGrows(t *testing.T) {
	long := strings.Repeat("x", 700)
	f := &Fake{Strings: map[string]string{"machdep.cpu.brand_string": long}}

	got, err := ReadString(f, "machdep.cpu.brand_string", 256)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != long {
		t.Errorf("got %d bytes, want %d", len(got), len(long))
	}

	want := []int{256, 512, 1024}
	if len(f.StringBufSizes) != len(want) {
		t.Fatalf("buffer sizes = %v, want %v", f.StringBufSizes, want)
	}
	for i, n := range want {
		if f.StringBufSizes[i] != n {
			t.Fatalf("buffer sizes = %v, want %v", f.StringBufSizes, want)
		}
	}
}

func TestReadStringFitsFirstTry(t *testing.T) {
	f := &Fake{Strings: map[string]string{"kern.ostype": "Darwin"}}

	got, err := ReadString(f, "kern.ostype", 256)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != "Darwin" {
		t.Errorf("got %q, want Darwin", got)
	}
	if len(f.StringBufSizes) != 1 {
		t.Errorf("String called %d times, want 1", len(f.StringBufSizes))
	}
}

func TestReadStringHardError(t *testing.T) {
	f := &Fake{Errs: map[string]error{"kern.ostype": syscall.EPERM}}

	_, err := ReadString(f, "kern.ostype", 256)
	if !errors.Is(err, syscall.EPERM) {
		t.Errorf("err = %v, want EPERM", err)
	}
	if len(f.StringBufSizes) != 1 {
		t.Errorf("String called %d times, want 1", len(f.StringBufSizes))
	}
}

func TestReadStringDefaultInitial(t *testing.T) {
	f := &Fake{Strings: map[string]string{"kern.version": "v1"}}

	if _, err := ReadString(f, "kern.version", 0); err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if f.StringBufSizes[0] != 256 {
		t.Errorf("initial buffer = %d, want 256", f.StringBufSizes[0])
	}
}

func TestIsInsufficientBuffer(t *testing.T) {
	if !IsInsufficientBuffer(ErrInsufficientBuffer) {
		t.Error("ErrInsufficientBuffer not recognized")
	}
	if !IsInsufficientBuffer(syscall.ENOMEM) {
		t.Error("ENOMEM not recognized")
	}
	if IsInsufficientBuffer(syscall.EPERM) {
		t.Error("EPERM misclassified as buffer error")
	}
	if IsInsufficientBuffer(ErrUnsupported) {
		t.Error("ErrUnsupported misclassified as buffer error")
	}
}

func TestDescribe(t *testing.T) {
	msg, code := Describe(syscall.ENOENT)
	if code != int(syscall.ENOENT) {
		t.Errorf("code = %d, want %d", code, int(syscall.ENOENT))
	}
	if msg == "" {
		t.Error("empty message for errno")
	}

	msg, code = Describe(ErrUnsupported)
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
	if msg != ErrUnsupported.Error() {
		t.Errorf("msg = %q", msg)
	}
}

func TestFakeBufferContract(t *testing.T) {
	f := &Fake{Strings: map[string]string{"k": "abcdef"}}

	// len(value)+1 must fit, mirroring the NUL byte of the native call.
	buf := make([]byte, 6)
	if _, err := f.String("k", buf); !IsInsufficientBuffer(err) {
		t.Errorf("err = %v, want insufficient buffer", err)
	}

	buf = make([]byte, 7)
	n, err := f.String("k", buf)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if string(buf[:n]) != "abcdef" {
		t.Errorf("read %q", buf[:n])
	}
}
