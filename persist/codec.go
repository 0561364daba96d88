// Package persist holds the versioned byte primitives behaviors serialize
// through and the save-slot storage those bytes end up in.
package persist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrVersionMismatch = errors.New("persist: version mismatch")
	ErrShortRead       = errors.New("persist: unexpected end of data")
	ErrStringTooLong   = errors.New("persist: string too long")
)

const maxStringLen = 1 << 16

// VersionError reports a serialized form written with a version this build
// does not understand.
type VersionError struct {
	Type     string
	Expected uint16
	Found    uint16
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("persist: incompatible %s version: %d (expected %d)", e.Type, e.Found, e.Expected)
}

func (e *VersionError) Unwrap() error {
	return ErrVersionMismatch
}

// Writer appends little-endian primitives to an in-memory buffer. The first
// failure sticks; later writes are dropped and Err reports it.
type Writer struct {
	buf bytes.Buffer
	err error
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) WriteVersion(v uint16) {
	w.put(v)
}

func (w *Writer) WriteBool(v bool) {
	var b uint8
	if v {
		b = 1
	}
	w.put(b)
}

func (w *Writer) WriteInt(v int) {
	w.put(int64(v))
}

func (w *Writer) WriteFloat64(v float64) {
	w.put(math.Float64bits(v))
}

func (w *Writer) WriteString(s string) {
	if len(s) >= maxStringLen {
		w.fail(fmt.Errorf("%w: %d bytes", ErrStringTooLong, len(s)))
		return
	}
	w.put(uint32(len(s)))
	if w.err == nil {
		w.buf.WriteString(s)
	}
}

func (w *Writer) put(v any) {
	if w.err != nil {
		return
	}
	w.fail(binary.Write(&w.buf, binary.LittleEndian, v))
}

func (w *Writer) fail(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Reader mirrors Writer. After the first failure every read returns the
// zero value and Err reports the failure.
type Reader struct {
	r   *bytes.Reader
	err error
}

func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

func (r *Reader) Err() error {
	return r.err
}

// Remaining reports how many unread bytes are left.
func (r *Reader) Remaining() int {
	return r.r.Len()
}

func (r *Reader) ReadVersion() uint16 {
	var v uint16
	r.get(&v)
	return v
}

// ExpectVersion reads a version tag and fails unless it equals want.
func (r *Reader) ExpectVersion(typeName string, want uint16) error {
	found := r.ReadVersion()
	if r.err != nil {
		return fmt.Errorf("persist: read %s version: %w", typeName, r.err)
	}
	if found != want {
		r.err = &VersionError{Type: typeName, Expected: want, Found: found}
		return r.err
	}
	return nil
}

func (r *Reader) ReadBool() bool {
	var b uint8
	r.get(&b)
	return b != 0
}

func (r *Reader) ReadInt() int {
	var v int64
	r.get(&v)
	return int(v)
}

func (r *Reader) ReadFloat64() float64 {
	var bits uint64
	r.get(&bits)
	return math.Float64frombits(bits)
}

func (r *Reader) ReadString() string {
	var n uint32
	r.get(&n)
	if r.err != nil {
		return ""
	}
	if int(n) > r.r.Len() {
		r.err = ErrShortRead
		return ""
	}
	b := make([]byte, n)
	if _, err := r.r.Read(b); err != nil && n > 0 {
		r.err = ErrShortRead
		return ""
	}
	return string(b)
}

func (r *Reader) get(v any) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.r, binary.LittleEndian, v); err != nil {
		r.err = ErrShortRead
	}
}
