package modbus

// Sink accumulates outgoing bytes without the engine ever allocating memory itself.
// Push and PushSlice report ErrOOBContext if the sink is out of room; the engine never
// retries a failed push, it aborts the response in progress and surfaces the error.
type Sink interface {
	Push(b byte) error
	PushSlice(b []byte) error
}

// SliceSink is a [Sink] backed by a fixed-capacity byte slice supplied by the caller.
// It never grows; once full, further pushes fail with ErrOutOfBoundsContext. This is
// the sink a no-heap host (an embedded RTU slave, say) hands to the engine.
type SliceSink struct {
	buf []byte
	n   int
}

// NewSliceSink wraps buf as a Sink. Writes start at offset 0 and stop once len(buf)
// bytes have been pushed.
func NewSliceSink(buf []byte) *SliceSink {
	return &SliceSink{buf: buf}
}

func (s *SliceSink) Push(b byte) error {
	if s.n >= len(s.buf) {
		return ErrOutOfBoundsContext
	}
	s.buf[s.n] = b
	s.n++
	return nil
}

func (s *SliceSink) PushSlice(b []byte) error {
	if s.n+len(b) > len(s.buf) {
		return ErrOutOfBoundsContext
	}
	copy(s.buf[s.n:], b)
	s.n += len(b)
	return nil
}

// Bytes returns the portion of the backing slice written so far.
func (s *SliceSink) Bytes() []byte { return s.buf[:s.n] }

// Len reports how many bytes have been pushed.
func (s *SliceSink) Len() int { return s.n }

// Reset rewinds the sink to empty without discarding the backing slice.
func (s *SliceSink) Reset() { s.n = 0 }

// GrowingSink is a [Sink] backed by a Go slice that grows as needed. It never reports
// ErrOutOfBoundsContext; it exists for hosts (CLI tools, tests) that do not need a
// fixed-capacity buffer.
type GrowingSink struct {
	buf []byte
}

func (s *GrowingSink) Push(b byte) error {
	s.buf = append(s.buf, b)
	return nil
}

func (s *GrowingSink) PushSlice(b []byte) error {
	s.buf = append(s.buf, b...)
	return nil
}

// Bytes returns the accumulated bytes.
func (s *GrowingSink) Bytes() []byte { return s.buf }

// Reset empties the sink, retaining its backing array for reuse.
func (s *GrowingSink) Reset() { s.buf = s.buf[:0] }
