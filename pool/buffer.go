package pool

// Buffer is an owned byte payload handed to the pool. Ownership is explicit:
// submitting a Buffer transfers it, and Transfer empties the source so stale
// references cannot observe or mutate bytes the pool now owns. This models a
// transferable buffer as a move, not a convention.
//
// The zero-copy handoff is an optimization, not a correctness requirement:
// Clone exists for callers that need to keep their bytes.
type Buffer struct {
	data []byte
}

// NewBuffer wraps b, taking ownership. The caller must not touch b afterward;
// use Clone first when the bytes are still needed.
func NewBuffer(b []byte) *Buffer { return &Buffer{data: b} }

// NewBufferString copies s into a fresh Buffer.
func NewBufferString(s string) *Buffer { return &Buffer{data: []byte(s)} }

// Transfer moves the payload into a new Buffer and empties the receiver.
func (b *Buffer) Transfer() *Buffer {
	if b == nil {
		return &Buffer{}
	}
	moved := &Buffer{data: b.data}
	b.data = nil
	return moved
}

// Clone returns an independent copy, leaving the receiver intact.
func (b *Buffer) Clone() *Buffer {
	if b == nil || b.data == nil {
		return &Buffer{}
	}
	c := make([]byte, len(b.data))
	copy(c, b.data)
	return &Buffer{data: c}
}

// Bytes borrows the payload without transferring ownership.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Len reports the payload size.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}
