package kfmt

import "io"

// ringBufferSize is the capacity of the early output buffer. It holds the
// boot log produced before the serial console is attached and must be a
// power of 2.
const ringBufferSize = 2048

// ringBuffer is a fixed-size byte queue that drops its oldest contents when
// full.
type ringBuffer struct {
	buffer [ringBufferSize]byte
	head   int
	count  int
}

// Len returns the number of unread bytes.
func (rb *ringBuffer) Len() int {
	return rb.count
}

// Write appends p to the buffer, overwriting the oldest unread bytes once
// the buffer is full. It never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[(rb.head+rb.count)&(ringBufferSize-1)] = b
		if rb.count == ringBufferSize {
			rb.head = (rb.head + 1) & (ringBufferSize - 1)
		} else {
			rb.count++
		}
	}

	return len(p), nil
}

// Read drains up to len(p) bytes into p. It returns io.EOF once the buffer
// is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.count == 0 {
		return 0, io.EOF
	}

	// Copy the contiguous run starting at head; a wrapped buffer is
	// drained over two calls.
	n := ringBufferSize - rb.head
	if n > rb.count {
		n = rb.count
	}
	n = copy(p, rb.buffer[rb.head:rb.head+n])

	rb.head = (rb.head + n) & (ringBufferSize - 1)
	rb.count -= n

	return n, nil
}
