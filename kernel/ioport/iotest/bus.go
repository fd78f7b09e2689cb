// Package iotest provides an ioport.Bus that records port traffic and plays
// back canned device responses. It is meant for driver tests.
package iotest

import (
	"gopher386/kernel/ioport"
	"testing"
)

// Dir is the direction of a port transfer.
type Dir uint8

// The supported transfer directions.
const (
	In Dir = iota
	Out
)

// Access describes a single port transfer.
type Access struct {
	Dir   Dir
	Port  uint16
	Width uint8
	Value uint32
}

// Bus is an ioport.Bus that logs every transfer. Reads are served from a per
// port queue populated via Feed; once the queue is drained a read returns the
// value last written to (or Set on) the port, which makes every port behave
// like a loopback register.
type Bus struct {
	// Log contains all transfers in the order they were issued.
	Log []Access

	queued map[uint16][]uint32
	latch  map[uint16]uint32
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{
		queued: make(map[uint16][]uint32),
		latch:  make(map[uint16]uint32),
	}
}

// Install creates a Bus, routes all ioport traffic through it and restores
// the CPU bus when the test completes.
func Install(t testing.TB) *Bus {
	b := NewBus()
	ioport.SetBus(b)
	t.Cleanup(func() { ioport.SetBus(nil) })
	return b
}

// Feed queues values to be returned by subsequent reads from port.
func (b *Bus) Feed(port uint16, values ...uint32) {
	b.queued[port] = append(b.queued[port], values...)
}

// Set sets the value returned by reads from port once its queue is empty.
func (b *Bus) Set(port uint16, v uint32) {
	b.latch[port] = v
}

// Writes returns the values written to port in the order they were written.
func (b *Bus) Writes(port uint16) []uint32 {
	var out []uint32
	for _, a := range b.Log {
		if a.Dir == Out && a.Port == port {
			out = append(out, a.Value)
		}
	}
	return out
}

// Filter returns the logged transfers that do not target any of the ignored
// ports.
func (b *Bus) Filter(ignore ...uint16) []Access {
	var out []Access
next:
	for _, a := range b.Log {
		for _, port := range ignore {
			if a.Port == port {
				continue next
			}
		}
		out = append(out, a)
	}
	return out
}

// Reset clears the transfer log.
func (b *Bus) Reset() {
	b.Log = b.Log[:0]
}

func (b *Bus) read(port uint16, width uint8) uint32 {
	v := b.latch[port]
	if q := b.queued[port]; len(q) != 0 {
		v, b.queued[port] = q[0], q[1:]
	}
	b.Log = append(b.Log, Access{Dir: In, Port: port, Width: width, Value: v})
	return v
}

func (b *Bus) write(port uint16, width uint8, v uint32) {
	b.latch[port] = v
	b.Log = append(b.Log, Access{Dir: Out, Port: port, Width: width, Value: v})
}

// In8 implements ioport.Bus.
func (b *Bus) In8(port uint16) uint8 { return uint8(b.read(port, 1)) }

// Out8 implements ioport.Bus.
func (b *Bus) Out8(port uint16, v uint8) { b.write(port, 1, uint32(v)) }

// In16 implements ioport.Bus.
func (b *Bus) In16(port uint16) uint16 { return uint16(b.read(port, 2)) }

// Out16 implements ioport.Bus.
func (b *Bus) Out16(port uint16, v uint16) { b.write(port, 2, uint32(v)) }

// In32 implements ioport.Bus.
func (b *Bus) In32(port uint16) uint32 { return b.read(port, 4) }

// Out32 implements ioport.Bus.
func (b *Bus) Out32(port uint16, v uint32) { b.write(port, 4, v) }
