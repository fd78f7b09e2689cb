// Package pic drives the two cascaded 8259-compatible programmable interrupt
// controllers found on PC-compatible machines.
package pic

import "gopher386/kernel/ioport"

const (
	masterControl = ioport.Port(0x20)
	masterData    = ioport.Port(0x21)
	slaveControl  = ioport.Port(0xa0)
	slaveData     = ioport.Port(0xa1)

	// icw1 selects edge-triggered, cascade mode and announces that ICW4
	// follows.
	icw1 = 0x11

	// icw4 selects 8086/88 mode.
	icw4 = 0x01

	// cascadeMaster tells the master that a slave is attached to IRQ2;
	// cascadeSlave tells the slave its cascade identity (IRQ2 of master).
	cascadeMaster = 0x02
	cascadeSlave  = 0x04

	// unmaskAll is the initial interrupt mask: all lines enabled.
	unmaskAll = 0x00

	// eoi is the non-specific End-Of-Interrupt OCW2 command.
	eoi = 0x20

	// SlaveIRQBase is the first IRQ line routed through the slave.
	SlaveIRQBase = 8
)

// PIC describes one 8259 controller. PIC values hold no state besides their
// fixed port addresses; obtain them with Master or Slave whenever needed
// instead of sharing them.
type PIC struct {
	control ioport.Port
	data    ioport.Port
	master  bool
}

// Master returns the master controller (IRQ 0-7).
func Master() PIC {
	return PIC{control: masterControl, data: masterData, master: true}
}

// Slave returns the slave controller (IRQ 8-15), cascaded on master IRQ2.
func Slave() PIC {
	return PIC{control: slaveControl, data: slaveData}
}

// IsMaster returns true if p is the master controller.
func (p PIC) IsMaster() bool {
	return p.master
}

// RemapTo reprograms the controller so that its eight IRQ lines are delivered
// to the CPU as vectors start to start+7. The ICW sequence also unmasks all
// lines. start must be a multiple of 8; the controller ignores the low three
// bits in 8086 mode.
func (p PIC) RemapTo(start uint8) {
	typ := uint8(cascadeSlave)
	if p.master {
		typ = cascadeMaster
	}

	p.control.Out8(icw1)
	ioport.Delay()

	seq := [...]uint8{start, typ, icw4, unmaskAll}
	for _, b := range seq {
		p.data.Out8(b)
		ioport.Delay()
	}
}

// EndOfInterrupt tells the controller that the interrupt it delivered last
// has been serviced.
func (p PIC) EndOfInterrupt() {
	p.control.Out8(eoi)
}

// SetMask replaces the interrupt mask register. A set bit disables the
// corresponding IRQ line.
func (p PIC) SetMask(mask uint8) {
	p.data.Out8(mask)
}

// Mask returns the current interrupt mask register.
func (p PIC) Mask() uint8 {
	return p.data.In8()
}

// Acknowledge sends the End-Of-Interrupt commands required for irq. Lines
// handled by the slave need an EOI on both controllers, slave first, as the
// master sees them as IRQ2.
func Acknowledge(irq uint8) {
	if irq >= SlaveIRQBase {
		Slave().EndOfInterrupt()
	}
	Master().EndOfInterrupt()
}
