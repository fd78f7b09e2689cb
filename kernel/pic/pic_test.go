package pic

import (
	"gopher386/kernel/ioport"
	"gopher386/kernel/ioport/iotest"
	"reflect"
	"testing"
)

func TestRemapTo(t *testing.T) {
	specs := []struct {
		pic             PIC
		start           uint8
		control, data   uint16
		expCascadeIdent uint32
	}{
		{Master(), 0x20, 0x20, 0x21, 0x02},
		{Slave(), 0x28, 0xa0, 0xa1, 0x04},
		{Master(), 0x70, 0x20, 0x21, 0x02},
	}

	for specIndex, spec := range specs {
		bus := iotest.Install(t)
		spec.pic.RemapTo(spec.start)

		if exp, got := []uint32{0x11}, bus.Writes(spec.control); !reflect.DeepEqual(got, exp) {
			t.Errorf("[spec %d] expected control port writes %v; got %v", specIndex, exp, got)
		}

		exp := []uint32{uint32(spec.start), spec.expCascadeIdent, 0x01, 0x00}
		if got := bus.Writes(spec.data); !reflect.DeepEqual(got, exp) {
			t.Errorf("[spec %d] expected data port writes %v; got %v", specIndex, exp, got)
		}

		// ICW1 must reach the controller before any of the data port writes.
		ordered := bus.Filter(uint16(ioport.DelayPort))
		if len(ordered) != 5 || ordered[0].Port != spec.control {
			t.Errorf("[spec %d] expected ICW1 to be written first; got %v", specIndex, ordered)
		}

		if got := len(bus.Writes(uint16(ioport.DelayPort))); got != 5 {
			t.Errorf("[spec %d] expected a delay after each of the 5 writes; got %d", specIndex, got)
		}
	}
}

func TestEndOfInterrupt(t *testing.T) {
	bus := iotest.Install(t)

	Master().EndOfInterrupt()
	Slave().EndOfInterrupt()

	exp := []iotest.Access{
		{Dir: iotest.Out, Port: 0x20, Width: 1, Value: 0x20},
		{Dir: iotest.Out, Port: 0xa0, Width: 1, Value: 0x20},
	}
	if !reflect.DeepEqual(bus.Log, exp) {
		t.Fatalf("expected %v; got %v", exp, bus.Log)
	}
}

func TestAcknowledge(t *testing.T) {
	specs := []struct {
		irq      uint8
		expPorts []uint16
	}{
		{0, []uint16{0x20}},
		{1, []uint16{0x20}},
		{7, []uint16{0x20}},
		{8, []uint16{0xa0, 0x20}},
		{15, []uint16{0xa0, 0x20}},
	}

	for specIndex, spec := range specs {
		bus := iotest.Install(t)
		Acknowledge(spec.irq)

		var got []uint16
		for _, a := range bus.Log {
			if a.Value != 0x20 {
				t.Errorf("[spec %d] expected EOI command 0x20; got 0x%x", specIndex, a.Value)
			}
			got = append(got, a.Port)
		}

		if !reflect.DeepEqual(got, spec.expPorts) {
			t.Errorf("[spec %d] expected EOI on ports %v; got %v", specIndex, spec.expPorts, got)
		}
	}
}

func TestMask(t *testing.T) {
	bus := iotest.Install(t)

	Slave().SetMask(0xfb)
	if got := Slave().Mask(); got != 0xfb {
		t.Fatalf("expected slave mask to be 0xfb; got 0x%x", got)
	}

	if got := bus.Writes(0xa1); !reflect.DeepEqual(got, []uint32{0xfb}) {
		t.Fatalf("expected mask to be written to the slave data port; got %v", got)
	}
}

func TestControllers(t *testing.T) {
	if !Master().IsMaster() {
		t.Error("expected Master() to return the master controller")
	}
	if Slave().IsMaster() {
		t.Error("expected Slave() to return the slave controller")
	}
	if Master() != Master() {
		t.Error("expected controllers built from constants to compare equal")
	}
}
