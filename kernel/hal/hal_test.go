package hal

import (
	"bytes"
	"gopher386/device"
	"gopher386/kernel"
	"gopher386/kernel/ioport/iotest"
	"gopher386/kernel/kfmt"
	"io"
	"strings"
	"testing"
)

type fakeDriver struct {
	name    string
	initErr *kernel.Error
	inits   int
}

func (d *fakeDriver) DriverName() string                      { return d.name }
func (d *fakeDriver) DriverVersion() (uint16, uint16, uint16) { return 0, 1, 2 }
func (d *fakeDriver) DriverInit(w io.Writer) *kernel.Error {
	d.inits++
	if d.initErr == nil {
		kfmt.Fprintf(w, "ready\n")
	}
	return d.initErr
}

type fakeConsole struct {
	fakeDriver
	bytes.Buffer
}

type fakeKeyboard struct {
	fakeDriver
}

func (k *fakeKeyboard) NotifyInterrupt()           {}
func (k *fakeKeyboard) ReadScancode() (byte, bool) { return 0, false }

func probeFor(drv device.Driver) *device.DriverInfo {
	return &device.DriverInfo{Probe: func() device.Driver { return drv }}
}

func resetHAL(cmdLine map[string]string) func() {
	origCmdLine := getBootCmdLineFn
	getBootCmdLineFn = func() map[string]string { return cmdLine }
	devices = managedDevices{}

	return func() {
		getBootCmdLineFn = origCmdLine
		devices = managedDevices{}
		kfmt.SetOutputSink(nil)
	}
}

func TestProbe(t *testing.T) {
	defer resetHAL(nil)()

	var (
		cons   = &fakeConsole{fakeDriver: fakeDriver{name: "serial"}}
		cons2  = &fakeConsole{fakeDriver: fakeDriver{name: "serial2"}}
		kbd    = &fakeKeyboard{fakeDriver{name: "keyboard"}}
		broken = &fakeDriver{name: "broken", initErr: &kernel.Error{Module: "test", Message: "no device"}}
	)

	probe(device.DriverInfoList{
		{Probe: func() device.Driver { return nil }},
		probeFor(cons),
		probeFor(broken),
		probeFor(kbd),
		probeFor(cons2),
	})

	if ActiveConsole() != cons {
		t.Fatal("expected the first console to become the active console")
	}

	if ActiveKeyboard() != kbd {
		t.Fatal("expected keyboard to become the active keyboard")
	}

	if exp, got := 3, len(ActiveDrivers()); got != exp {
		t.Fatalf("expected %d active drivers; got %d", exp, got)
	}

	out := cons.String()
	for _, exp := range []string{
		"[hal] serial(0.1.2): ready\n[hal] serial(0.1.2): initialized\n",
		"[hal] broken(0.1.2): init failed: no device\n",
		"[hal] keyboard(0.1.2): ready\n[hal] keyboard(0.1.2): initialized\n",
		"[hal] serial2(0.1.2): initialized\n",
	} {
		if !strings.Contains(out, exp) {
			t.Errorf("expected console output to contain %q; got:\n%s", exp, out)
		}
	}

	if cons2.Len() != 0 {
		t.Error("expected second console not to receive kernel output")
	}
}

func TestProbeDisabledByCmdLine(t *testing.T) {
	defer resetHAL(map[string]string{"keyboard": "off"})()

	var (
		cons = &fakeConsole{fakeDriver: fakeDriver{name: "serial"}}
		kbd  = &fakeKeyboard{fakeDriver{name: "keyboard"}}
	)

	probe(device.DriverInfoList{probeFor(cons), probeFor(kbd)})

	if ActiveKeyboard() != nil {
		t.Fatal("expected keyboard=off to skip the keyboard driver")
	}

	if kbd.inits != 0 {
		t.Fatal("expected disabled driver not to be initialized")
	}

	if exp := "[hal] keyboard(0.1.2): disabled by boot command line\n"; !strings.Contains(cons.String(), exp) {
		t.Fatalf("expected console output to contain %q; got:\n%s", exp, cons.String())
	}
}

func TestDetectHardware(t *testing.T) {
	defer resetHAL(nil)()

	// No UART driver is linked into this test binary; the i8042 driver
	// registers itself because hal depends on its package.
	iotest.Install(t)

	DetectHardware()

	if ActiveKeyboard() == nil {
		t.Fatal("expected the i8042 keyboard to be detected")
	}

	if ActiveConsole() != nil {
		t.Fatal("expected no console")
	}
}
