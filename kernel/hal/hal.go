// Package hal detects the devices present on the machine, initializes their
// drivers and keeps track of the ones the rest of the kernel depends on: the
// console that receives kernel output and the keyboard.
package hal

import (
	"bytes"
	"gopher386/device"
	"gopher386/device/keyboard"
	"gopher386/kernel/hal/multiboot"
	"gopher386/kernel/kfmt"
	"io"
	"sort"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	activeConsole  io.Writer
	activeKeyboard keyboard.Device

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	strBuf  bytes.Buffer

	// getBootCmdLineFn is mocked by tests.
	getBootCmdLineFn = multiboot.GetBootCmdLine
)

// ActiveConsole returns the device that receives kernel output or nil if no
// console has been detected.
func ActiveConsole() io.Writer {
	return devices.activeConsole
}

// ActiveKeyboard returns the first initialized keyboard or nil if no keyboard
// has been detected or it was disabled on the boot command line.
func ActiveKeyboard() keyboard.Device {
	return devices.activeKeyboard
}

// ActiveDrivers returns the drivers that were successfully initialized.
func ActiveDrivers() []device.Driver {
	return devices.activeDrivers
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	// Get driver list and sort by detection priority
	drivers := device.DriverList()
	sort.Sort(drivers)

	probe(drivers)
}

// probe executes the probe function for each driver and invokes
// onDriverInit for each successfully initialized driver. A driver can be
// turned off by passing "<driver name>=off" on the boot command line.
func probe(driverInfoList device.DriverInfoList) {
	var (
		w       = kfmt.PrefixWriter{Sink: kfmt.Output}
		cmdLine = getBootCmdLineFn()
	)

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		if cmdLine[drv.DriverName()] == "off" {
			kfmt.Fprintf(&w, "disabled by boot command line\n")
			continue
		}

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
		onDriverInit(drv)
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

// onDriverInit is invoked by probe() whenever a piece of hardware is detected
// and successfully initialized. The first keyboard becomes the active
// keyboard and the first writable device becomes the kernel console; any
// output buffered so far is replayed into it.
func onDriverInit(drv device.Driver) {
	switch drvImpl := drv.(type) {
	case keyboard.Device:
		if devices.activeKeyboard == nil {
			devices.activeKeyboard = drvImpl
		}
	case io.Writer:
		if devices.activeConsole == nil {
			devices.activeConsole = drvImpl
			kfmt.SetOutputSink(drvImpl)
		}
	}
}
