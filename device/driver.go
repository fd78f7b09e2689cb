// Package device defines the interface implemented by device drivers and the
// registry the HAL consults when probing for hardware.
package device

import (
	"gopher386/kernel"
	"io"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it. It returns nil if the
// hardware is not present.
type ProbeFn func() Driver

// DetectOrder specifies when a driver is probed relative to the others.
// Drivers with a lower value are probed first.
type DetectOrder int8

const (
	// DetectOrderEarly is used by drivers that must be up before anything
	// else logs, such as the serial console.
	DetectOrderEarly DetectOrder = -128

	// DetectOrderNormal is the default detection order.
	DetectOrderNormal DetectOrder = 0

	// DetectOrderLast is used by drivers that depend on other devices.
	DetectOrderLast DetectOrder = 127
)

// DriverInfo describes a registered driver.
type DriverInfo struct {
	// Order specifies at which stage of the probing process this driver
	// gets probed.
	Order DetectOrder

	// Probe scans for the presence of the hardware handled by the driver.
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that implements
// sort.Interface, ordering entries by their detection order.
type DriverInfoList []*DriverInfo

// Len returns the length of the driver info list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges 2 elements in the driver info list.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares 2 elements of the driver info list.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

var registeredDrivers DriverInfoList

// RegisterDriver adds the supplied driver info to the registry. Drivers call
// it from an init() block.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns a copy of the registered driver list.
func DriverList() DriverInfoList {
	list := make(DriverInfoList, len(registeredDrivers))
	copy(list, registeredDrivers)
	return list
}
