//go:build !386

package gate

// gateEntryAddr has no entry point to report outside GOARCH=386. Tests
// replace gateEntryAddrFn with a fixed address.
func gateEntryAddr() uintptr { return 0 }

func RaiseSelfTest() { panic("gate: int 0x30 requires GOARCH=386") }
