// Package kfmt provides formatted output for code that runs before (or
// underneath) the Go runtime: interrupt bodies, fatal reports and the boot
// path. Nothing in this package allocates.
package kfmt

import (
	"io"
	"unsafe"
)

const (
	// maxBufSize bounds the width of a formatted number, sign included.
	maxBufSize = 32

	digits = "0123456789abcdef"
)

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// numFmtBuf holds the number being formatted. It is filled from the
	// end backwards.
	numFmtBuf [maxBufSize]byte

	// singleByte is used as a shared buffer for passing single characters
	// to doWrite.
	singleByte = []byte(" ")

	// earlyPrintBuffer captures Printf output produced before an output
	// sink (normally the serial console) has been attached.
	earlyPrintBuffer ringBuffer

	// outputSink is where Printf sends its output. While nil, output is
	// stored in earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and replays
// any output accumulated in the early print buffer into it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the current target for calls to Printf. The result
// is nil until SetOutputSink has been called.
func GetOutputSink() io.Writer {
	return outputSink
}

// Output is an io.Writer that forwards to the active output sink, or to the
// early print buffer while no sink is attached. Unlike the value returned by
// GetOutputSink it follows later calls to SetOutputSink.
var Output io.Writer = outputProxy{}

type outputProxy struct{}

func (outputProxy) Write(p []byte) (int, error) {
	doWrite(outputSink, p)
	return len(p), nil
}

// Printf provides a minimal Printf implementation that does not allocate, so
// it can be used from interrupt bodies and before the Go allocator is
// available.
//
// The supported verbs are:
//
//	%s the uninterpreted bytes of a string or byte slice
//	%o base 8
//	%d base 10
//	%x base 16, with lower-case letters for a-f
//	%t "true" or "false"
//
// An optional decimal width may precede the verb. Strings and base-10 values
// are left-padded with spaces while base-8 and base-16 values are left-padded
// with zeroes, so "%2x" prints vector 14 as "0e".
//
// Printf handles the built-in string and integer types only. Supporting %p or
// io.Stringer would pull in reflect and make the compiler emit allocating
// interface conversions for the argument slice.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		nextCh                       byte
		nextArgIndex                 int
		blockStart, blockEnd, padLen int
		fmtLen                       = len(format)
	)

	for blockEnd < fmtLen {
		nextCh = format[blockEnd]
		if nextCh != '%' {
			blockEnd++
			continue
		}

		writeLiteral(w, format, blockStart, blockEnd)

		// Scan til we hit the format character
		padLen = 0
		blockEnd++
	parseFmt:
		for ; blockEnd < fmtLen; blockEnd++ {
			nextCh = format[blockEnd]
			switch {
			case nextCh == '%':
				singleByte[0] = '%'
				doWrite(w, singleByte)
				break parseFmt
			case nextCh >= '0' && nextCh <= '9':
				padLen = (padLen * 10) + int(nextCh-'0')
				continue
			case nextCh == 'd' || nextCh == 'x' || nextCh == 'o' || nextCh == 's' || nextCh == 't':
				if nextArgIndex >= len(args) {
					doWrite(w, errMissingArg)
					break parseFmt
				}

				switch nextCh {
				case 'o':
					fmtInt(w, args[nextArgIndex], 8, padLen)
				case 'd':
					fmtInt(w, args[nextArgIndex], 10, padLen)
				case 'x':
					fmtInt(w, args[nextArgIndex], 16, padLen)
				case 's':
					fmtString(w, args[nextArgIndex], padLen)
				case 't':
					fmtBool(w, args[nextArgIndex])
				}

				nextArgIndex++
				break parseFmt
			}

			// reached end of formatting string without finding a verb
			doWrite(w, errNoVerb)
		}
		blockStart, blockEnd = blockEnd+1, blockEnd+1
	}

	writeLiteral(w, format, blockStart, blockEnd)

	for ; nextArgIndex < len(args); nextArgIndex++ {
		doWrite(w, errExtraArg)
	}
}

// writeLiteral copies s[from:to] to w. Slicing the string and converting it
// to []byte would allocate so the bytes are sent one at a time.
func writeLiteral(w io.Writer, s string, from, to int) {
	if to > len(s) {
		to = len(s)
	}

	for i := from; i < to; i++ {
		singleByte[0] = s[i]
		doWrite(w, singleByte)
	}
}

// fmtBool prints a formatted version of boolean value v.
func fmtBool(w io.Writer, v interface{}) {
	bVal, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case bVal:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

// fmtString prints a formatted version of string or []byte value v, applying
// the padding specified by padLen.
func fmtString(w io.Writer, v interface{}, padLen int) {
	switch castedVal := v.(type) {
	case string:
		fmtRepeat(w, ' ', padLen-len(castedVal))
		writeLiteral(w, castedVal, 0, len(castedVal))
	case []byte:
		fmtRepeat(w, ' ', padLen-len(castedVal))
		doWrite(w, castedVal)
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtRepeat writes count bytes with value ch.
func fmtRepeat(w io.Writer, ch byte, count int) {
	singleByte[0] = ch
	for i := 0; i < count; i++ {
		doWrite(w, singleByte)
	}
}

// fmtInt prints v in the requested base. The digits are produced right to
// left into numFmtBuf; padding and the sign are then prepended in front of
// them. Space padding goes in front of the sign ("   -12") while zero
// padding goes behind it ("-000c").
func fmtInt(w io.Writer, v interface{}, base, padLen int) {
	var (
		sval  int64
		uval  uint64
		ubase = uint64(base)
		padCh = byte('0')
		pos   = len(numFmtBuf)
	)

	if padLen > maxBufSize-1 {
		padLen = maxBufSize - 1
	}

	if base == 10 {
		padCh = ' '
	}

	switch castedVal := v.(type) {
	case uint8:
		uval = uint64(castedVal)
	case uint16:
		uval = uint64(castedVal)
	case uint32:
		uval = uint64(castedVal)
	case uint64:
		uval = castedVal
	case uint:
		uval = uint64(castedVal)
	case uintptr:
		uval = uint64(castedVal)
	case int8:
		sval = int64(castedVal)
	case int16:
		sval = int64(castedVal)
	case int32:
		sval = int64(castedVal)
	case int64:
		sval = castedVal
	case int:
		sval = int64(castedVal)
	default:
		doWrite(w, errWrongArgType)
		return
	}

	negative := sval < 0
	switch {
	case negative:
		uval = uint64(-sval)
	case sval > 0:
		uval = uint64(sval)
	}

	for {
		pos--
		numFmtBuf[pos] = digits[uval%ubase]
		if uval /= ubase; uval == 0 {
			break
		}
	}

	if negative && padCh == ' ' {
		pos--
		numFmtBuf[pos] = '-'
	}

	for len(numFmtBuf)-pos < padLen {
		pos--
		numFmtBuf[pos] = padCh
	}

	if negative && padCh == '0' {
		pos--
		numFmtBuf[pos] = '-'
	}

	doWrite(w, numFmtBuf[pos:])
}

// doWrite is a proxy that uses the runtime.noescape hack to hide p from the
// compiler's escape analysis. The sink is an interface value unknown at
// compile time, so without the hack p is flagged as escaping and every call
// to Printf ends up allocating.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
