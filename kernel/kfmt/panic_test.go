package kfmt

import (
	"bytes"
	"errors"
	"gopher386/kernel"
	"testing"
)

func TestPanic(t *testing.T) {
	defer func(origHalt func()) {
		cpuHaltFn = origHalt
		outputSink = nil
	}(cpuHaltFn)

	var (
		buf           bytes.Buffer
		cpuHaltCalled bool
	)
	cpuHaltFn = func() {
		cpuHaltCalled = true
	}
	SetOutputSink(&buf)

	specs := []struct {
		name string
		arg  interface{}
		exp  string
	}{
		{
			"with *kernel.Error",
			&kernel.Error{Module: "gate", Message: "unhandled CPU exception"},
			"\n-----------------------------------\n[gate] unrecoverable error: unhandled CPU exception\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
		{
			"with error",
			errors.New("go error"),
			"\n-----------------------------------\n[rt] unrecoverable error: go error\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
		{
			"with string",
			"string error",
			"\n-----------------------------------\n[rt] unrecoverable error: string error\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
		{
			"without error",
			nil,
			"\n-----------------------------------\n*** kernel panic: system halted ***\n-----------------------------------\n",
		},
	}

	for _, spec := range specs {
		t.Run(spec.name, func(t *testing.T) {
			buf.Reset()
			cpuHaltCalled = false

			Panic(spec.arg)

			if got := buf.String(); got != spec.exp {
				t.Fatalf("expected to get:\n%q\ngot:\n%q", spec.exp, got)
			}

			if !cpuHaltCalled {
				t.Fatal("expected cpu.Halt() to be called by Panic")
			}
		})
	}
}
