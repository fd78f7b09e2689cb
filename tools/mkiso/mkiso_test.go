package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
)

func TestGrubConfig(t *testing.T) {
	specs := []struct {
		cmdLine string
		exp     string
	}{
		{
			"",
			"set timeout=0\nset default=0\n\nmenuentry \"gopher386\" {\n\tmultiboot /boot/kernel.bin\n\tboot\n}\n",
		},
		{
			"serial=off keyboard=off",
			"set timeout=0\nset default=0\n\nmenuentry \"gopher386\" {\n\tmultiboot /boot/kernel.bin serial=off keyboard=off\n\tboot\n}\n",
		},
	}

	for specIndex, spec := range specs {
		if got := string(grubConfig(spec.cmdLine)); got != spec.exp {
			t.Errorf("[spec %d] expected:\n%q\ngot:\n%q", specIndex, spec.exp, got)
		}
	}
}

func TestOptionsEntries(t *testing.T) {
	specs := []struct {
		opts   options
		expErr error
	}{
		{options{eltorito: "eltorito.img"}, errMissingKernel},
		{options{kernel: "kernel.bin"}, errMissingEltorito},
		{options{kernel: "kernel.bin", eltorito: "eltorito.img"}, nil},
	}

	for specIndex, spec := range specs {
		entries, err := spec.opts.entries()
		if err != spec.expErr {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
			continue
		}

		if err == nil && len(entries) != 3 {
			t.Errorf("[spec %d] expected 3 entries; got %d", specIndex, len(entries))
		}
	}
}

func TestImageSize(t *testing.T) {
	dir := t.TempDir()
	kernel := filepath.Join(dir, "kernel.bin")
	if err := os.WriteFile(kernel, make([]byte, 5000), 0o644); err != nil {
		t.Fatal(err)
	}

	size, err := imageSize([]fileEntry{
		{src: kernel},
		{content: []byte("cfg")},
	})
	if err != nil {
		t.Fatal(err)
	}

	if size%isoBlockSize != 0 {
		t.Fatalf("expected size to be a multiple of %d; got %d", isoBlockSize, size)
	}

	if min := int64(isoOverhead + 5003); size < min {
		t.Fatalf("expected size of at least %d; got %d", min, size)
	}

	if _, err = imageSize([]fileEntry{{src: filepath.Join(dir, "missing")}}); err == nil {
		t.Fatal("expected an error for a missing source file")
	}
}

func TestBuild(t *testing.T) {
	color.NoColor = true
	color.Output = &bytes.Buffer{}

	dir := t.TempDir()
	opts := options{
		kernel:   filepath.Join(dir, "kernel.bin"),
		eltorito: filepath.Join(dir, "eltorito.img"),
		output:   filepath.Join(dir, "out.iso"),
		cmdLine:  "keyboard=off",
	}

	if err := os.WriteFile(opts.kernel, bytes.Repeat([]byte{0x90}, 8192), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(opts.eltorito, make([]byte, 4*isoBlockSize), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := build(opts); err != nil {
		t.Fatal(err)
	}

	img, err := os.ReadFile(opts.output)
	if err != nil {
		t.Fatal(err)
	}

	// The primary volume descriptor lives in sector 16.
	const pvdOffset = 16 * isoBlockSize
	if len(img) < pvdOffset+6 || string(img[pvdOffset+1:pvdOffset+6]) != "CD001" {
		t.Fatal("expected output to contain an ISO9660 volume descriptor")
	}

	if !bytes.Contains(img, []byte("EL TORITO SPECIFICATION")) {
		t.Fatal("expected the image to carry an El Torito boot record")
	}

	if !bytes.Contains(img, []byte("multiboot /boot/kernel.bin keyboard=off")) {
		t.Fatal("expected the generated grub.cfg to be stored in the image")
	}
}
