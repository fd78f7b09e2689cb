// Command mkiso packs the kernel image into a bootable ISO9660 image. The
// image boots through GRUB's El Torito loader which reads the generated
// grub.cfg and hands control to the kernel using the multiboot protocol.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	diskfs "github.com/diskfs/go-diskfs"
	diskpkg "github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/diskfs/go-diskfs/filesystem/iso9660"
	"github.com/fatih/color"
)

const (
	isoBlockSize = 2048

	// isoOverhead covers the volume descriptors, path tables, directory
	// records and the boot catalog.
	isoOverhead = 1 << 20

	volumeLabel = "GOPHER386"

	kernelPath   = "/boot/kernel.bin"
	grubCfgPath  = "/boot/grub/grub.cfg"
	eltoritoPath = "/boot/grub/eltorito.img"
	catalogPath  = "boot.cat"
)

var (
	errMissingKernel   = errors.New("missing -kernel argument")
	errMissingEltorito = errors.New("missing -eltorito argument")

	infoColor  = color.New(color.FgCyan)
	okColor    = color.New(color.FgGreen)
	errorColor = color.New(color.FgRed, color.Bold)
)

// options controls the layout of the generated image.
type options struct {
	kernel   string
	eltorito string
	output   string
	cmdLine  string
}

// fileEntry maps a file on the host to its location inside the image.
type fileEntry struct {
	src     string
	dst     string
	content []byte
}

func exit(err error) {
	errorColor.Fprintf(os.Stderr, "[mkiso] error: %s\n", err.Error())
	os.Exit(1)
}

// grubConfig renders a grub.cfg that boots the kernel straight away,
// passing cmdLine on the multiboot command line.
func grubConfig(cmdLine string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "set timeout=0\nset default=0\n\n")
	fmt.Fprintf(&buf, "menuentry \"gopher386\" {\n")
	if cmdLine != "" {
		fmt.Fprintf(&buf, "\tmultiboot %s %s\n", kernelPath, cmdLine)
	} else {
		fmt.Fprintf(&buf, "\tmultiboot %s\n", kernelPath)
	}
	fmt.Fprintf(&buf, "\tboot\n}\n")
	return buf.Bytes()
}

// imageSize returns the size of an image large enough to hold entries,
// rounded up to a whole number of ISO blocks.
func imageSize(entries []fileEntry) (int64, error) {
	size := int64(isoOverhead)
	for _, entry := range entries {
		if entry.content != nil {
			size += int64(len(entry.content))
			continue
		}

		fi, err := os.Stat(entry.src)
		if err != nil {
			return 0, err
		}
		size += fi.Size()
	}

	return (size + isoBlockSize - 1) / isoBlockSize * isoBlockSize, nil
}

func (opts options) entries() ([]fileEntry, error) {
	switch {
	case opts.kernel == "":
		return nil, errMissingKernel
	case opts.eltorito == "":
		return nil, errMissingEltorito
	}

	return []fileEntry{
		{src: opts.kernel, dst: kernelPath},
		{src: opts.eltorito, dst: eltoritoPath},
		{dst: grubCfgPath, content: grubConfig(opts.cmdLine)},
	}, nil
}

func copyEntry(fs filesystem.FileSystem, entry fileEntry) error {
	dst, err := fs.OpenFile(entry.dst, os.O_CREATE|os.O_RDWR)
	if err != nil {
		return err
	}
	defer dst.Close()

	if entry.content != nil {
		_, err = dst.Write(entry.content)
		return err
	}

	src, err := os.Open(entry.src)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(dst, src)
	return err
}

func build(opts options) error {
	entries, err := opts.entries()
	if err != nil {
		return err
	}

	size, err := imageSize(entries)
	if err != nil {
		return err
	}

	_ = os.Remove(opts.output)
	disk, err := diskfs.Create(opts.output, size, diskfs.Raw, diskfs.SectorSize(isoBlockSize))
	if err != nil {
		return err
	}

	fs, err := disk.CreateFilesystem(diskpkg.FilesystemSpec{
		Partition:   0,
		FSType:      filesystem.TypeISO9660,
		VolumeLabel: volumeLabel,
	})
	if err != nil {
		return err
	}

	if err = fs.Mkdir("/boot/grub"); err != nil {
		return err
	}

	for _, entry := range entries {
		if err = copyEntry(fs, entry); err != nil {
			return fmt.Errorf("%s: %w", entry.dst, err)
		}

		src := entry.src
		if src == "" {
			src = "(generated)"
		}
		infoColor.Printf("[mkiso] %s -> %s\n", src, entry.dst)
	}

	iso, ok := fs.(*iso9660.FileSystem)
	if !ok {
		return errors.New("created filesystem is not ISO9660")
	}

	// Rock Ridge stays off: go-diskfs looks up the extension entries of the
	// boot catalog before it has written the catalog and Finalize fails.
	// GRUB matches plain ISO9660 names case-insensitively.
	return iso.Finalize(iso9660.FinalizeOptions{
		VolumeIdentifier: volumeLabel,
		RockRidge:        false,
		ElTorito: &iso9660.ElTorito{
			BootCatalog: catalogPath,
			Entries: []*iso9660.ElToritoEntry{
				{
					Platform:  iso9660.BIOS,
					Emulation: iso9660.NoEmulation,
					BootFile:  eltoritoPath,
					BootTable: true,
					LoadSize:  4,
				},
			},
		},
	})
}

func main() {
	var opts options
	flag.StringVar(&opts.kernel, "kernel", "", "path to the kernel image")
	flag.StringVar(&opts.eltorito, "eltorito", "", "path to GRUB's El Torito boot image (i386-pc/eltorito.img)")
	flag.StringVar(&opts.output, "o", "gopher386.iso", "output ISO file")
	flag.StringVar(&opts.cmdLine, "cmdline", "", "extra kernel command line, e.g. \"keyboard=off\"")
	flag.Parse()

	if err := build(opts); err != nil {
		exit(err)
	}

	okColor.Printf("[mkiso] wrote %s\n", opts.output)
}
