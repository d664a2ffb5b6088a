//go:build linux

package embeddb

import (
	"fmt"
	"os"

	"github.com/ncw/directio"
	"golang.org/x/sys/unix"
)

// directPageIO is a PageIO backend for raw block devices and
// flash-like media, opened with O_DIRECT so pages bypass the page
// cache the way a "dataflash" wrapper would bypass a filesystem cache.
// It stands in for the original engine's Dataflash-File-Interface.
//
// O_DIRECT requires page-aligned, block-size-multiple buffers; this
// backend copies through an aligned scratch block so callers can pass
// ordinary engine buffers.
type directPageIO struct {
	path string
	f    *os.File
	blk  []byte
}

// NewDirectPageIO returns a PageIO backend that reads and writes path
// with O_DIRECT, suitable for raw flash or SD/eMMC block devices where
// bypassing the OS page cache matters for wear and power-loss bounds.
func NewDirectPageIO(path string) PageIO {
	return &directPageIO{path: path}
}

func (d *directPageIO) Open(mode Mode) error {
	flag := os.O_RDWR
	switch mode {
	case ModeCreate:
		flag |= os.O_CREATE | os.O_TRUNC
	case ModeOpenExisting:
		// keep contents
	}
	f, err := directio.OpenFile(d.path, flag, 0o600)
	if err != nil {
		return wrapError(Io, fmt.Sprintf("open %s", d.path), err)
	}
	d.f = f
	d.blk = directio.AlignedBlock(directio.BlockSize)
	return nil
}

func (d *directPageIO) Close() error {
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	if err != nil {
		return wrapError(Io, fmt.Sprintf("close %s", d.path), err)
	}
	return nil
}

func (d *directPageIO) Flush() error {
	if d.f == nil {
		return nil
	}
	if err := unix.Fdatasync(int(d.f.Fd())); err != nil {
		return wrapError(Io, fmt.Sprintf("fdatasync %s", d.path), err)
	}
	return nil
}

// alignedBlockFor returns a scratch buffer of at least n bytes, aligned
// for O_DIRECT, reusing d.blk when it is already big enough.
func (d *directPageIO) alignedBlockFor(n int) []byte {
	if len(d.blk) >= n {
		return d.blk[:n]
	}
	blocks := (n + directio.BlockSize - 1) / directio.BlockSize
	d.blk = directio.AlignedBlock(blocks * directio.BlockSize)
	return d.blk[:n]
}

func (d *directPageIO) ReadPage(buf []byte, logicalPageNum uint32, pageSize int) error {
	scratch := d.alignedBlockFor(pageSize)
	off := int64(logicalPageNum) * int64(pageSize)
	n, err := d.f.ReadAt(scratch, off)
	if n < pageSize {
		for i := n; i < pageSize; i++ {
			scratch[i] = 0xFF // unwritten flash reads as erased (all-ones)
		}
	} else if err != nil {
		return wrapError(Io, fmt.Sprintf("read page %d from %s", logicalPageNum, d.path), err)
	}
	copy(buf[:pageSize], scratch)
	return nil
}

func (d *directPageIO) WritePage(buf []byte, logicalPageNum uint32, pageSize int) error {
	scratch := d.alignedBlockFor(pageSize)
	copy(scratch, buf[:pageSize])
	off := int64(logicalPageNum) * int64(pageSize)
	if _, err := d.f.WriteAt(scratch, off); err != nil {
		return wrapError(Io, fmt.Sprintf("write page %d to %s", logicalPageNum, d.path), err)
	}
	return nil
}

func (d *directPageIO) ErasePages(startPage, endPage uint32, pageSize int) error {
	scratch := d.alignedBlockFor(pageSize)
	for i := range scratch {
		scratch[i] = 0xFF
	}
	for p := startPage; p < endPage; p++ {
		off := int64(p) * int64(pageSize)
		if _, err := d.f.WriteAt(scratch, off); err != nil {
			return wrapError(Io, fmt.Sprintf("erase page %d of %s", p, d.path), err)
		}
	}
	return nil
}
