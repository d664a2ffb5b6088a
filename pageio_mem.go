package embeddb

import (
	"fmt"

	"github.com/dsnet/golib/memfile"
)

// memPageIO is a PageIO backend held entirely in RAM, backed by
// dsnet/golib/memfile's io.ReaderAt/io.WriterAt-compatible File. It
// plays the role the original engine's SD-File-Interface plays for a
// host with no real filesystem: useful for unit tests and for devices
// that keep their whole store in battery-backed RAM.
type memPageIO struct {
	name string
	f    *memfile.File
	size int64
}

// NewMemPageIO returns a PageIO backend that stores pages in an
// in-memory buffer rather than on disk. name is used only in error
// messages.
func NewMemPageIO(name string) PageIO {
	return &memPageIO{name: name}
}

func (m *memPageIO) Open(mode Mode) error {
	switch mode {
	case ModeCreate:
		m.f = memfile.New(nil)
		m.size = 0
	case ModeOpenExisting:
		if m.f == nil {
			return wrapError(Io, fmt.Sprintf("%s: no existing in-memory contents to open", m.name), nil)
		}
	}
	return nil
}

func (m *memPageIO) Close() error {
	if m.f == nil {
		return nil
	}
	return m.f.Close()
}

func (m *memPageIO) Flush() error {
	return nil
}

func (m *memPageIO) ReadPage(buf []byte, logicalPageNum uint32, pageSize int) error {
	off := int64(logicalPageNum) * int64(pageSize)
	n, err := m.f.ReadAt(buf[:pageSize], off)
	if n < pageSize {
		// Unwritten region: treat as zero-filled, matching a freshly
		// created but never-written backing file.
		for i := n; i < pageSize; i++ {
			buf[i] = 0
		}
		return nil
	}
	if err != nil {
		return wrapError(Io, fmt.Sprintf("%s: read page %d", m.name, logicalPageNum), err)
	}
	return nil
}

func (m *memPageIO) WritePage(buf []byte, logicalPageNum uint32, pageSize int) error {
	off := int64(logicalPageNum) * int64(pageSize)
	if _, err := m.f.WriteAt(buf[:pageSize], off); err != nil {
		return wrapError(Io, fmt.Sprintf("%s: write page %d", m.name, logicalPageNum), err)
	}
	if end := off + int64(pageSize); end > m.size {
		m.size = end
	}
	return nil
}

func (m *memPageIO) ErasePages(startPage, endPage uint32, pageSize int) error {
	zero := make([]byte, pageSize)
	for p := startPage; p < endPage; p++ {
		if _, err := m.f.WriteAt(zero, int64(p)*int64(pageSize)); err != nil {
			return wrapError(Io, fmt.Sprintf("%s: erase page %d", m.name, p), err)
		}
	}
	return nil
}
