package ring

import (
	"encoding/binary"
	"testing"
)

// memIO is a tiny in-memory PageIO used only by this package's tests.
type memIO struct {
	pages    [][]byte
	pageSize int
}

func newMemIO(numPages uint32, pageSize int) *memIO {
	pages := make([][]byte, numPages)
	for i := range pages {
		pages[i] = make([]byte, pageSize)
		binary.LittleEndian.PutUint32(pages[i], 0xFFFFFFFF)
	}
	return &memIO{pages: pages, pageSize: pageSize}
}

func (m *memIO) Open(mode Mode) error  { return nil }
func (m *memIO) Close() error          { return nil }
func (m *memIO) Flush() error          { return nil }
func (m *memIO) ReadPage(buf []byte, pageNum uint32, pageSize int) error {
	copy(buf[:pageSize], m.pages[pageNum])
	return nil
}
func (m *memIO) WritePage(buf []byte, pageNum uint32, pageSize int) error {
	copy(m.pages[pageNum], buf[:pageSize])
	return nil
}
func (m *memIO) ErasePages(start, end uint32, pageSize int) error {
	for p := start; p < end; p++ {
		for i := range m.pages[p] {
			m.pages[p][i] = 0
		}
		binary.LittleEndian.PutUint32(m.pages[p], 0xFFFFFFFF)
	}
	return nil
}

func stampAndWrite(t *testing.T, m *Manager, pageSize int) uint32 {
	t.Helper()
	buf := make([]byte, pageSize)
	binary.LittleEndian.PutUint32(buf, m.NextLogical())
	id, err := m.WriteNext(buf, nil)
	if err != nil {
		t.Fatalf("WriteNext: %v", err)
	}
	return id
}

func TestAllocationAdvancesAndWraps(t *testing.T) {
	const numPages, eraseSize, pageSize = 8, 4, 64
	io := newMemIO(numPages, pageSize)
	m := New(io, numPages, eraseSize, pageSize, 0)
	if err := m.Open(ModeCreate, false); err != nil {
		t.Fatalf("Open: %v", err)
	}

	var reclaimed int
	reclaim := func(oldMin, newMin uint32) error {
		reclaimed++
		if newMin-oldMin != eraseSize {
			t.Fatalf("reclaim span = %d, want %d", newMin-oldMin, eraseSize)
		}
		return nil
	}

	for i := uint32(0); i < numPages; i++ {
		buf := make([]byte, pageSize)
		binary.LittleEndian.PutUint32(buf, m.NextLogical())
		if _, err := m.WriteNext(buf, reclaim); err != nil {
			t.Fatalf("WriteNext %d: %v", i, err)
		}
	}
	if m.NumAvail() != 0 {
		t.Fatalf("numAvail = %d, want 0", m.NumAvail())
	}
	if reclaimed != 0 {
		t.Fatalf("unexpected reclaim before ring full: %d", reclaimed)
	}

	// One more write forces a reclaim of the first erase block.
	buf := make([]byte, pageSize)
	binary.LittleEndian.PutUint32(buf, m.NextLogical())
	id, err := m.WriteNext(buf, reclaim)
	if err != nil {
		t.Fatalf("WriteNext: %v", err)
	}
	if id != numPages {
		t.Fatalf("logical id = %d, want %d", id, numPages)
	}
	if reclaimed != 1 {
		t.Fatalf("reclaimed = %d, want 1", reclaimed)
	}
	if m.MinLogical() != eraseSize {
		t.Fatalf("minLogical = %d, want %d", m.MinLogical(), eraseSize)
	}
}

func TestRecoveryFindsHighestPageAndWrap(t *testing.T) {
	const numPages, eraseSize, pageSize = 8, 4, 64
	io := newMemIO(numPages, pageSize)
	m := New(io, numPages, eraseSize, pageSize, 0)
	if err := m.Open(ModeCreate, false); err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := uint32(0); i < 10; i++ {
		stampAndWrite(t, m, pageSize)
	}
	if m.MinLogical() != eraseSize || m.NextLogical() != 10 {
		t.Fatalf("unexpected cursors before reopen: min=%d next=%d", m.MinLogical(), m.NextLogical())
	}

	m2 := New(io, numPages, eraseSize, pageSize, 0)
	if err := m2.Open(ModeOpenExisting, false); err != nil {
		t.Fatalf("recovery Open: %v", err)
	}
	if m2.NextLogical() != m.NextLogical() {
		t.Fatalf("recovered nextLogical = %d, want %d", m2.NextLogical(), m.NextLogical())
	}
	if m2.MinLogical() != m.MinLogical() {
		t.Fatalf("recovered minLogical = %d, want %d", m2.MinLogical(), m.MinLogical())
	}
}
