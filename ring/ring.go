package ring

import "encoding/binary"

// ReclaimHook is invoked once an erase-block has been reclaimed for
// reuse, after minLogical and numAvail have already advanced. oldMin
// and newMin bracket the logical pages that were just erased
// ([oldMin, newMin)); the data ring's hook prunes the spline, and the
// var ring's hook does nothing.
type ReclaimHook func(oldMin, newMin uint32) error

// Manager presents an append-only logical page stream over a
// physically circular region of numPages pages, numPages a multiple of
// eraseSize. It owns nextLogical, minLogical and numAvail and performs
// the allocation protocol and recovery scan described in the spec.
type Manager struct {
	io        PageIO
	numPages  uint32
	eraseSize uint32
	pageSize  int
	reserved  uint32 // pages carved out of numAvail for another consumer

	nextLogical uint32
	minLogical  uint32
	numAvail    uint32
}

// New constructs a Manager. reserved pages are subtracted from the
// pool's availability accounting. The engine passes 0 for every ring:
// its record-level consistency region lies past the data ring's pages
// rather than inside them.
func New(io PageIO, numPages, eraseSize uint32, pageSize int, reserved uint32) *Manager {
	return &Manager{io: io, numPages: numPages, eraseSize: eraseSize, pageSize: pageSize, reserved: reserved}
}

// logicalIDOf reads the 4-byte little-endian logical page id that
// begins every page header in all three ring files.
func logicalIDOf(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

// Open opens the backing file. mode ModeCreate resets all cursors;
// ModeOpenExisting runs the recovery scan. rlcActive should be true
// only for the data ring when record-level consistency is enabled —
// it changes how the scan treats an invalid page 0 (see recover).
func (m *Manager) Open(mode Mode, rlcActive bool) error {
	if err := m.io.Open(mode); err != nil {
		return ioErr("open backing file", err)
	}
	if mode == ModeCreate {
		m.nextLogical = 0
		m.minLogical = 0
		m.numAvail = m.numPages - m.reserved
		return nil
	}
	return m.recover(rlcActive)
}

func (m *Manager) Close() error {
	if err := m.io.Close(); err != nil {
		return ioErr("close backing file", err)
	}
	return nil
}

func (m *Manager) Flush() error {
	if err := m.io.Flush(); err != nil {
		return ioErr("flush backing file", err)
	}
	return nil
}

// NextLogical returns the logical id that the next WriteNext call will
// stamp and write, without allocating it yet.
func (m *Manager) NextLogical() uint32 { return m.nextLogical }

// MinLogical returns the oldest live logical page id.
func (m *Manager) MinLogical() uint32 { return m.minLogical }

// NumAvail returns the number of unwritten logical pages remaining
// before the next write forces a reclaim.
func (m *Manager) NumAvail() uint32 { return m.numAvail }

// NumPages returns the ring's total physical page count.
func (m *Manager) NumPages() uint32 { return m.numPages }

// Physical maps a logical page id to its physical slot.
func (m *Manager) Physical(logical uint32) uint32 { return logical % m.numPages }

// ReadLogical reads the page currently holding logical id `logical`.
// Callers are responsible for checking the returned page's stamped id
// still matches, if that matters for their use (e.g. after a wrap).
func (m *Manager) ReadLogical(buf []byte, logical uint32) error {
	if err := m.io.ReadPage(buf, m.Physical(logical), m.pageSize); err != nil {
		return ioErr("read page", err)
	}
	return nil
}

// WriteNext runs the allocation protocol for the next logical page:
// reclaiming an erase-block if the ring is full, writing buf (which
// the caller must have already stamped with NextLogical() as its
// header's logical id), then advancing the cursors. It returns the
// logical id that was written.
func (m *Manager) WriteNext(buf []byte, reclaim ReclaimHook) (uint32, error) {
	physical := m.Physical(m.nextLogical)
	if m.numAvail == 0 {
		if err := m.io.ErasePages(physical, physical+m.eraseSize, m.pageSize); err != nil {
			return 0, ioErr("erase reclaim block", err)
		}
		oldMin := m.minLogical
		m.minLogical += m.eraseSize
		m.numAvail += m.eraseSize
		if reclaim != nil {
			if err := reclaim(oldMin, m.minLogical); err != nil {
				return 0, err
			}
		}
	}
	if err := m.io.WritePage(buf, physical, m.pageSize); err != nil {
		return 0, ioErr("write page", err)
	}
	id := m.nextLogical
	m.numAvail--
	m.nextLogical++
	return id, nil
}

// recover implements the wraparound-aware recovery scan run when the
// backing file already existed: it finds the highest valid logical
// page, then determines whether the ring has wrapped by checking the
// page at the next erase-block boundary.
func (m *Manager) recover(rlcActive bool) error {
	buf := make([]byte, m.pageSize)
	physical := uint32(0)
	if err := m.io.ReadPage(buf, physical, m.pageSize); err != nil {
		return ioErr("recovery: read page 0", err)
	}
	if logicalIDOf(buf)%m.numPages != 0 && !rlcActive {
		// Tolerate a freshly erased first block: retry from the next
		// erase boundary.
		physical = m.eraseSize
		if physical >= m.numPages {
			return notInitErr("recovery: region never written")
		}
		if err := m.io.ReadPage(buf, physical, m.pageSize); err != nil {
			return ioErr("recovery: read erase boundary page", err)
		}
		if logicalIDOf(buf)%m.numPages != physical {
			return notInitErr("recovery: no valid pages found")
		}
	}

	var maxLogical uint32
	havePage := false
	for p := physical; p < m.numPages; p++ {
		if p != physical {
			if err := m.io.ReadPage(buf, p, m.pageSize); err != nil {
				return ioErr("recovery: scan", err)
			}
		}
		id := logicalIDOf(buf)
		if id%m.numPages != p {
			break
		}
		if havePage && id <= maxLogical {
			return corruptErr("recovery: logical ids not monotonically increasing")
		}
		maxLogical = id
		havePage = true
	}
	if !havePage {
		return notInitErr("recovery: no valid pages found")
	}

	// Find the next erase-block boundary after the highest valid page.
	highestPhysical := m.Physical(maxLogical)
	boundary := ((highestPhysical / m.eraseSize) + 1) * m.eraseSize
	boundary %= m.numPages

	m.minLogical = 0
	if err := m.io.ReadPage(buf, boundary, m.pageSize); err != nil {
		return ioErr("recovery: read wrap-check page", err)
	}
	if logicalIDOf(buf)%m.numPages == boundary {
		m.minLogical = logicalIDOf(buf)
	}

	m.nextLogical = maxLogical + 1
	live := m.nextLogical - m.minLogical
	if live > m.numPages-m.reserved {
		return corruptErr("recovery: more live pages than the ring can hold")
	}
	m.numAvail = m.numPages - m.reserved - live
	return nil
}
