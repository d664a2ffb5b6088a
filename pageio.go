package embeddb

import "github.com/embeddb/embeddb-go/ring"

// PageIO is the page-level I/O interface each of the three ring files
// consumes. It abstracts over whatever block storage the host provides
// — a plain file, a raw-flash "dataflash" wrapper, an SD card through a
// FAT shim — so the core never touches a filesystem directly.
//
// Every method reports success or failure; the core treats a failure as
// fatal for that single call and returns it to the caller as an Io
// error. There is no internal retry.
//
// PageIO is a type alias for ring.PageIO: the ring manager and the
// engine must agree on the exact same interface, and ring is the
// natural owner of the low-level page-file contract it consumes.
type PageIO = ring.PageIO

// Mode selects how a PageIO backend opens its backing file.
type Mode = ring.Mode

const (
	// ModeCreate creates or truncates the backing file.
	ModeCreate = ring.ModeCreate
	// ModeOpenExisting opens an existing backing file, keeping its
	// contents, for recovery.
	ModeOpenExisting = ring.ModeOpenExisting
)
