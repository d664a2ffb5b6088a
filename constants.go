package embeddb

// NoVarData is the varOffset sentinel stored in a record's trailing
// 4-byte offset field when the record carries no variable-length data.
const NoVarData uint32 = 0xFFFFFFFF

// emptySlot marks the data read buffer (buffers.bufferedDataPageID) as
// currently holding no page.
const emptySlot uint32 = 0xFFFFFFFF

// dataPageHeaderFixedSize is the part of the data page header that is
// always present: logical id (4) + record count (2).
const dataPageHeaderFixedSize = 6

// idxPageHeaderSize is the fixed index page header: logical id (4) +
// count (2) + 2 reserved bytes + first-covered-data-pageId (4).
const idxPageHeaderSize = 12

// Params is a bit mask of optional subsystems, mirroring the original
// engine's parameter flags.
type Params uint8

const (
	// UseIndex enables the secondary bitmap-zone-map ring file.
	UseIndex Params = 1 << iota

	// UseMaxMin stores per-page min/max key and min/max value in the
	// data page header.
	UseMaxMin

	// UseSum is reserved for a future per-page aggregate; carried for
	// layout compatibility but not interpreted by this engine.
	UseSum

	// UseBitmap enables the per-page bitmap zone map accumulated from
	// the host's UpdateBitmap callback. Implies UseIndex.
	UseBitmap

	// UseVarData enables the variable-length data ring file and
	// PutVar/GetVar.
	UseVarData

	// ResetData truncates and rebuilds all ring files at Open instead
	// of running the recovery scan.
	ResetData

	// RecordLevelConsistency stages the partial data-write page into a
	// reserved two-erase-block region after every Put.
	RecordLevelConsistency

	// DisabledSplineClean skips spline pruning when the data ring
	// reclaims pages (diagnostic / benchmarking use only).
	DisabledSplineClean
)

// Has reports whether all bits in want are set in p.
func (p Params) Has(want Params) bool {
	return p&want == want
}

// UseBinarySearch, unlike the other Params, lives in Config directly
// rather than the bit mask: it selects pure binary search over the
// live data-page range instead of building and querying a spline, and
// is mutually exclusive with spline maintenance.

// fileKind names which of the three ring files an operation targets,
// used for error messages.
type fileKind uint8

const (
	fileData fileKind = iota
	fileIndex
	fileVar
)

func (f fileKind) String() string {
	switch f {
	case fileData:
		return "data"
	case fileIndex:
		return "index"
	case fileVar:
		return "var"
	default:
		return "unknown"
	}
}
