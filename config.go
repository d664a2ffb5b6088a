package embeddb

// Config describes the fixed shape of an engine instance: record
// layout, ring-file geometry, buffer sizing, and the host callbacks
// that give the byte-oriented core meaning. It is validated once, at
// Open, and never changes for the lifetime of the Engine.
type Config struct {
	// KeySize is the width in bytes (1..8) of the fixed-size key.
	KeySize int
	// DataSize is the width in bytes of the fixed-size value.
	DataSize int
	// PageSize is the size in bytes of every page in all three rings.
	PageSize int

	// NumDataPages is the logical page count of the data ring.
	NumDataPages uint32
	// NumIndexPages is the logical page count of the secondary index
	// ring. Ignored unless Params.Has(UseIndex).
	NumIndexPages uint32
	// NumVarPages is the logical page count of the variable-data ring.
	// Ignored unless Params.Has(UseVarData).
	NumVarPages uint32
	// EraseSizeInPages is the erase-block granularity shared by all
	// three rings; every ring's page count must be a multiple of it.
	EraseSizeInPages uint32

	// BufferSizeInBlocks is a sizing knob validated against how many
	// rings are active (two blocks per enabled ring: one write buffer,
	// one read/scratch buffer); the engine's actual buffer pool (see
	// buffer.go) is a fixed small set of dedicated slots rather than a
	// pool sized directly off this count.
	BufferSizeInBlocks int

	// NumSplinePoints bounds the number of retained spline knots. Must
	// be >= 4 unless UseBinarySearch is set.
	NumSplinePoints int
	// IndexMaxError is the spline's initial error tolerance in pages.
	IndexMaxError int32

	// BitmapSize is the width in bytes of the host's per-page zone-map
	// bitmap. Ignored unless Params.Has(UseBitmap).
	BitmapSize int

	// Params selects optional subsystems (see constants.go).
	Params Params
	// UseBinarySearch selects pure binary search over the live data
	// page range instead of building and querying a spline.
	UseBinarySearch bool

	// CompareKey compares two KeySize-byte keys. Required.
	CompareKey CompareFunc
	// CompareData compares two DataSize-byte values. Required when
	// Params.Has(UseMaxMin) or Params.Has(UseBitmap).
	CompareData CompareFunc
	// UpdateBitmap, InBitmap and BuildBitmapFromRange implement the
	// host's value-to-bitmap encoding. Required when
	// Params.Has(UseBitmap).
	UpdateBitmap        UpdateBitmapFunc
	InBitmap            InBitmapFunc
	BuildBitmapFromRange BuildBitmapFromRangeFunc

	// DataIO, IndexIO and VarIO are the page I/O backends for each
	// ring file. DataIO is required; IndexIO is required when using
	// the index, VarIO when using variable data.
	DataIO  PageIO
	IndexIO PageIO
	VarIO   PageIO

	// derived fields, computed by validate() and consulted throughout
	// the engine; exported nowhere, recomputed on every Open.
	recordSize             int
	headerSize             int
	variableDataHeaderSize int
	maxRecordsPerPage       int
	maxIdxRecordsPerPage    int
}

// Option mutates a Config during construction. Options are applied in
// order, then the result is validated by Open.
type Option func(*Config)

// WithPageSize sets the shared page size for all three rings.
func WithPageSize(n int) Option { return func(c *Config) { c.PageSize = n } }

// WithKeySize sets the fixed key width in bytes.
func WithKeySize(n int) Option { return func(c *Config) { c.KeySize = n } }

// WithDataSize sets the fixed value width in bytes.
func WithDataSize(n int) Option { return func(c *Config) { c.DataSize = n } }

// WithEraseSize sets the erase-block granularity in pages.
func WithEraseSize(n uint32) Option { return func(c *Config) { c.EraseSizeInPages = n } }

// WithDataPages sets the data ring's logical page count.
func WithDataPages(n uint32) Option { return func(c *Config) { c.NumDataPages = n } }

// WithIndexPages sets the secondary index ring's logical page count
// and enables UseIndex.
func WithIndexPages(n uint32) Option {
	return func(c *Config) { c.NumIndexPages = n; c.Params |= UseIndex }
}

// WithVarPages sets the variable-data ring's logical page count and
// enables UseVarData.
func WithVarPages(n uint32) Option {
	return func(c *Config) { c.NumVarPages = n; c.Params |= UseVarData }
}

// WithBitmap enables the bitmap zone map with the given width in bytes
// and host callbacks, implying UseIndex.
func WithBitmap(size int, update UpdateBitmapFunc, in InBitmapFunc, build BuildBitmapFromRangeFunc) Option {
	return func(c *Config) {
		c.Params |= UseBitmap | UseIndex
		c.BitmapSize = size
		c.UpdateBitmap = update
		c.InBitmap = in
		c.BuildBitmapFromRange = build
	}
}

// WithMaxMin enables per-page min/max key and value tracking.
func WithMaxMin() Option { return func(c *Config) { c.Params |= UseMaxMin } }

// WithRecordLevelConsistency enables the RLC staging region.
func WithRecordLevelConsistency() Option {
	return func(c *Config) { c.Params |= RecordLevelConsistency }
}

// WithSpline sets the spline knot capacity and initial error bound.
func WithSpline(numPoints int, maxError int32) Option {
	return func(c *Config) { c.NumSplinePoints = numPoints; c.IndexMaxError = maxError }
}

// WithBinarySearch disables spline maintenance in favor of pure binary
// search over the live data-page range.
func WithBinarySearch() Option { return func(c *Config) { c.UseBinarySearch = true } }

// WithBufferBlocks sets the number of page-sized slots backing the
// buffer pool.
func WithBufferBlocks(n int) Option { return func(c *Config) { c.BufferSizeInBlocks = n } }

// WithResetData forces a truncate-and-rebuild of all ring files rather
// than running the recovery scan.
func WithResetData() Option { return func(c *Config) { c.Params |= ResetData } }

// minBufferBlocks returns the minimum BufferSizeInBlocks required by c's
// enabled features (spec.md §6: "Minimum configuration").
func (c *Config) minBufferBlocks() int {
	n := 2
	if c.Params.Has(UseIndex) {
		n = 4
	}
	if c.Params.Has(UseVarData) {
		if c.Params.Has(UseIndex) {
			n = 6
		} else if n < 4 {
			n = 4
		}
	}
	return n
}

// validate checks c for internal consistency and fills in the derived
// fields, mirroring the original engine's embedDBInit checks in the
// order it performs them.
func (c *Config) validate() error {
	if c.KeySize < 1 || c.KeySize > 8 {
		return newError(Config, "key size must be between 1 and 8 bytes")
	}
	if c.DataSize < 1 {
		return newError(Config, "data size must be at least 1 byte")
	}
	if c.EraseSizeInPages == 0 {
		return newError(Config, "erase size in pages must be nonzero")
	}
	if c.NumDataPages%c.EraseSizeInPages != 0 {
		return newError(Config, "number of data pages must be a multiple of the erase size")
	}
	minData := uint32(2)
	if c.Params.Has(RecordLevelConsistency) {
		minData = 4
	}
	if c.NumDataPages < minData*c.EraseSizeInPages {
		return newError(Config, "too few data pages for the configured erase size and RLC setting")
	}

	c.recordSize = c.KeySize + c.DataSize
	if c.Params.Has(UseVarData) {
		if c.VarIO == nil {
			return newError(Config, "var data enabled but no VarIO backend supplied")
		}
		if c.NumVarPages%c.EraseSizeInPages != 0 {
			return newError(Config, "number of var pages must be a multiple of the erase size")
		}
		c.recordSize += 4
	}

	c.headerSize = dataPageHeaderFixedSize
	if c.Params.Has(UseIndex) {
		if c.IndexIO == nil {
			return newError(Config, "index enabled but no IndexIO backend supplied")
		}
		if c.NumIndexPages%c.EraseSizeInPages != 0 {
			return newError(Config, "number of index pages must be a multiple of the erase size")
		}
		if !c.Params.Has(UseBitmap) {
			return newError(Config, "index enabled without a bitmap; the index ring stores only bitmaps")
		}
		if c.Params.Has(UseBitmap) {
			if c.BitmapSize <= 0 {
				return newError(Config, "bitmap enabled but bitmap size is not positive")
			}
			c.headerSize += c.BitmapSize
		}
	}
	if c.Params.Has(UseMaxMin) {
		c.headerSize += 2 * (c.KeySize + c.DataSize)
	}

	if c.PageSize <= c.headerSize {
		return newError(Config, "page size too small for the configured header")
	}
	c.maxRecordsPerPage = (c.PageSize - c.headerSize) / c.recordSize
	if c.maxRecordsPerPage < 1 {
		return newError(Config, "page size too small to hold even one record")
	}

	if c.Params.Has(UseIndex) {
		c.maxIdxRecordsPerPage = (c.PageSize - idxPageHeaderSize) / c.BitmapSize
		if c.maxIdxRecordsPerPage < 1 {
			return newError(Config, "page size too small to hold even one index entry")
		}
	}

	if !c.UseBinarySearch {
		if c.NumSplinePoints < 4 {
			return newError(Config, "spline requires at least 4 points")
		}
	}

	want := c.minBufferBlocks()
	if c.BufferSizeInBlocks < want {
		return newError(Config, "buffer size in blocks too small for the configured features")
	}

	if c.DataIO == nil {
		return newError(Config, "no DataIO backend supplied")
	}
	if c.CompareKey == nil {
		return newError(Config, "CompareKey is required")
	}
	if (c.Params.Has(UseMaxMin) || c.Params.Has(UseBitmap)) && c.CompareData == nil {
		return newError(Config, "CompareData is required when using max/min or bitmap tracking")
	}
	if c.Params.Has(UseBitmap) && (c.UpdateBitmap == nil || c.InBitmap == nil || c.BuildBitmapFromRange == nil) {
		return newError(Config, "bitmap callbacks are required when using bitmap tracking")
	}

	c.variableDataHeaderSize = c.KeySize + 4
	return nil
}

// NewConfig builds a Config from defaults plus the given options, but
// does not validate it; Open performs validation.
func NewConfig(opts ...Option) Config {
	c := Config{
		PageSize:           512,
		BufferSizeInBlocks: 2,
		NumSplinePoints:    32,
		IndexMaxError:      1,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
