package embeddb

import "github.com/embeddb/embeddb-go/zonemap"

// IteratorOptions bounds a range scan. A nil bound is unbounded on
// that side. MinValue/MaxValue are always applied exactly via
// CompareData; when the engine also has a bitmap zone map, they
// additionally let Next skip whole pages the bitmap proves cannot
// contain a matching value, without reading them. The bitmap is only
// ever used for that page-skipping hint — it is lossy by construction
// (spec §4.7) and is never the sole record-level filter.
type IteratorOptions struct {
	MinKey, MaxKey     []byte
	MinValue, MaxValue []byte
}

// Iterator walks live records in ascending key order across the
// write buffer and the flushed data ring, consulting the secondary
// index's per-page bitmaps to skip pages a value range excludes
// (spec §4.10).
type Iterator struct {
	eng  *Engine
	opts IteratorOptions

	queryBitmap []byte

	curLogical uint32
	endLogical uint32
	curPage    []byte
	curIdx     int
	curCount   int
	onWriteBuf bool
	done       bool

	idxPage          []byte
	idxLoaded        bool
	idxFirst         uint32
	idxCount         int
	idxLogicalCursor uint32

	lastVarOffset uint32
}

// InitIterator begins a scan over [opts.MinKey, opts.MaxKey].
func (e *Engine) InitIterator(opts IteratorOptions) (*Iterator, error) {
	c := &e.cfg
	it := &Iterator{
		eng:        e,
		opts:       opts,
		curLogical: e.dataRing.MinLogical(),
		endLogical: e.dataRing.NextLogical(),
		curPage:    make([]byte, c.PageSize),
	}
	if (opts.MinValue != nil || opts.MaxValue != nil) && c.CompareData == nil {
		return nil, newError(Config, "CompareData is required to filter by MinValue/MaxValue")
	}
	if c.Params.Has(UseBitmap) && (opts.MinValue != nil || opts.MaxValue != nil) {
		it.queryBitmap = make([]byte, c.BitmapSize)
		c.BuildBitmapFromRange(opts.MinValue, opts.MaxValue, it.queryBitmap)
	}
	if c.Params.Has(UseIndex) {
		it.idxPage = make([]byte, c.PageSize)
		it.idxLogicalCursor = e.indexRing.MinLogical()
	}
	return it, nil
}

// Next advances to the next matching record, copying its key and
// value into key and data (both caller-sized buffers) and reporting
// whether one was found.
func (it *Iterator) Next(key, data []byte) (bool, error) {
	c := &it.eng.cfg
	for {
		if it.done {
			return false, nil
		}
		if it.curIdx >= it.curCount {
			if err := it.advancePage(); err != nil {
				return false, err
			}
			if it.done {
				return false, nil
			}
			continue
		}

		rec := c.recordAt(it.curPage, it.curIdx)
		it.curIdx++
		k := c.recordKey(rec)

		if it.opts.MinKey != nil && c.CompareKey(k, it.opts.MinKey) < 0 {
			continue
		}
		if it.opts.MaxKey != nil && c.CompareKey(k, it.opts.MaxKey) > 0 {
			it.done = true
			return false, nil
		}
		v := c.recordData(rec)
		if it.opts.MinValue != nil && c.CompareData(v, it.opts.MinValue) < 0 {
			continue
		}
		if it.opts.MaxValue != nil && c.CompareData(v, it.opts.MaxValue) > 0 {
			continue
		}
		copy(key, k)
		copy(data, v)
		if c.Params.Has(UseVarData) {
			it.lastVarOffset = c.recordVarOffset(rec)
		}
		return true, nil
	}
}

// advancePage loads the next nonempty page (skipping ones the bitmap
// zone map rules out), falling through to the write buffer once the
// flushed ring is exhausted.
func (it *Iterator) advancePage() error {
	c := &it.eng.cfg
	for it.curLogical < it.endLogical {
		dataPageID := it.curLogical
		if it.queryBitmap != nil {
			if bitmap, ok := it.lookupBitmap(dataPageID); ok {
				if !zonemap.Overlap(bitmap, it.queryBitmap) {
					it.curLogical++
					continue
				}
			}
		}
		if err := it.eng.dataRing.ReadLogical(it.curPage, dataPageID); err != nil {
			return wrapRingError(fileData, "read", err)
		}
		it.eng.stats.NumReads++
		it.curLogical++
		it.curCount = int(pageCount(it.curPage))
		it.curIdx = 0
		if it.curCount == 0 {
			continue
		}
		if c.Params.Has(UseMaxMin) && it.opts.MaxKey != nil {
			if c.CompareKey(c.pageMinKey(it.curPage), it.opts.MaxKey) > 0 {
				it.done = true
				return nil
			}
		}
		return nil
	}
	if !it.onWriteBuf {
		it.onWriteBuf = true
		copy(it.curPage, it.eng.buf.slot(dataWriteBuffer))
		it.curCount = int(pageCount(it.curPage))
		it.curIdx = 0
		if it.curCount > 0 {
			return nil
		}
	}
	it.done = true
	return nil
}

// lookupBitmap returns the secondary index's bitmap for dataPageID,
// scanning forward through index pages (never backward, since
// dataPageID only increases across a scan).
func (it *Iterator) lookupBitmap(dataPageID uint32) ([]byte, bool) {
	c := &it.eng.cfg
	for {
		if it.idxLoaded && dataPageID >= it.idxFirst && dataPageID < it.idxFirst+uint32(it.idxCount) {
			return c.idxSlot(it.idxPage, int(dataPageID-it.idxFirst)), true
		}
		if it.idxLogicalCursor >= it.eng.indexRing.NextLogical() {
			return nil, false
		}
		if err := it.eng.indexRing.ReadLogical(it.idxPage, it.idxLogicalCursor); err != nil {
			return nil, false
		}
		it.eng.stats.NumIdxReads++
		it.idxLogicalCursor++
		it.idxFirst = idxFirstDataPage(it.idxPage)
		it.idxCount = int(pageCount(it.idxPage))
		it.idxLoaded = it.idxCount > 0
		if !it.idxLoaded {
			return nil, false
		}
	}
}

// NextVar is Next plus a stream over the record's variable-length
// blob, or a nil stream if the record was written via Put rather than
// PutVar. Requires UseVarData.
func (it *Iterator) NextVar(key, data []byte) (bool, *VarDataStream, error) {
	c := &it.eng.cfg
	if !c.Params.Has(UseVarData) {
		return false, nil, ErrFeatureDisabled
	}
	ok, err := it.Next(key, data)
	if err != nil || !ok {
		return ok, nil, err
	}
	varOffset := it.lastVarOffset
	if varOffset == NoVarData {
		return true, nil, nil
	}
	logicalPage, offsetInPage := c.decodeVarOffset(varOffset)
	if logicalPage < it.eng.varRing.MinLogical() {
		return true, nil, ErrVarDataDeleted
	}
	s := &VarDataStream{eng: it.eng, logicalPage: logicalPage, offset: offsetInPage}
	header := make([]byte, c.variableDataHeaderSize)
	if err := s.readRaw(header); err != nil {
		return true, nil, err
	}
	s.remaining = int(getUint32(header[c.KeySize:]))
	return true, s, nil
}
