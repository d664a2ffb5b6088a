package embeddb

import "github.com/embeddb/embeddb-go/zonemap"

// Put inserts a new record. key must compare strictly greater than
// every previously inserted key (spec §4.3): out-of-order and
// duplicate keys are rejected rather than silently reordered, since
// the engine never sorts.
func (e *Engine) Put(key, data []byte) error {
	return e.putWithVarOffset(key, data, NoVarData)
}

// putWithVarOffset is Put's implementation, parameterized over the
// var-data offset to store in the record; PutVar calls this after
// writing its blob to obtain the offset.
func (e *Engine) putWithVarOffset(key, data []byte, varOffset uint32) error {
	c := &e.cfg
	if len(key) != c.KeySize {
		return newError(Config, "key length does not match configured key size")
	}
	if len(data) != c.DataSize {
		return newError(Config, "data length does not match configured data size")
	}
	if e.lastKey != nil && c.CompareKey(key, e.lastKey) <= 0 {
		return ErrOutOfOrder
	}

	buf := e.buf.slot(dataWriteBuffer)
	if c.pageFull(buf) {
		if err := e.flushDataPage(); err != nil {
			return err
		}
		buf = e.buf.slot(dataWriteBuffer)
	}

	c.appendRecord(buf, key, data, varOffset)

	if c.Params.Has(UseBitmap) {
		for i := range e.bitmapScratch {
			e.bitmapScratch[i] = 0
		}
		c.UpdateBitmap(data, e.bitmapScratch)
		zonemap.Merge(c.pageBitmap(buf), e.bitmapScratch)
	}

	if c.Params.Has(RecordLevelConsistency) && e.rlc != nil {
		if err := e.rlc.stage(buf); err != nil {
			return err
		}
	}

	e.lastKey = append(e.lastKey[:0], key...)
	return nil
}

// flushDataPage writes the current data write buffer to the data
// ring, records its bitmap in the index ring (if enabled), adds a
// spline knot for it, and starts a fresh write buffer.
func (e *Engine) flushDataPage() error {
	c := &e.cfg
	buf := e.buf.slot(dataWriteBuffer)

	flushedID, err := e.dataRing.WriteNext(buf, e.reclaimDataPages)
	if err != nil {
		return wrapRingError(fileData, "write", err)
	}
	e.stats.NumWrites++

	if e.spline != nil {
		var keyBytes []byte
		if c.Params.Has(UseMaxMin) {
			keyBytes = c.pageMinKey(buf)
		} else {
			keyBytes = c.recordKey(c.recordAt(buf, 0))
		}
		e.spline.Add(decodeUintLE(keyBytes, c.KeySize), flushedID)
	}

	if c.Params.Has(UseIndex) {
		if err := e.appendIndexSlot(flushedID, c.pageBitmap(buf)); err != nil {
			return err
		}
	}

	c.resetPageHeader(buf)
	setPageLogicalID(buf, e.dataRing.NextLogical())
	return nil
}

// reclaimDataPages is the data ring's ReclaimHook: it prunes spline
// knots that now point below the ring's new minimum logical page.
func (e *Engine) reclaimDataPages(oldMin, newMin uint32) error {
	if e.spline == nil || e.cfg.Params.Has(DisabledSplineClean) {
		return nil
	}
	n := e.spline.CountBelow(newMin)
	if n > 0 {
		e.spline.Erase(n)
	}
	return nil
}

// appendIndexSlot records a flushed data page's bitmap into the index
// write buffer, flushing that page to the index ring first if it has
// no room.
func (e *Engine) appendIndexSlot(dataPageID uint32, bitmap []byte) error {
	c := &e.cfg
	buf := e.buf.slot(indexWriteBuffer)
	if c.idxPageFull(buf) {
		if _, err := e.indexRing.WriteNext(buf, nil); err != nil {
			return wrapRingError(fileIndex, "write", err)
		}
		e.stats.NumIdxWrites++
		c.resetIdxPageHeader(buf)
		setPageLogicalID(buf, e.indexRing.NextLogical())
	}
	c.appendIdxSlot(buf, dataPageID, bitmap)
	return nil
}
