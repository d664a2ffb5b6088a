package embeddb

// Get looks up key and copies its value into out, which must be
// DataSize bytes. It first checks the in-progress write buffer, then
// narrows to a bracket of candidate data pages via the spline (or
// binary search, if configured) and binary-searches within each
// candidate page (spec §4.5).
func (e *Engine) Get(key, out []byte) error {
	c := &e.cfg
	if len(out) != c.DataSize {
		return newError(Config, "out length does not match configured data size")
	}
	rec, err := e.findRecord(key)
	if err != nil {
		return err
	}
	copy(out, c.recordData(rec))
	return nil
}

// findRecord locates key's record and returns an owned copy of its
// full record bytes (key, value, and, if enabled, var offset).
func (e *Engine) findRecord(key []byte) ([]byte, error) {
	c := &e.cfg
	if len(key) != c.KeySize {
		return nil, newError(Config, "key length does not match configured key size")
	}

	if rec, ok := c.searchPage(e.buf.slot(dataWriteBuffer), key); ok {
		return append([]byte(nil), rec...), nil
	}

	min, next := e.dataRing.MinLogical(), e.dataRing.NextLogical()
	if next == min {
		return nil, ErrNotFound
	}

	low, high := e.candidateRange(key, min, next)

	buf := e.buf.slot(dataReadBuffer)
	if e.spline == nil {
		// Binary search for the last live page whose first key is <= key;
		// the loop below then searches that single page.
		for low < high {
			mid := low + (high-low+1)/2
			if err := e.dataRing.ReadLogical(buf, mid); err != nil {
				e.buf.bufferedDataPageID = emptySlot
				return nil, wrapRingError(fileData, "read", err)
			}
			e.stats.NumReads++
			e.buf.bufferedDataPageID = mid
			if c.CompareKey(key, c.recordKey(c.recordAt(buf, 0))) < 0 {
				high = mid - 1
			} else {
				low = mid
			}
		}
	}
	for p := low; p <= high; p++ {
		if e.buf.bufferedDataPageID == p {
			e.stats.BufferHits++
		} else {
			if err := e.dataRing.ReadLogical(buf, p); err != nil {
				e.buf.bufferedDataPageID = emptySlot
				return nil, wrapRingError(fileData, "read", err)
			}
			e.stats.NumReads++
			e.buf.bufferedDataPageID = p
		}
		if c.Params.Has(UseMaxMin) {
			if c.CompareKey(key, c.pageMinKey(buf)) < 0 || c.CompareKey(key, c.pageMaxKey(buf)) > 0 {
				continue
			}
		}
		if rec, ok := c.searchPage(buf, key); ok {
			e.trackError(int64((low+high)/2), p)
			return append([]byte(nil), rec...), nil
		}
	}
	return nil, ErrNotFound
}

// candidateRange returns the [low, high] bracket of live logical data
// pages that might contain key, clamped to [min, next-1].
func (e *Engine) candidateRange(key []byte, min, next uint32) (low, high uint32) {
	c := &e.cfg
	var lo, hi int64
	if e.spline != nil {
		lo, hi = e.spline.Find(decodeUintLE(key, c.KeySize))
	} else {
		lo, hi = int64(min), int64(next)-1
	}
	if lo < int64(min) {
		lo = int64(min)
	}
	if hi > int64(next)-1 {
		hi = int64(next) - 1
	}
	if lo > hi {
		lo, hi = int64(min), int64(next)-1
	}
	return uint32(lo), uint32(hi)
}

// searchPage binary-searches buf's records for key, returning the
// matching record slice.
func (c *Config) searchPage(buf []byte, key []byte) (rec []byte, found bool) {
	n := int(pageCount(buf))
	if n == 0 {
		return nil, false
	}
	lo, hi := 0, n-1
	for lo <= hi {
		mid := (lo + hi) / 2
		r := c.recordAt(buf, mid)
		cmp := c.CompareKey(key, c.recordKey(r))
		switch {
		case cmp == 0:
			return r, true
		case cmp < 0:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}
	return nil, false
}
