package embeddb

// updatePageMinMax adjusts a data page's stored min/max key and
// min/max value to account for a newly appended record, using the
// host's comparators. No-op unless Params.Has(UseMaxMin).
func (c *Config) updatePageMinMax(buf []byte, key, data []byte) {
	if !c.Params.Has(UseMaxMin) {
		return
	}
	if pageCount(buf) == 1 {
		copy(c.pageMinKey(buf), key)
		copy(c.pageMaxKey(buf), key)
		copy(c.pageMinValue(buf), data)
		copy(c.pageMaxValue(buf), data)
		return
	}
	if c.CompareKey(key, c.pageMinKey(buf)) < 0 {
		copy(c.pageMinKey(buf), key)
	}
	if c.CompareKey(key, c.pageMaxKey(buf)) > 0 {
		copy(c.pageMaxKey(buf), key)
	}
	if c.CompareData != nil {
		if c.CompareData(data, c.pageMinValue(buf)) < 0 {
			copy(c.pageMinValue(buf), data)
		}
		if c.CompareData(data, c.pageMaxValue(buf)) > 0 {
			copy(c.pageMaxValue(buf), data)
		}
	}
}

// appendRecord writes key/data (and, when UseVarData is enabled, a var
// offset) into the next free slot of a data page buffer and bumps its
// record count. Returns the slot index written.
func (c *Config) appendRecord(buf []byte, key, data []byte, varOffset uint32) int {
	n := pageCount(buf)
	rec := c.recordAt(buf, int(n))
	copy(c.recordKey(rec), key)
	copy(c.recordData(rec), data)
	if c.Params.Has(UseVarData) {
		c.setRecordVarOffset(rec, varOffset)
	}
	setPageCount(buf, n+1)
	c.updatePageMinMax(buf, key, data)
	return int(n)
}

// pageFull reports whether buf has no room for another record.
func (c *Config) pageFull(buf []byte) bool {
	return int(pageCount(buf)) >= c.maxRecordsPerPage
}
