package embeddb

// Data page layout (spec §3):
//
//	offset 0                      logical page id (u32)
//	offset 4                      record count (u16)
//	offset 6                      bitmap, BitmapSize bytes (if UseIndex)
//	offset bitmapEnd              minKey, KeySize bytes (if UseMaxMin)
//	offset bitmapEnd+KeySize      maxKey, KeySize bytes (if UseMaxMin)
//	offset ...+2*KeySize          minValue, DataSize bytes (if UseMaxMin)
//	offset ...+2*KeySize+DataSize maxValue, DataSize bytes (if UseMaxMin)
//	offset headerSize             records, recordSize bytes each

func (c *Config) bitmapOffset() int { return dataPageHeaderFixedSize }

func (c *Config) bitmapEnd() int {
	if c.Params.Has(UseIndex) {
		return c.bitmapOffset() + c.BitmapSize
	}
	return c.bitmapOffset()
}

func (c *Config) minKeyOffset() int   { return c.bitmapEnd() }
func (c *Config) maxKeyOffset() int   { return c.minKeyOffset() + c.KeySize }
func (c *Config) minValueOffset() int { return c.maxKeyOffset() + c.KeySize }
func (c *Config) maxValueOffset() int { return c.minValueOffset() + c.DataSize }

func pageLogicalID(buf []byte) uint32        { return getUint32(buf) }
func setPageLogicalID(buf []byte, id uint32) { putUint32(buf, id) }

func pageCount(buf []byte) uint16       { return getUint16(buf[4:]) }
func setPageCount(buf []byte, n uint16) { putUint16(buf[4:], n) }

func (c *Config) pageBitmap(buf []byte) []byte {
	return buf[c.bitmapOffset():c.bitmapEnd()]
}

func (c *Config) pageMinKey(buf []byte) []byte {
	return buf[c.minKeyOffset() : c.minKeyOffset()+c.KeySize]
}
func (c *Config) pageMaxKey(buf []byte) []byte {
	return buf[c.maxKeyOffset() : c.maxKeyOffset()+c.KeySize]
}
func (c *Config) pageMinValue(buf []byte) []byte {
	return buf[c.minValueOffset() : c.minValueOffset()+c.DataSize]
}
func (c *Config) pageMaxValue(buf []byte) []byte {
	return buf[c.maxValueOffset() : c.maxValueOffset()+c.DataSize]
}

// recordAt returns the i'th record slot of a data page buffer.
func (c *Config) recordAt(buf []byte, i int) []byte {
	off := c.headerSize + i*c.recordSize
	return buf[off : off+c.recordSize]
}

func (c *Config) recordKey(rec []byte) []byte  { return rec[:c.KeySize] }
func (c *Config) recordData(rec []byte) []byte { return rec[c.KeySize : c.KeySize+c.DataSize] }

func (c *Config) recordVarOffset(rec []byte) uint32 {
	return getUint32(rec[c.KeySize+c.DataSize:])
}
func (c *Config) setRecordVarOffset(rec []byte, v uint32) {
	putUint32(rec[c.KeySize+c.DataSize:], v)
}

// resetPageHeader reinitializes buf as an empty data page: zeroed
// count and bitmap, min set to all-0xFF so the first record inserted
// always beats it under CompareKey/CompareData, max left zeroed.
func (c *Config) resetPageHeader(buf []byte) {
	for i := range buf[:c.headerSize] {
		buf[i] = 0
	}
	if c.Params.Has(UseMaxMin) {
		minKey := c.pageMinKey(buf)
		for i := range minKey {
			minKey[i] = 0xFF
		}
		minVal := c.pageMinValue(buf)
		for i := range minVal {
			minVal[i] = 0xFF
		}
	}
}
