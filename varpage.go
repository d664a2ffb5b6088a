package embeddb

// Variable-data page layout (spec §4.9): a flat byte stream of
// length-prefixed blobs spanning pages, with a minimal per-page
// header so a page can be identified during recovery.
//
//	offset 0  logical page id (u32)
//	offset 4  payload: a stream of [key KeySize][length u32][blob bytes...]
//
// A record's key and length are only written once, at the record's
// start; continuation pages carry raw blob bytes with no repeated
// header. variableDataHeaderSize (KeySize+4) is the per-record
// prefix width, not the page header width.
const varPageHeaderSize = 4

func varPageLogicalID(buf []byte) uint32        { return getUint32(buf) }
func setVarPageLogicalID(buf []byte, id uint32) { putUint32(buf, id) }

// varPagePayloadSize is the number of payload bytes available per var page.
func (c *Config) varPagePayloadSize() int { return c.PageSize - varPageHeaderSize }

// encodeVarOffset and decodeVarOffset map a (logical page, in-page
// offset) position in the var ring to/from the single uint32 stored
// in a data record's trailing offset field.
func (c *Config) encodeVarOffset(logicalPage uint32, offsetInPage int) uint32 {
	return logicalPage*uint32(c.PageSize) + uint32(offsetInPage)
}

func (c *Config) decodeVarOffset(off uint32) (logicalPage uint32, offsetInPage int) {
	ps := uint32(c.PageSize)
	return off / ps, int(off % ps)
}
