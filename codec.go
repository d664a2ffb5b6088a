package embeddb

import "encoding/binary"

// Record bytes are compared as opaque sequences by host-supplied
// comparators and must never be assumed to be naturally aligned: a key
// or value is read directly out of a page buffer at an arbitrary
// offset. All multi-byte loads below go through encoding/binary rather
// than pointer casts for that reason (see DESIGN.md).

// putUint32 stores v as little-endian into b[0:4].
func putUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// getUint32 reads a little-endian uint32 from b[0:4].
func getUint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// putUint16 stores v as little-endian into b[0:2].
func putUint16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}

// getUint16 reads a little-endian uint16 from b[0:2].
func getUint16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// decodeUintLE interprets the first n bytes (n in 1..8) of b as an
// unsigned little-endian integer. Used for the spline's numeric
// interpolation estimate and by the CompareUint64Key/CompareUint64Data
// helpers; the engine's own lookups compare keys only through
// CompareKey.
func decodeUintLE(b []byte, n int) uint64 {
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = (v << 8) | uint64(b[i])
	}
	return v
}
