package embeddb

import "io"

// VarDataStream reads a variable-length blob out of the var ring one
// chunk at a time, so a caller never needs to size a buffer for the
// largest possible blob up front.
type VarDataStream struct {
	eng         *Engine
	logicalPage uint32
	offset      int
	remaining   int
}

// Len returns the number of blob bytes not yet read.
func (s *VarDataStream) Len() int { return s.remaining }

// StreamRead reads into p, returning io.EOF once the blob is
// exhausted (on the same call that returns its final bytes, per the
// io.Reader contract).
func (s *VarDataStream) StreamRead(p []byte) (int, error) {
	if s.remaining == 0 {
		return 0, io.EOF
	}
	n := len(p)
	if n > s.remaining {
		n = s.remaining
	}
	if err := s.readRaw(p[:n]); err != nil {
		return 0, err
	}
	s.remaining -= n
	if s.remaining == 0 {
		return n, io.EOF
	}
	return n, nil
}

// readRaw reads len(p) bytes from the stream's current position,
// spanning var pages and rejecting a position the var ring has
// already reclaimed.
func (s *VarDataStream) readRaw(p []byte) error {
	c := &s.eng.cfg
	tmp := make([]byte, c.PageSize)
	for len(p) > 0 {
		if s.logicalPage < s.eng.varRing.MinLogical() {
			return ErrVarDataDeleted
		}
		if err := s.eng.varRing.ReadLogical(tmp, s.logicalPage); err != nil {
			return wrapRingError(fileVar, "read", err)
		}
		s.eng.stats.NumVarReads++
		avail := c.PageSize - s.offset
		n := len(p)
		if n > avail {
			n = avail
		}
		copy(p[:n], tmp[s.offset:s.offset+n])
		p = p[n:]
		s.offset += n
		if s.offset >= c.PageSize {
			s.logicalPage++
			s.offset = varPageHeaderSize
		}
	}
	return nil
}

// GetVar looks up key's fixed-size value (like Get, into data) and
// returns a stream over its associated blob. The stream is nil, with
// no error, if key was inserted via Put rather than PutVar. Requires
// UseVarData.
func (e *Engine) GetVar(key, data []byte) (*VarDataStream, error) {
	c := &e.cfg
	if !c.Params.Has(UseVarData) {
		return nil, ErrFeatureDisabled
	}
	if len(data) != c.DataSize {
		return nil, newError(Config, "data length does not match configured data size")
	}
	rec, err := e.findRecord(key)
	if err != nil {
		return nil, err
	}
	copy(data, c.recordData(rec))

	varOffset := c.recordVarOffset(rec)
	if varOffset == NoVarData {
		return nil, nil
	}
	logicalPage, offsetInPage := c.decodeVarOffset(varOffset)
	if logicalPage < e.varRing.MinLogical() {
		return nil, ErrVarDataDeleted
	}

	s := &VarDataStream{eng: e, logicalPage: logicalPage, offset: offsetInPage}
	header := make([]byte, c.variableDataHeaderSize)
	if err := s.readRaw(header); err != nil {
		return nil, err
	}
	if c.CompareKey(header[:c.KeySize], key) != 0 {
		return nil, wrapError(Corrupt, "var record key mismatch", nil)
	}
	s.remaining = int(getUint32(header[c.KeySize:]))
	return s, nil
}
