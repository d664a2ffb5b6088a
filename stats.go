package embeddb

// Stats is a point-in-time snapshot of engine counters, useful for
// diagnosing buffer-hit rates and I/O volume on constrained devices
// where every page read/write has a real cost.
type Stats struct {
	NumReads     uint64
	NumWrites    uint64
	NumIdxReads  uint64
	NumIdxWrites uint64
	NumVarReads  uint64
	NumVarWrites uint64
	BufferHits   uint64
}

// Stats returns a copy of the engine's current counters.
func (e *Engine) Stats() Stats { return e.stats }
