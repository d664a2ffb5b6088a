package embeddb

// bufferSlot names one of the engine's fixed-purpose page buffers.
// Unlike a general page cache, each slot has a single dedicated job;
// which slots are actually exercised depends on which Params are
// enabled, but all four are always allocated for simplicity.
type bufferSlot int

const (
	dataWriteBuffer bufferSlot = iota
	dataReadBuffer
	indexWriteBuffer
	varWriteBuffer
	numBufferSlots
)

// buffers holds the engine's in-memory page buffers, one flat
// allocation sliced into fixed-purpose windows. There is no
// indexReadBuffer/varReadBuffer: index and var reads are always made
// through a long-lived stream object (Iterator, VarDataStream) that
// can be interleaved with another of its own kind, so those need
// their own private scratch pages rather than one shared per engine.
// dataReadBuffer is safe to share because every caller (findRecord)
// finishes its scan within a single synchronous call.
type buffers struct {
	flat  []byte
	pages [numBufferSlots][]byte

	// bufferedDataPageID is the logical data page currently held in
	// dataReadBuffer, or emptySlot if none, so a Get for a key on the
	// same page as the previous Get skips the ring read entirely.
	bufferedDataPageID uint32
}

func newBuffers(pageSize int) *buffers {
	b := &buffers{
		flat:               make([]byte, int(numBufferSlots)*pageSize),
		bufferedDataPageID: emptySlot,
	}
	for i := 0; i < int(numBufferSlots); i++ {
		b.pages[i] = b.flat[i*pageSize : (i+1)*pageSize]
	}
	return b
}

func (b *buffers) slot(s bufferSlot) []byte { return b.pages[s] }
