package embeddb

import (
	"github.com/embeddb/embeddb-go/ring"
	"github.com/embeddb/embeddb-go/spline"
)

// Engine is an open embeddb instance: a data page ring, optional
// secondary index and variable-data rings, an in-memory learned
// index, and the fixed-purpose write/read buffers that back Put,
// Get, PutVar, GetVar and iteration.
type Engine struct {
	cfg Config

	dataRing  *ring.Manager
	indexRing *ring.Manager
	varRing   *ring.Manager

	spline *spline.Spline
	buf    *buffers
	rlc    *rlcState

	// bitmapScratch holds one value's worth of bits, built fresh by
	// UpdateBitmap on every Put and OR-merged into the page's
	// accumulated bitmap (see put.go), so the host callback never needs
	// to know it is writing into a shared, already-populated bitmap.
	bitmapScratch []byte

	// varWriteLogical/varWriteOffset is the current write cursor
	// (logical page, in-page byte offset) inside the var write buffer.
	varWriteLogical uint32
	varWriteOffset  int

	// lastKey is the most recently inserted key, used to enforce the
	// strictly-ascending insert order Put requires.
	lastKey []byte

	stats Stats
	log   *logger
}

// Open validates cfg, opens its backing PageIO instances, and either
// initializes fresh ring files (ModeCreate) or runs the recovery scan
// (ModeOpenExisting).
func Open(cfg Config, mode Mode) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Params.Has(ResetData) {
		mode = ModeCreate
	}

	e := &Engine{cfg: cfg, buf: newBuffers(cfg.PageSize), log: newLogger(false)}
	e.stats = Stats{}

	rlcReserved := uint32(0)
	if cfg.Params.Has(RecordLevelConsistency) {
		rlcReserved = 2 * cfg.EraseSizeInPages
	}
	e.dataRing = ring.New(cfg.DataIO, cfg.NumDataPages, cfg.EraseSizeInPages, cfg.PageSize, 0)
	if err := e.dataRing.Open(mode, cfg.Params.Has(RecordLevelConsistency)); err != nil {
		return nil, wrapRingError(fileData, "open", err)
	}
	if rlcReserved > 0 {
		e.rlc = newRLCState(cfg.DataIO, cfg.PageSize, cfg.EraseSizeInPages, cfg.NumDataPages)
	}

	if cfg.Params.Has(UseIndex) {
		e.indexRing = ring.New(cfg.IndexIO, cfg.NumIndexPages, cfg.EraseSizeInPages, cfg.PageSize, 0)
		if err := e.indexRing.Open(mode, false); err != nil {
			return nil, wrapRingError(fileIndex, "open", err)
		}
	}
	if cfg.Params.Has(UseVarData) {
		e.varRing = ring.New(cfg.VarIO, cfg.NumVarPages, cfg.EraseSizeInPages, cfg.PageSize, 0)
		if err := e.varRing.Open(mode, false); err != nil {
			return nil, wrapRingError(fileVar, "open", err)
		}
	}

	if !cfg.UseBinarySearch {
		e.spline = spline.New(cfg.NumSplinePoints, cfg.IndexMaxError)
	}
	if cfg.Params.Has(UseBitmap) {
		e.bitmapScratch = make([]byte, cfg.BitmapSize)
	}

	e.buf.bufferedDataPageID = emptySlot
	cfg.resetPageHeader(e.buf.slot(dataWriteBuffer))
	if cfg.Params.Has(UseIndex) {
		cfg.resetIdxPageHeader(e.buf.slot(indexWriteBuffer))
	}

	if mode == ModeOpenExisting {
		if err := e.recoverState(); err != nil {
			return nil, err
		}
	} else {
		setPageLogicalID(e.buf.slot(dataWriteBuffer), e.dataRing.NextLogical())
		if cfg.Params.Has(UseIndex) {
			setPageLogicalID(e.buf.slot(indexWriteBuffer), e.indexRing.NextLogical())
		}
		if cfg.Params.Has(UseVarData) {
			setVarPageLogicalID(e.buf.slot(varWriteBuffer), e.varRing.NextLogical())
			e.varWriteLogical = e.varRing.NextLogical()
			e.varWriteOffset = varPageHeaderSize
		}
	}

	return e, nil
}

// recoverState rebuilds the spline (and, when RLC is enabled, the
// partially-written data page) after reopening an existing engine.
func (e *Engine) recoverState() error {
	c := &e.cfg
	if c.Params.Has(RecordLevelConsistency) && e.rlc != nil {
		found, err := e.rlc.recover(e.buf.slot(dataWriteBuffer), e.dataRing.NextLogical())
		if err != nil {
			return err
		}
		if !found {
			c.resetPageHeader(e.buf.slot(dataWriteBuffer))
			setPageLogicalID(e.buf.slot(dataWriteBuffer), e.dataRing.NextLogical())
		}
	} else {
		c.resetPageHeader(e.buf.slot(dataWriteBuffer))
		setPageLogicalID(e.buf.slot(dataWriteBuffer), e.dataRing.NextLogical())
	}

	if e.spline != nil {
		min, next := e.dataRing.MinLogical(), e.dataRing.NextLogical()
		tmp := make([]byte, c.PageSize)
		for p := min; p < next; p++ {
			if err := e.dataRing.ReadLogical(tmp, p); err != nil {
				return wrapRingError(fileData, "read", err)
			}
			if pageCount(tmp) == 0 {
				continue
			}
			var key []byte
			if c.Params.Has(UseMaxMin) {
				key = c.pageMinKey(tmp)
			} else {
				key = c.recordKey(c.recordAt(tmp, 0))
			}
			e.spline.Add(decodeUintLE(key, c.KeySize), p)
		}
	}

	if n := pageCount(e.buf.slot(dataWriteBuffer)); n > 0 {
		rec := c.recordAt(e.buf.slot(dataWriteBuffer), int(n)-1)
		e.lastKey = append([]byte(nil), c.recordKey(rec)...)
	} else if e.dataRing.NextLogical() > e.dataRing.MinLogical() {
		tmp := make([]byte, c.PageSize)
		if err := e.dataRing.ReadLogical(tmp, e.dataRing.NextLogical()-1); err == nil {
			if n := pageCount(tmp); n > 0 {
				rec := c.recordAt(tmp, int(n)-1)
				e.lastKey = append([]byte(nil), c.recordKey(rec)...)
			}
		}
	}

	if c.Params.Has(UseIndex) && e.indexRing != nil {
		setPageLogicalID(e.buf.slot(indexWriteBuffer), e.indexRing.NextLogical())
	}
	if c.Params.Has(UseVarData) && e.varRing != nil {
		e.varWriteLogical = e.varRing.NextLogical()
		e.varWriteOffset = varPageHeaderSize
		setVarPageLogicalID(e.buf.slot(varWriteBuffer), e.varWriteLogical)
	}

	return nil
}

// Close flushes and closes every backing PageIO instance.
func (e *Engine) Close() error {
	if err := e.Flush(); err != nil {
		return err
	}
	if err := e.dataRing.Close(); err != nil {
		return wrapRingError(fileData, "close", err)
	}
	if e.indexRing != nil {
		if err := e.indexRing.Close(); err != nil {
			return wrapRingError(fileIndex, "close", err)
		}
	}
	if e.varRing != nil {
		if err := e.varRing.Close(); err != nil {
			return wrapRingError(fileVar, "close", err)
		}
	}
	return nil
}

// Flush consolidates the in-progress write buffers to their ring files
// and fsyncs every backing PageIO instance. Without RLC, a Put is only
// durable once Flush returns (spec §5/§7); matches the original
// embedDBFlush, which writes the partial data page (if any), forces
// out the index write buffer regardless of fullness, and flushes the
// var write buffer the same way FlushVar does. The index and var write
// buffers are forced out only when the data write buffer holds
// records; otherwise Flush only fsyncs.
func (e *Engine) Flush() error {
	c := &e.cfg
	if pageCount(e.buf.slot(dataWriteBuffer)) > 0 {
		if err := e.flushDataPage(); err != nil {
			return err
		}
		if c.Params.Has(UseIndex) {
			idxBuf := e.buf.slot(indexWriteBuffer)
			if pageCount(idxBuf) > 0 {
				if _, err := e.indexRing.WriteNext(idxBuf, nil); err != nil {
					return wrapRingError(fileIndex, "write", err)
				}
				e.stats.NumIdxWrites++
				c.resetIdxPageHeader(idxBuf)
				setPageLogicalID(idxBuf, e.indexRing.NextLogical())
			}
		}
		if c.Params.Has(UseVarData) {
			if err := e.FlushVar(); err != nil {
				return err
			}
		}
	}

	if err := e.dataRing.Flush(); err != nil {
		return wrapRingError(fileData, "flush", err)
	}
	if e.indexRing != nil {
		if err := e.indexRing.Flush(); err != nil {
			return wrapRingError(fileIndex, "flush", err)
		}
	}
	if e.varRing != nil {
		if err := e.varRing.Flush(); err != nil {
			return wrapRingError(fileVar, "flush", err)
		}
	}
	return nil
}
