package embeddb

import (
	"encoding/binary"
	"io"
	"testing"
)

func testConfig(t *testing.T, opts ...Option) Config {
	t.Helper()
	base := []Option{
		WithKeySize(8),
		WithDataSize(8),
		WithPageSize(128),
		WithEraseSize(4),
		WithDataPages(16),
		WithMaxMin(),
		WithBinarySearch(),
	}
	c := NewConfig(append(base, opts...)...)
	c.CompareKey = CompareUint64Key
	c.CompareData = CompareUint64Data
	c.DataIO = NewMemPageIO("data")
	return c
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func openFresh(t *testing.T, c Config) *Engine {
	t.Helper()
	e, err := Open(c, ModeCreate)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return e
}

func TestSequentialLoadAndGet(t *testing.T) {
	// 200 records at 5 per page need 40 pages; 64 keeps them all live.
	c := testConfig(t, WithDataPages(64))
	e := openFresh(t, c)

	const n = 200
	for i := uint64(0); i < n; i++ {
		if err := e.Put(u64(i), u64(i*10)); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}

	out := make([]byte, 8)
	for i := uint64(0); i < n; i++ {
		if err := e.Get(u64(i), out); err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got := binary.LittleEndian.Uint64(out); got != i*10 {
			t.Fatalf("Get(%d) = %d, want %d", i, got, i*10)
		}
	}

	if _, err := e.findRecord(u64(n + 1000)); err != ErrNotFound {
		t.Fatalf("lookup of absent key: err = %v, want ErrNotFound", err)
	}

	// NumWrites counts flushed data pages, not records: it must stay
	// far below n even though every one of the n records triggered a
	// Put.
	if s := e.Stats(); s.NumWrites == 0 || s.NumWrites >= n {
		t.Fatalf("NumWrites = %d, want a small page count strictly less than %d records", s.NumWrites, n)
	}
}

func TestOutOfOrderRejected(t *testing.T) {
	c := testConfig(t)
	e := openFresh(t, c)
	if err := e.Put(u64(10), u64(1)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := e.Put(u64(10), u64(2)); err != ErrOutOfOrder {
		t.Fatalf("duplicate key: err = %v, want ErrOutOfOrder", err)
	}
	if err := e.Put(u64(5), u64(3)); err != ErrOutOfOrder {
		t.Fatalf("decreasing key: err = %v, want ErrOutOfOrder", err)
	}
}

func TestRangeIterator(t *testing.T) {
	c := testConfig(t)
	e := openFresh(t, c)

	const n = 100
	for i := uint64(0); i < n; i++ {
		if err := e.Put(u64(i), u64(i)); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}

	it, err := e.InitIterator(IteratorOptions{MinKey: u64(20), MaxKey: u64(29)})
	if err != nil {
		t.Fatalf("InitIterator: %v", err)
	}
	key, data := make([]byte, 8), make([]byte, 8)
	var got []uint64
	for {
		ok, err := it.Next(key, data)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, binary.LittleEndian.Uint64(key))
	}
	if len(got) != 10 {
		t.Fatalf("iterator returned %d records, want 10: %v", len(got), got)
	}
	for i, v := range got {
		if v != 20+uint64(i) {
			t.Fatalf("got[%d] = %d, want %d", i, v, 20+uint64(i))
		}
	}
}

// testBitmapBucketCount is deliberately small relative to the value
// range these tests insert, so distinct values collide into the same
// bucket and the zone map produces real false positives: the only way
// TestIteratorExactValueFilter can pass is if Next applies CompareData
// itself rather than trusting the bitmap as a record-level filter.
const testBitmapBucketCount = 64

func testBitmapBucket(value []byte) int {
	return int(binary.LittleEndian.Uint64(value) % testBitmapBucketCount)
}

func testUpdateBitmap(value, bitmap []byte) {
	b := testBitmapBucket(value)
	bitmap[b/8] |= 1 << uint(b%8)
}

func testInBitmap(value, bitmap []byte) bool {
	b := testBitmapBucket(value)
	return bitmap[b/8]&(1<<uint(b%8)) != 0
}

func testBuildBitmapFromRange(min, max []byte, bitmap []byte) {
	lo, hi := 0, testBitmapBucketCount-1
	if min != nil {
		lo = testBitmapBucket(min)
	}
	if max != nil {
		hi = testBitmapBucket(max)
	}
	for b := lo; b <= hi; b++ {
		bitmap[b/8] |= 1 << uint(b%8)
	}
}

func TestIteratorExactValueFilter(t *testing.T) {
	c := testConfig(t,
		WithDataPages(64),
		WithBufferBlocks(4),
		WithIndexPages(16),
		WithBitmap(testBitmapBucketCount/8, testUpdateBitmap, testInBitmap, testBuildBitmapFromRange),
	)
	c.IndexIO = NewMemPageIO("index")
	e := openFresh(t, c)

	// Values 23 and 87 share bucket 23 (87 % 64 == 23), so the bitmap
	// alone cannot tell them apart; only CompareData can.
	const n = 200
	for i := uint64(0); i < n; i++ {
		if err := e.Put(u64(i), u64(i)); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}

	it, err := e.InitIterator(IteratorOptions{MinValue: u64(23), MaxValue: u64(38)})
	if err != nil {
		t.Fatalf("InitIterator: %v", err)
	}
	key, data := make([]byte, 8), make([]byte, 8)
	var got []uint64
	for {
		ok, err := it.Next(key, data)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, binary.LittleEndian.Uint64(data))
	}
	if len(got) != 16 {
		t.Fatalf("iterator returned %d records, want 16 (values 23..38): %v", len(got), got)
	}
	for _, v := range got {
		if v < 23 || v > 38 {
			t.Fatalf("value %d outside [23,38] leaked through a bitmap false positive", v)
		}
	}
}

func TestRingWrapEvictsOldRecords(t *testing.T) {
	c := testConfig(t)
	c.NumDataPages = 8 // force wraparound quickly with small capacity
	e := openFresh(t, c)

	const n = 500
	for i := uint64(0); i < n; i++ {
		if err := e.Put(u64(i), u64(i)); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}

	out := make([]byte, 8)
	if err := e.Get(u64(n-1), out); err != nil {
		t.Fatalf("Get most recent key: %v", err)
	}
	if err := e.Get(u64(0), out); err == nil {
		t.Fatalf("Get evicted key 0: want error, got nil")
	}
}

func TestVarDataRoundTrip(t *testing.T) {
	c := testConfig(t)
	c.NumVarPages = 16
	c.Params |= UseVarData
	c.BufferSizeInBlocks = 4
	c.VarIO = NewMemPageIO("var")
	e := openFresh(t, c)

	blob := []byte("this is a variable-length payload that spans more than one record")
	if err := e.PutVar(u64(1), u64(100), blob); err != nil {
		t.Fatalf("PutVar: %v", err)
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	out := make([]byte, 8)
	stream, err := e.GetVar(u64(1), out)
	if err != nil {
		t.Fatalf("GetVar: %v", err)
	}
	if stream == nil {
		t.Fatalf("GetVar returned nil stream for a PutVar record")
	}
	got := make([]byte, stream.Len())
	if _, err := stream.StreamRead(got); err != io.EOF {
		t.Fatalf("StreamRead: err = %v, want io.EOF with the blob's final bytes", err)
	}
	if string(got) != string(blob) {
		t.Fatalf("blob = %q, want %q", got, blob)
	}
}

func TestVarDataOverwriteDetected(t *testing.T) {
	c := testConfig(t)
	c.NumVarPages = 8
	c.Params |= UseVarData
	c.BufferSizeInBlocks = 4
	c.VarIO = NewMemPageIO("var")
	e := openFresh(t, c)

	blob := make([]byte, 40)
	for i := uint64(0); i < 50; i++ {
		if err := e.PutVar(u64(i), u64(i), blob); err != nil {
			t.Fatalf("PutVar(%d): %v", i, err)
		}
	}

	out := make([]byte, 8)
	_, err := e.GetVar(u64(0), out)
	if err != ErrVarDataDeleted {
		t.Fatalf("GetVar(0) after wrap: err = %v, want ErrVarDataDeleted", err)
	}
}

func TestRecordLevelConsistencyRecovery(t *testing.T) {
	io := NewMemPageIO("rlc-data")
	c := testConfig(t)
	c.NumDataPages = 16
	c.Params |= RecordLevelConsistency
	c.DataIO = io

	e := openFresh(t, c)
	const n = 7 // a page holds 5 records here: page 0 is flushed, records 5 and 6 stay staged
	for i := uint64(0); i < n; i++ {
		if err := e.Put(u64(i), u64(i)); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}

	// Simulate a crash: reopen over the same backing store without an
	// explicit Close/Flush of the data ring's normal write path.
	c2 := c
	e2, err := Open(c2, ModeOpenExisting)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	out := make([]byte, 8)
	for i := uint64(0); i < n; i++ {
		if err := e2.Get(u64(i), out); err != nil {
			t.Fatalf("Get(%d) after recovery: %v", i, err)
		}
		if got := binary.LittleEndian.Uint64(out); got != i {
			t.Fatalf("Get(%d) after recovery = %d, want %d", i, got, i)
		}
	}
}

// TestRecordLevelConsistencyRecoveryEvenStageCount staves off a
// regression where the RLC recovery tie-break only happened to pick
// the right slot for an odd number of stages: an even count lands the
// most recent stage in the ping-pong slot checked second in the scan,
// which only a genuine record-count comparison (not a coincidence of
// loop order) picks correctly.
func TestRecordLevelConsistencyRecoveryEvenStageCount(t *testing.T) {
	io := NewMemPageIO("rlc-data-even")
	c := testConfig(t)
	c.NumDataPages = 16
	c.Params |= RecordLevelConsistency
	c.DataIO = io

	e := openFresh(t, c)
	const n = 8 // even; page 0 is flushed and records 5-7 stay staged
	for i := uint64(0); i < n; i++ {
		if err := e.Put(u64(i), u64(i)); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}

	c2 := c
	e2, err := Open(c2, ModeOpenExisting)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	out := make([]byte, 8)
	for i := uint64(0); i < n; i++ {
		if err := e2.Get(u64(i), out); err != nil {
			t.Fatalf("Get(%d) after recovery: %v", i, err)
		}
		if got := binary.LittleEndian.Uint64(out); got != i {
			t.Fatalf("Get(%d) after recovery = %d, want %d", i, got, i)
		}
	}
}
