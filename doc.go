// Package embeddb implements an embedded time-series key-value storage
// engine for resource-constrained devices: kilobytes of RAM, flash or
// SD-class block storage.
//
// Records are fixed-size (key, value) tuples that must be inserted in
// strictly ascending key order, optionally paired with a variable-length
// blob. Keys and values are compared as opaque byte strings through
// host-supplied comparators; the engine never assumes their native
// alignment or width beyond the configured key/data size.
//
// Storage is three independently ring-buffered regions (data, secondary
// index, variable data), each a fixed number of logical pages wrapping
// over a physical region in whole erase blocks. A piecewise-linear
// learned index (the "spline") narrows key lookups to a handful of
// candidate pages without a full tree scan; a per-page bitmap zone map
// lets range scans skip pages whose value column cannot satisfy the
// query. An optional record-level consistency mode stages the
// in-progress data page into a reserved region after every insert so a
// single Put is durable without flushing a partial page in place.
//
// The engine is single-threaded and not reentrant: every operation runs
// to completion on the caller's goroutine, and a host callback must
// never call back into the engine.
//
// Basic usage:
//
//	cfg := embeddb.NewConfig(
//	    embeddb.WithKeySize(4),
//	    embeddb.WithDataSize(4),
//	    embeddb.WithPageSize(512),
//	    embeddb.WithDataPages(1000),
//	    embeddb.WithEraseSize(4),
//	)
//	cfg.CompareKey = embeddb.CompareUint64Key
//	cfg.DataIO = embeddb.NewMemPageIO("data")
//	eng, err := embeddb.Open(cfg, embeddb.ModeCreate)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	if err := eng.Put(key, value); err != nil {
//	    log.Fatal(err)
//	}
//
//	var out [4]byte
//	if err := eng.Get(key, out[:]); err != nil {
//	    log.Fatal(err)
//	}
package embeddb
