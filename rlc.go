package embeddb

// rlcState implements record-level consistency: after every Put, the
// in-progress data page (not yet full, not yet written to the data
// ring) is staged into a reserved two-erase-block region so a crash
// mid-page never loses committed records. The two blocks are used as
// a ping-pong pair; recovery reads both and keeps the one with the
// greater record count.
type rlcState struct {
	io            PageIO
	pageSize      int
	eraseSize     uint32
	reservedStart uint32
	slot          int
}

func newRLCState(io PageIO, pageSize int, eraseSize uint32, reservedStart uint32) *rlcState {
	return &rlcState{io: io, pageSize: pageSize, eraseSize: eraseSize, reservedStart: reservedStart}
}

// stage writes the current write-buffer page into the next slot of
// the reserved region.
func (r *rlcState) stage(buf []byte) error {
	physical := r.reservedStart + uint32(r.slot)*r.eraseSize
	if err := r.io.WritePage(buf, physical, r.pageSize); err != nil {
		return wrapError(Io, "stage RLC page", err)
	}
	r.slot ^= 1
	return nil
}

// recover reads both RLC slots and copies the one matching
// expectedLogicalID with the greatest record count into buf,
// reporting whether anything valid was found. Called once at Open
// when RLC is enabled and the data ring already existed.
//
// Both slots of a single staged page always carry the same stamped
// logical id (the write buffer is stamped with the data ring's next
// logical id, which only advances on a full-page flush), so the two
// candidates can only be told apart by how many records they hold:
// the later stage of the same page always has a record count greater
// than or equal to the earlier one (spec §4.8 recovery step 2).
func (r *rlcState) recover(buf []byte, expectedLogicalID uint32) (found bool, err error) {
	tmp := make([]byte, r.pageSize)
	var bestCount uint16
	for s := 0; s < 2; s++ {
		physical := r.reservedStart + uint32(s)*r.eraseSize
		if err := r.io.ReadPage(tmp, physical, r.pageSize); err != nil {
			return false, wrapError(Io, "recover RLC page", err)
		}
		if pageLogicalID(tmp) != expectedLogicalID {
			continue
		}
		count := pageCount(tmp)
		if !found || count > bestCount {
			copy(buf, tmp)
			bestCount = count
			found = true
			r.slot = s ^ 1
		}
	}
	return found, nil
}
