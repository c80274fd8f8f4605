package commitmap

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// DefaultSize is the slot count used by NewDefaultCommitMap.
const DefaultSize = 1000

// CommitMap is a fixed-capacity, open-addressed index over committed
// transactions. It answers two questions for the commit pipeline:
//
//  1. what is the latest commit timestamp that wrote a given row, and
//  2. what commit timestamp (if any) was assigned to a given start timestamp.
//
// Both mappings are arrays indexed by `hash % size` with no chaining: a new
// entry hashing into an occupied slot silently overwrites the previous
// occupant. The index is therefore approximate. GetLatestWriteForRow may
// return the commit timestamp of a different row that collided into the same
// slot (a tolerated false positive), but it never misses a write that is
// still resident. Every eviction raises the largest-deleted-timestamp
// watermark, so a caller seeing "not found" for a timestamp at or below the
// watermark must fall back to the durable commit table.
//
// Timestamp 0 is reserved: it means "never written" / "not found". The
// timestamp oracle allocates from 1, so 0 is never a valid commit timestamp.
//
// The row and start-commit mappings are written by a single logical writer
// (the commit pipeline) and carry no internal locking. The watermark and the
// half-aborted set are safe for concurrent access from other goroutines.
type CommitMap struct {
	size uint64

	// Watermark of the highest commit timestamp ever evicted from either
	// mapping. Accessed atomically.
	largestDeletedTS uint64

	// rowsCommitMapping[slot] holds the latest commit timestamp among all
	// rows that mapped to slot.
	rowsCommitMapping []uint64
	// startCommitMapping holds (start, commit) pairs:
	// [2*slot] = start timestamp, [2*slot+1] = commit timestamp.
	startCommitMapping []uint64

	abortedSnapshot uint64
	halfAborted     *abortedSet
}

// NewCommitMap creates an empty commit map with the given slot count. The
// size must be positive: slots are computed as hash % size.
func NewCommitMap(size int) (*CommitMap, error) {
	if size <= 0 {
		return nil, errors.Errorf("illegal commit map size: %d", size)
	}
	return &CommitMap{
		size:               uint64(size),
		rowsCommitMapping:  make([]uint64, size),
		startCommitMapping: make([]uint64, 2*size),
		halfAborted:        newAbortedSet(),
	}, nil
}

// NewDefaultCommitMap creates an empty commit map with DefaultSize slots.
func NewDefaultCommitMap() *CommitMap {
	m, err := NewCommitMap(DefaultSize)
	if err != nil {
		panic(err)
	}
	return m
}

// slot maps a hash onto a slot index. Unsigned modulo is total over the whole
// uint64 range, so no special casing is needed for any input.
func (m *CommitMap) slot(hash uint64) uint64 {
	return hash % m.size
}

// GetLatestWriteForRow returns the latest commit timestamp recorded for the
// row hash, or 0 if the slot has never been written. The result may belong
// to a different row that collided into the same slot.
func (m *CommitMap) GetLatestWriteForRow(rowHash uint64) uint64 {
	return m.rowsCommitMapping[m.slot(rowHash)]
}

// PutLatestWriteForRow records commitTS as the latest write for the row hash.
// Re-recording the resident value is a no-op. Overwriting a different value
// raises the watermark to cover the evicted timestamp.
//
// Must only be called from the single commit-pipeline goroutine.
func (m *CommitMap) PutLatestWriteForRow(rowHash, commitTS uint64) {
	idx := m.slot(rowHash)
	oldCommitTS := m.rowsCommitMapping[idx]
	if oldCommitTS == commitTS {
		return
	}
	m.rowsCommitMapping[idx] = commitTS
	if oldCommitTS != 0 {
		evictionCounter.Inc()
	}
	m.advanceLargestDeleted(oldCommitTS)
}

// GetCommittedTimestamp returns the commit timestamp cached for startTS, or
// 0 when there is no entry. The cached pair is returned only when the stored
// start timestamp still equals startTS, so a colliding entry can never be
// reported as a hit for the wrong transaction.
func (m *CommitMap) GetCommittedTimestamp(startTS uint64) uint64 {
	indexStart := 2 * m.slot(startTS)
	indexCommit := indexStart + 1

	if m.startCommitMapping[indexStart] == startTS {
		return m.startCommitMapping[indexCommit]
	}
	return 0
}

// SetCommittedTimestamp caches the (startTS, commitTS) pair. Re-caching the
// resident commit timestamp is a no-op. Overwriting a different pair raises
// the watermark to cover the evicted commit timestamp.
//
// Must only be called from the single commit-pipeline goroutine.
func (m *CommitMap) SetCommittedTimestamp(startTS, commitTS uint64) {
	indexStart := 2 * m.slot(startTS)
	indexCommit := indexStart + 1

	oldCommitTS := m.startCommitMapping[indexCommit]
	if oldCommitTS == commitTS {
		return
	}
	m.startCommitMapping[indexStart] = startTS
	m.startCommitMapping[indexCommit] = commitTS
	if oldCommitTS != 0 {
		evictionCounter.Inc()
	}
	m.advanceLargestDeleted(oldCommitTS)
}

// LargestDeletedTimestamp returns the watermark of the highest commit
// timestamp that may have been evicted. A "not found" answer for any
// timestamp at or below the watermark cannot be trusted: the entry may have
// been evicted, so the durable commit table must be consulted.
func (m *CommitMap) LargestDeletedTimestamp() uint64 {
	return atomic.LoadUint64(&m.largestDeletedTS)
}

func (m *CommitMap) advanceLargestDeleted(evictedTS uint64) {
	for {
		cur := atomic.LoadUint64(&m.largestDeletedTS)
		if evictedTS <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&m.largestDeletedTS, cur, evictedTS) {
			// A racing advance may already have raised the watermark past
			// evictedTS, so publish the current value.
			watermarkGauge.Set(float64(atomic.LoadUint64(&m.largestDeletedTS)))
			return
		}
	}
}

// GetAndIncrementAbortedSnapshot returns the current aborted-snapshot
// sequence number and advances it. The sequence orders half-aborted entries
// for diagnostics only; it plays no part in correctness decisions.
func (m *CommitMap) GetAndIncrementAbortedSnapshot() uint64 {
	return atomic.AddUint64(&m.abortedSnapshot, 1) - 1
}

// SetHalfAborted marks startTS as aborted but not yet fully externalized.
// Safe for concurrent use.
func (m *CommitMap) SetHalfAborted(startTS uint64) {
	m.halfAborted.add(startTS, atomic.LoadUint64(&m.abortedSnapshot))
}

// SetFullAborted removes startTS from the half-aborted set once its abort
// has been fully externalized. Safe for concurrent use.
func (m *CommitMap) SetFullAborted(startTS uint64) {
	m.halfAborted.remove(startTS)
}

// IsHalfAborted reports whether startTS is currently half aborted. This is a
// point-in-time membership check only.
func (m *CommitMap) IsHalfAborted(startTS uint64) bool {
	return m.halfAborted.contains(startTS)
}
