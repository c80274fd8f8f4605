package commitmap

import "sync"

// AbortedTransaction is an entry of the half-aborted set: a transaction
// whose abort has been decided but not yet fully externalized. Identity is
// the start timestamp alone; the snapshot sequence number is attached at
// insertion for diagnostic ordering.
type AbortedTransaction struct {
	StartTS  uint64
	Snapshot uint64
}

// abortedSet tracks half-aborted transactions. It is written by the commit
// pipeline and the cleanup path and read concurrently by other components,
// so every operation takes the mutex.
type abortedSet struct {
	mu   sync.Mutex
	txns map[uint64]AbortedTransaction
}

func newAbortedSet() *abortedSet {
	return &abortedSet{
		txns: make(map[uint64]AbortedTransaction),
	}
}

func (s *abortedSet) add(startTS, snapshot uint64) {
	s.mu.Lock()
	s.txns[startTS] = AbortedTransaction{StartTS: startTS, Snapshot: snapshot}
	size := len(s.txns)
	s.mu.Unlock()
	halfAbortedGauge.Set(float64(size))
}

func (s *abortedSet) remove(startTS uint64) {
	s.mu.Lock()
	delete(s.txns, startTS)
	size := len(s.txns)
	s.mu.Unlock()
	halfAbortedGauge.Set(float64(size))
}

func (s *abortedSet) contains(startTS uint64) bool {
	s.mu.Lock()
	_, ok := s.txns[startTS]
	s.mu.Unlock()
	return ok
}
