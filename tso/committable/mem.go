package committable

import (
	"context"
	"sync"

	"github.com/google/btree"
)

const memTableDegree = 16

type memItem struct {
	startTS uint64
	record  CommitRecord
}

func (i *memItem) Less(than btree.Item) bool {
	return i.startTS < than.(*memItem).startTS
}

// MemStore is an in-memory commit table. It backs tests and standalone
// deployments that do not need the table to survive a restart.
type MemStore struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

func NewMemStore() *MemStore {
	return &MemStore{
		tree: btree.New(memTableDegree),
	}
}

func (s *MemStore) GetCommitTimestamp(ctx context.Context, startTS uint64) (*CommitRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	item := s.tree.Get(&memItem{startTS: startTS})
	if item == nil {
		return nil, nil
	}
	record := item.(*memItem).record
	return &record, nil
}

func (s *MemStore) AddCommittedTransaction(ctx context.Context, startTS, commitTS uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.ReplaceOrInsert(&memItem{
		startTS: startTS,
		record:  CommitRecord{CommitTS: commitTS, Valid: true},
	})
	return nil
}

func (s *MemStore) SetInvalid(ctx context.Context, startTS uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record := CommitRecord{}
	if item := s.tree.Get(&memItem{startTS: startTS}); item != nil {
		record = item.(*memItem).record
	}
	record.Valid = false
	s.tree.ReplaceOrInsert(&memItem{startTS: startTS, record: record})
	return nil
}

func (s *MemStore) CompleteTransaction(ctx context.Context, startTS uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.Delete(&memItem{startTS: startTS})
	return nil
}
