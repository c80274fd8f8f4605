package committable

import "context"

// CommitRecord is a durable commit table entry for one transaction. Valid is
// cleared when the transaction is invalidated after the fact; an invalid
// record means the client must be told to abort even though a commit
// timestamp exists.
type CommitRecord struct {
	CommitTS uint64
	Valid    bool
}

// Client reads the commit table. Implementations must support concurrent
// outstanding lookups.
type Client interface {
	// GetCommitTimestamp returns the commit record for startTS, or nil when
	// the table has no entry for it.
	GetCommitTimestamp(ctx context.Context, startTS uint64) (*CommitRecord, error)
}

// Writer mutates the commit table.
type Writer interface {
	// AddCommittedTransaction records that startTS committed at commitTS.
	AddCommittedTransaction(ctx context.Context, startTS, commitTS uint64) error
	// SetInvalid marks the record for startTS as invalid, creating an
	// invalidation marker if no record exists yet.
	SetInvalid(ctx context.Context, startTS uint64) error
	// CompleteTransaction removes the record for startTS once clients can no
	// longer ask about it.
	CompleteTransaction(ctx context.Context, startTS uint64) error
}

// Store is a commit table that serves both roles.
type Store interface {
	Client
	Writer
}
