package server

import (
	"sync"

	"github.com/coocood/badger"
	"github.com/pkg/errors"

	"github.com/pingcap-incubator/tinytso/tso/commitmap"
	"github.com/pingcap-incubator/tinytso/tso/committable"
	"github.com/pingcap-incubator/tinytso/tso/config"
	"github.com/pingcap-incubator/tinytso/tso/oracle"
	"github.com/pingcap-incubator/tinytso/tso/panicker"
	"github.com/pingcap-incubator/tinytso/tso/retry"
	"github.com/pingcap-incubator/tinytso/util/engine"
)

// Server owns the oracle-side state of a timestamp oracle: the timestamp
// allocator, the conflict-detection commit map, the durable commit table and
// the retry-disambiguation pipeline. The network transport drives it through
// these components; the server performs no I/O of its own beyond storage.
type Server struct {
	Oracle      *oracle.Oracle
	CommitMap   *commitmap.CommitMap
	CommitTable committable.Store
	Retry       *retry.Processor

	db        *badger.DB
	closeOnce sync.Once
	closeErr  error
}

// NewServer wires the oracle components on top of a single badger instance.
// The replyProc is owned by the transport; pass retry.LoggingReplyProcessor
// for standalone use.
func NewServer(conf *config.Config, replyProc retry.ReplyProcessor, pnk panicker.Panicker) (*Server, error) {
	if err := conf.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}
	db, err := engine.CreateDB(conf.DBPath, conf.SyncWrites)
	if err != nil {
		return nil, err
	}
	tsOracle, err := oracle.NewOracle(db, conf.TimestampBatch)
	if err != nil {
		db.Close()
		return nil, err
	}
	commitMap, err := commitmap.NewCommitMap(conf.CommitMapSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	commitTable := committable.NewBadgerStore(db)
	return &Server{
		Oracle:      tsOracle,
		CommitMap:   commitMap,
		CommitTable: commitTable,
		Retry:       retry.NewProcessor(commitTable, replyProc, pnk, conf.RetryQueueSize),
		db:          db,
	}, nil
}

// Close drains the retry pipeline and releases storage. Safe to call more
// than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.Retry.Close()
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
