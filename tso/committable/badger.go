package committable

import (
	"context"

	"github.com/coocood/badger"
	"github.com/pkg/errors"

	"github.com/pingcap-incubator/tinytso/util/codec"
	"github.com/pingcap-incubator/tinytso/util/engine"
)

// Commit records are stored under a dedicated key prefix so the commit table
// can share a badger instance with the oracle's timestamp ceiling.
var commitKeyPrefix = []byte("c_")

const (
	recordLen  = 9
	validFlag  = byte(1)
	recordTail = 8
)

// BadgerStore is the durable commit table. Values are 9 bytes: the
// big-endian commit timestamp followed by a validity flag.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func commitKey(startTS uint64) []byte {
	return codec.AppendUint64(append([]byte{}, commitKeyPrefix...), startTS)
}

func encodeRecord(record CommitRecord) []byte {
	val := codec.AppendUint64(make([]byte, 0, recordLen), record.CommitTS)
	flag := byte(0)
	if record.Valid {
		flag = validFlag
	}
	return append(val, flag)
}

func decodeRecord(val []byte) (CommitRecord, error) {
	if len(val) != recordLen {
		return CommitRecord{}, errors.Errorf("malformed commit record of %d bytes", len(val))
	}
	commitTS, err := codec.DecodeUint64(val[:recordTail])
	if err != nil {
		return CommitRecord{}, err
	}
	return CommitRecord{CommitTS: commitTS, Valid: val[recordTail] == validFlag}, nil
}

func (s *BadgerStore) GetCommitTimestamp(ctx context.Context, startTS uint64) (*CommitRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	val, err := engine.Get(s.db, commitKey(startTS))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	record, err := decodeRecord(val)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *BadgerStore) AddCommittedTransaction(ctx context.Context, startTS, commitTS uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record := CommitRecord{CommitTS: commitTS, Valid: true}
	return errors.WithStack(engine.Put(s.db, commitKey(startTS), encodeRecord(record)))
}

func (s *BadgerStore) SetInvalid(ctx context.Context, startTS uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	record := CommitRecord{}
	val, err := engine.Get(s.db, commitKey(startTS))
	if err == nil {
		if record, err = decodeRecord(val); err != nil {
			return err
		}
	} else if err != badger.ErrKeyNotFound {
		return errors.WithStack(err)
	}
	record.Valid = false
	return errors.WithStack(engine.Put(s.db, commitKey(startTS), encodeRecord(record)))
}

func (s *BadgerStore) CompleteTransaction(ctx context.Context, startTS uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.WithStack(engine.Delete(s.db, commitKey(startTS)))
}
