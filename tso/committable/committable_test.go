package committable

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pingcap-incubator/tinytso/util/engine"
)

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	// Absent transaction.
	record, err := store.GetCommitTimestamp(ctx, 55)
	require.Nil(t, err)
	require.Nil(t, record)

	// Committed transaction.
	require.Nil(t, store.AddCommittedTransaction(ctx, 42, 99))
	record, err = store.GetCommitTimestamp(ctx, 42)
	require.Nil(t, err)
	require.NotNil(t, record)
	require.Equal(t, uint64(99), record.CommitTS)
	require.True(t, record.Valid)

	// Invalidated after commit.
	require.Nil(t, store.SetInvalid(ctx, 42))
	record, err = store.GetCommitTimestamp(ctx, 42)
	require.Nil(t, err)
	require.NotNil(t, record)
	require.Equal(t, uint64(99), record.CommitTS)
	require.False(t, record.Valid)

	// Invalidation marker without a prior commit record.
	require.Nil(t, store.SetInvalid(ctx, 7))
	record, err = store.GetCommitTimestamp(ctx, 7)
	require.Nil(t, err)
	require.NotNil(t, record)
	require.False(t, record.Valid)

	// Completed transactions disappear.
	require.Nil(t, store.CompleteTransaction(ctx, 42))
	record, err = store.GetCommitTimestamp(ctx, 42)
	require.Nil(t, err)
	require.Nil(t, record)
}

func TestMemStore(t *testing.T) {
	testStore(t, NewMemStore())
}

func TestBadgerStore(t *testing.T) {
	dir, err := ioutil.TempDir("", "committable")
	require.Nil(t, err)

	db, err := engine.CreateDB(dir, false)
	require.Nil(t, err)
	defer engine.Destroy(db, dir)

	testStore(t, NewBadgerStore(db))
}

func TestStoreHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemStore()
	_, err := store.GetCommitTimestamp(ctx, 1)
	require.Equal(t, context.Canceled, err)
	require.NotNil(t, store.AddCommittedTransaction(ctx, 1, 2))
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	dir, err := ioutil.TempDir("", "committable")
	require.Nil(t, err)
	defer os.RemoveAll(dir)

	ctx := context.Background()

	db, err := engine.CreateDB(dir, false)
	require.Nil(t, err)
	store := NewBadgerStore(db)
	require.Nil(t, store.AddCommittedTransaction(ctx, 42, 99))
	require.Nil(t, db.Close())

	db, err = engine.CreateDB(dir, false)
	require.Nil(t, err)
	defer db.Close()
	store = NewBadgerStore(db)
	record, err := store.GetCommitTimestamp(ctx, 42)
	require.Nil(t, err)
	require.NotNil(t, record)
	require.Equal(t, uint64(99), record.CommitTS)
	require.True(t, record.Valid)
}
