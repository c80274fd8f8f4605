package engine

import (
	"os"

	"github.com/coocood/badger"
	"github.com/pkg/errors"
)

// CreateDB opens (creating if necessary) a badger database at path. All
// durable state of the oracle lives in a single badger instance.
func CreateDB(path string, syncWrites bool) (*badger.DB, error) {
	opts := badger.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.SyncWrites = syncWrites
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return nil, errors.WithStack(err)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return db, nil
}

// Get returns the value stored at key. Returns badger.ErrKeyNotFound when the
// key is absent.
func Get(db *badger.DB, key []byte) (val []byte, err error) {
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		v, err := item.Value()
		if err != nil {
			return err
		}
		// The value is only valid inside the transaction.
		val = append([]byte{}, v...)
		return nil
	})
	return
}

// Put stores val at key.
func Put(db *badger.DB, key, val []byte) error {
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// Delete removes key.
func Delete(db *badger.DB, key []byte) error {
	return db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Destroy closes db and removes its data directory.
func Destroy(db *badger.DB, path string) error {
	if err := db.Close(); err != nil {
		return err
	}
	return os.RemoveAll(path)
}
