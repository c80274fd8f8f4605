package commitmap

import "github.com/dgryski/go-farm"

// KeyToHash returns the row hash used to index the commit map.
func KeyToHash(key []byte) uint64 {
	return farm.Fingerprint64(key)
}

// KeysToHashVals hashes a batch of row keys.
func KeysToHashVals(keys ...[]byte) []uint64 {
	hashVals := make([]uint64, len(keys))
	for i, key := range keys {
		hashVals[i] = farm.Fingerprint64(key)
	}
	return hashVals
}
