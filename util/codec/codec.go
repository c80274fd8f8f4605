package codec

import (
	"encoding/binary"

	"github.com/pingcap/errors"
)

// EncodeUint64 encodes v in big-endian order so that encoded keys sort in
// numeric order.
func EncodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// DecodeUint64 decodes a key encoded by EncodeUint64.
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errors.Errorf("insufficient bytes to decode value: %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// AppendUint64 appends the big-endian encoding of v to b.
func AppendUint64(b []byte, v uint64) []byte {
	encoded := make([]byte, 8)
	binary.BigEndian.PutUint64(encoded, v)
	return append(b, encoded...)
}
