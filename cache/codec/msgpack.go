package codec

import "github.com/vmihailenco/msgpack/v5"

// Msgpack serializes snapshots with vmihailenco/msgpack. The zero value is
// ready to use and is the default spill codec.
type Msgpack struct{}

var _ Codec = Msgpack{}

func (Msgpack) Encode(s Snapshot) ([]byte, error) {
	return msgpack.Marshal(s)
}

func (Msgpack) Decode(b []byte) (Snapshot, error) {
	var s Snapshot
	err := msgpack.Unmarshal(b, &s)
	return s, err
}
