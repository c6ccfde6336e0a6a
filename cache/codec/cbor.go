package codec

import "github.com/fxamacker/cbor/v2"

// CBOR serializes snapshots with fxamacker/cbor. The zero value is not
// ready to use; construct with NewCBOR.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec = CBOR{}

// NewCBOR builds a CBOR codec with the library's preferred compact
// encoding options.
func NewCBOR() (CBOR, error) {
	em, err := cbor.PreferredUnsortedEncOptions().EncMode()
	if err != nil {
		return CBOR{}, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm}, nil
}

func (c CBOR) Encode(s Snapshot) ([]byte, error) {
	return c.enc.Marshal(s)
}

func (c CBOR) Decode(b []byte) (Snapshot, error) {
	var s Snapshot
	err := c.dec.Unmarshal(b, &s)
	return s, err
}
