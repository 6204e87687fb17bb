// Package contentkey derives Portal history network lookup keys from the raw
// content keys stored in the catalog.
//
// A raw catalog key is laid out as:
//
//	byte 0       type selector
//	bytes 1..33  32-byte block hash
//	bytes 33..   type-specific tail (ignored)
//
// Only the block header variant is audited today, so every derived key carries
// SelectorBlockHeader regardless of the selector byte in the raw key.
package contentkey

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/multiformats/go-multihash"
)

// Selector identifies the content key variant.
type Selector byte

const (
	// SelectorBlockHeader selects a block header keyed by block hash.
	SelectorBlockHeader Selector = 0x00
)

// HashLen is the size of the identifying hash carried by a key.
const HashLen = 32

// EncodedLen is the size of an encoded LookupKey (selector + hash).
const EncodedLen = 1 + HashLen

// ErrShortKey is returned when a raw key cannot hold a selector and a hash.
var ErrShortKey = errors.New("contentkey: raw key too short")

// LookupKey is the minimal representation of a content key needed to request
// it from the network.
type LookupKey struct {
	Selector Selector
	Hash     [HashLen]byte
}

// FromRaw derives a block header LookupKey from raw catalog key bytes.
//
// Bytes 1..33 become the hash; anything after them is ignored.
func FromRaw(raw []byte) (LookupKey, error) {
	if len(raw) < EncodedLen {
		return LookupKey{}, fmt.Errorf("%w: got %d bytes, need %d", ErrShortKey, len(raw), EncodedLen)
	}

	var k LookupKey
	k.Selector = SelectorBlockHeader
	copy(k.Hash[:], raw[1:EncodedLen])
	return k, nil
}

// Encode returns the wire encoding: selector byte followed by the hash.
func (k LookupKey) Encode() []byte {
	out := make([]byte, 0, EncodedLen)
	out = append(out, byte(k.Selector))
	return append(out, k.Hash[:]...)
}

// Hex returns the 0x-prefixed hex encoding used on the JSON-RPC wire.
func (k LookupKey) Hex() string {
	return "0x" + hex.EncodeToString(k.Encode())
}

// String implements fmt.Stringer.
func (k LookupKey) String() string {
	return k.Hex()
}

// ContentID returns the network content id: the SHA-256 digest of the
// encoded key.
func (k LookupKey) ContentID() ([]byte, error) {
	mh, err := multihash.Sum(k.Encode(), multihash.SHA2_256, -1)
	if err != nil {
		return nil, fmt.Errorf("content id: %w", err)
	}
	decoded, err := multihash.Decode(mh)
	if err != nil {
		return nil, fmt.Errorf("content id: %w", err)
	}
	return decoded.Digest, nil
}

// ContentIDHex returns the 0x-prefixed content id, or "" if it cannot be
// computed. Intended for log fields.
func (k LookupKey) ContentIDHex() string {
	id, err := k.ContentID()
	if err != nil {
		// multihash.Sum only fails for unknown codes; SHA2_256 is always
		// registered.
		return ""
	}
	return "0x" + hex.EncodeToString(id)
}
