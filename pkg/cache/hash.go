package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"
)

// Hash returns the hex SHA-256 of data. Input images and preset
// fingerprints are identified by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Short abbreviates a hash for log output.
func Short(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// keyHash accumulates the fields of a cache key. Every field is length
// prefixed, so ("ab", "c") and ("a", "bc") hash differently.
type keyHash struct {
	h hash.Hash
}

func newKeyHash() *keyHash {
	return &keyHash{h: sha256.New()}
}

func (k *keyHash) field(s string) *keyHash {
	k.h.Write([]byte(strconv.Itoa(len(s)) + ":" + s))
	return k
}

// sum returns "namespace:<hex digest>".
func (k *keyHash) sum(namespace string) string {
	return namespace + ":" + hex.EncodeToString(k.h.Sum(nil))
}
