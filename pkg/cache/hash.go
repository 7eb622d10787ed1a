package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex SHA-256 digest of data. FileCache uses it to turn a
// key into a file name.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// urlKey returns "<kind>:<Hash(url)>". Artwork URLs carry spaces and can
// be long, so they never appear in a key verbatim.
func urlKey(kind, url string) string {
	return kind + ":" + Hash([]byte(url))
}
