package trace

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// ComputeHash returns the sha256 hex of a canonical encoding, or "" for no
// input.
func ComputeHash(canonicalEncoding []byte) string {
	if len(canonicalEncoding) == 0 {
		return ""
	}
	sum := sha256.Sum256(canonicalEncoding)
	return hex.EncodeToString(sum[:])
}

// DatasetHash identifies a parsed dataset by its headers and cell values.
// Every string is length-prefixed so that no two distinct tables share an
// encoding.
func DatasetHash(headers []string, rows [][]string) string {
	h := sha256.New()
	writeStrings(h, headers)
	for _, r := range rows {
		writeStrings(h, r)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeStrings(h hash.Hash, ss []string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(ss)))
	h.Write(n[:])
	for _, s := range ss {
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
}
