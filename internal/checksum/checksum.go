// Package checksum computes content digests used as entity tags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/starford/rollcall/internal/models"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Student returns the digest of the student's JSON encoding. It changes
// whenever any field or attendance record of the student changes.
func Student(s models.Student) string {
	data, err := json.Marshal(s)
	if err != nil {
		// Student holds only strings and slices of them; Marshal cannot fail.
		panic(err)
	}
	return Sum(data)
}
