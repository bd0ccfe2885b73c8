package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// CohortFingerprint hashes the determinism tuple of a generated cohort.
// The field order is part of the contract: changing it invalidates any
// recorded fingerprints.
func CohortFingerprint(datasetID, seed string, size int) Hash {
	data := fmt.Sprintf("dataset:%s|seed:%s|size:%d", datasetID, seed, size)
	return NewHash([]byte(data))
}

// RunFingerprint hashes the determinism tuple of an analysis run.
func RunFingerprint(runID, templateID, cohortSeed string) Hash {
	data := fmt.Sprintf("run:%s|template:%s|cohort_seed:%s", runID, templateID, cohortSeed)
	return NewHash([]byte(data))
}
