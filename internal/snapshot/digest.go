// Package snapshot implements the Snapshot Registry: effective-dated dataset selection and digest pinning for
// reproducibility.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// CanonicalDigest computes the dataset digest :
// "SHA-256(canonical concatenation of sorted row tuples)". Each row is
// already rendered to a fixed, comma-separated column tuple by the
// caller (so column order is part of the row's identity); this function
// only guarantees that row order never affects the digest, satisfying
// the digest law digest(rows) == digest(shuffle(rows)).
func CanonicalDigest(rowTuples []string) string {
	sorted := make([]string, len(rowTuples))
	copy(sorted, rowTuples)
	sort.Strings(sorted)

	joined := strings.Join(sorted, "\n")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}
