// Package dedup collapses repeated findings within a single scan job.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"secretscan/models"
)

// Set is a per-job finding set. Lifetime is one scan; it is not safe for
// concurrent use and does not need to be, each job owns its own Set.
//
// The key deliberately uses the masked preview rather than the raw value,
// matching the behavior findings have always had: two distinct secrets at
// the same file/line/type sharing a prefix collapse into one entry.
type Set struct {
	seen map[string]struct{}
}

func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add reports whether the finding's key was new. A true result means the
// finding is retained; false means it duplicates an earlier one and must be
// discarded.
func (s *Set) Add(f models.Finding) bool {
	k := Key(f)
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	return true
}

// Len returns how many distinct findings have been retained.
func (s *Set) Len() int {
	return len(s.seen)
}

// Key derives the uniqueness key of a finding:
// (file_path, line_number, secret_type, masked_preview).
func Key(f models.Finding) string {
	h := md5.Sum([]byte(fmt.Sprintf("%s%d%s%s", f.FilePath, f.LineNumber, f.SecretType, f.MaskedPreview)))
	return hex.EncodeToString(h[:])
}
