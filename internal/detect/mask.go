package detect

import "strings"

// maskVisibleChars is how many leading characters of a secret survive
// masking.
const maskVisibleChars = 4

// Mask redacts a secret for display, keeping a short prefix and replacing
// the remainder with '*'. Values no longer than the prefix are fully
// masked.
func Mask(secret string) string {
	if len(secret) <= maskVisibleChars {
		return strings.Repeat("*", len(secret))
	}
	return secret[:maskVisibleChars] + strings.Repeat("*", len(secret)-maskVisibleChars)
}
