package detect

import "math"

// Entropy computes the Shannon entropy of s in bits per character. It is a
// triage signal only; no filtering or severity decision depends on it.
// The empty string scores 0.
func Entropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}

	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}

	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}
