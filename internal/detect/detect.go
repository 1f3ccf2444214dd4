// Package detect holds the pattern corpus and the per-line matching engine
// shared by the current-file and commit-diff scan paths.
package detect

import (
	"math"

	"secretscan/models"
)

// Match is one raw hit of a rule on a line, before deduplication.
type Match struct {
	SecretType string
	Severity   models.Severity
	Value      string
	Masked     string
	Entropy    float64
}

// Detector runs every registry rule against lines of text.
type Detector struct {
	registry *Registry
}

func NewDetector(registry *Registry) *Detector {
	return &Detector{registry: registry}
}

// ScanLine returns every rule match on a single line, in rule-table order.
// Multiple hits of the same rule on one line each produce a match.
func (d *Detector) ScanLine(line string) []Match {
	var matches []Match
	for _, rule := range d.registry.Rules() {
		for _, value := range rule.Regexp.FindAllString(line, -1) {
			matches = append(matches, Match{
				SecretType: rule.Name,
				Severity:   rule.Severity,
				Value:      value,
				Masked:     Mask(value),
				Entropy:    roundEntropy(Entropy(value)),
			})
		}
	}
	return matches
}

func roundEntropy(e float64) float64 {
	return math.Round(e*100) / 100
}
