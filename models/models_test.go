package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityRank(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, Severity("bogus").Rank(), SeverityLow.Rank())
}

func TestSummarize(t *testing.T) {
	findings := []Finding{
		{SecretType: "AWS Access Key ID", Severity: SeverityCritical},
		{SecretType: "AWS Access Key ID", Severity: SeverityCritical},
		{SecretType: "Generic Password", Severity: SeverityHigh},
		{SecretType: "Firebase URL", Severity: SeverityMedium},
	}

	sum := Summarize(findings, 2, 30, 45, 12)

	assert.Equal(t, len(findings), sum.Total)
	assert.Equal(t, 2, sum.Critical)
	assert.Equal(t, 1, sum.High)
	assert.Equal(t, 1, sum.Medium)
	assert.Equal(t, 0, sum.Low)
	assert.Equal(t, 2, sum.BranchesScanned)
	assert.Equal(t, 30, sum.CommitsScanned)
	assert.Equal(t, 45, sum.TotalCommits)
	assert.Equal(t, 12, sum.FilesScanned)
	assert.Equal(t, []string{"AWS Access Key ID", "Generic Password", "Firebase URL"}, sum.SecretTypes)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil, 0, 0, 0, 0)
	assert.Equal(t, 0, sum.Total)
	assert.NotNil(t, sum.SecretTypes)
}

func TestCountBySeverity(t *testing.T) {
	tally := CountBySeverity([]Finding{
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
		{Severity: SeverityLow},
	})
	assert.Equal(t, 2, tally[SeverityCritical])
	assert.Equal(t, 1, tally[SeverityLow])
}
