package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"secretscan/models"
)

func finding(path string, line int, secretType, preview string) models.Finding {
	return models.Finding{
		FilePath:      path,
		LineNumber:    line,
		SecretType:    secretType,
		MaskedPreview: preview,
	}
}

func TestAddIsIdempotent(t *testing.T) {
	s := NewSet()
	f := finding("config/.env", 3, "AWS Access Key ID", "AKIA****")

	assert.True(t, s.Add(f), "first add must retain")
	assert.False(t, s.Add(f), "second add of the same logical finding must be discarded")
	assert.Equal(t, 1, s.Len())
}

func TestAddDistinguishesKeyFields(t *testing.T) {
	s := NewSet()
	base := finding("config/.env", 3, "AWS Access Key ID", "AKIA****")

	assert.True(t, s.Add(base))
	assert.True(t, s.Add(finding("other/.env", 3, "AWS Access Key ID", "AKIA****")))
	assert.True(t, s.Add(finding("config/.env", 4, "AWS Access Key ID", "AKIA****")))
	assert.True(t, s.Add(finding("config/.env", 3, "GitHub Token", "AKIA****")))
	assert.True(t, s.Add(finding("config/.env", 3, "AWS Access Key ID", "BKIA****")))
	assert.Equal(t, 5, s.Len())
}

func TestKeyIgnoresNonKeyFields(t *testing.T) {
	a := finding("x", 1, "t", "p")
	a.CommitID = "abc12345"
	a.Branch = "main"

	b := finding("x", 1, "t", "p")
	b.CommitID = "fff00000"
	b.Branch = "develop"

	// Same secret found in the current tree and again in history collapses
	// to one entry.
	assert.Equal(t, Key(a), Key(b))
}
