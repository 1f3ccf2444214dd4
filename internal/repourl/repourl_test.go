package repourl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://github.com/owner/repo.git", false},
		{"http", "http://git.internal/owner/repo", false},
		{"scp-like", "git@github.com:owner/repo.git", false},
		{"git scheme", "git://github.com/owner/repo.git", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"ftp", "ftp://github.com/owner/repo", true},
		{"plain word", "not-a-url", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				var vErr *ValidationError
				assert.True(t, errors.As(err, &vErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWebBaseURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips git suffix", "https://github.com/owner/repo.git", "https://github.com/owner/repo"},
		{"ssh to https", "git@github.com:owner/repo.git", "https://github.com/owner/repo"},
		{"git scheme to https", "git://github.com/owner/repo.git", "https://github.com/owner/repo"},
		{"bare host path", "github.com/owner/repo", "https://github.com/owner/repo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WebBaseURL(tt.in))
		})
	}
}

func TestOwnerRepo(t *testing.T) {
	owner, repo, err := OwnerRepo("git@github.com:acme/secrets-demo.git")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "secrets-demo", repo)

	_, _, err = OwnerRepo("https://github.com/")
	assert.Error(t, err)
}
