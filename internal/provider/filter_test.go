package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileFilterAllowPath(t *testing.T) {
	f := NewFileFilter()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"source file", "cmd/server/main.go", true},
		{"env file", ".env", true},
		{"env variant", "deploy/.env.production", true},
		{"dockerfile by name", "Dockerfile", true},
		{"yaml config", "config/app.yaml", true},
		{"image denied", "docs/logo.png", false},
		{"archive denied", "release/bundle.zip", false},
		{"node_modules denied", "node_modules/pkg/index.js", false},
		{"nested node_modules denied", "web/node_modules/pkg/.env", false},
		{"vendor denied", "vendor/github.com/x/y.go", false},
		{"git dir denied", ".git/config", false},
		{"unknown extension denied", "data/records.dat", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.AllowPath(tt.path))
		})
	}
}

func TestFileFilterSizeCeiling(t *testing.T) {
	f := NewFileFilter()

	assert.True(t, f.Allow("big.txt", DefaultMaxFileSize))
	// A 2 MiB file is excluded entirely, even though its path is eligible.
	assert.False(t, f.Allow("big.txt", 2<<20))
}

func TestIsBinary(t *testing.T) {
	assert.False(t, isBinary([]byte("PASSWORD=secret\n")))
	assert.True(t, isBinary([]byte{0x89, 'P', 'N', 'G', 0x00}))
}
