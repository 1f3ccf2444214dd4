// Package creds resolves git hosting credentials used for clones and API
// calls against private repositories.
package creds

import (
	"fmt"
	"os"
)

type GitCredentials struct {
	Username string
	Token    string
}

// Source hands out hosting credentials. Implementations may read the
// environment, a secret store, or return nothing for anonymous access.
type Source interface {
	GitCredentials() (*GitCredentials, error)
}

// EnvSource reads credentials from GITHUB_USERNAME / GITHUB_TOKEN.
type EnvSource struct{}

func (s *EnvSource) GitCredentials() (*GitCredentials, error) {
	username := os.Getenv("GITHUB_USERNAME")
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("github credentials not found in environment")
	}
	if username == "" {
		username = "x-access-token"
	}
	return &GitCredentials{Username: username, Token: token}, nil
}

// AnonymousSource is used for public repositories; providers treat nil
// credentials as unauthenticated access.
type AnonymousSource struct{}

func (s *AnonymousSource) GitCredentials() (*GitCredentials, error) {
	return nil, nil
}

// FromEnv picks a source based on whether a token is present, so public
// scans work without any configuration.
func FromEnv() Source {
	if os.Getenv("GITHUB_TOKEN") != "" {
		return &EnvSource{}
	}
	return &AnonymousSource{}
}
