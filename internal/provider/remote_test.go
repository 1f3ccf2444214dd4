package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secretscan/internal/creds"
)

// newAPIStub points a provider at a local HTTP stub so the REST paths can
// be exercised without the real API.
func newAPIStub(t *testing.T, mux *http.ServeMux) *RemoteAPIProvider {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base

	return &RemoteAPIProvider{
		client:      client,
		owner:       "acme",
		repo:        "demo",
		filter:      NewFileFilter(),
		MaxBranches: DefaultRemoteMaxBranches,
		MaxCommits:  DefaultRemoteMaxCommits,
		MaxFiles:    DefaultRemoteMaxFiles,
	}
}

func TestParsePatchAdded(t *testing.T) {
	patch := "@@ -1,3 +1,4 @@\n context line\n+ADDED_ONE=1\n another context\n+ADDED_TWO=2"

	added := ParsePatchAdded(patch)
	require.Len(t, added, 2)
	assert.Equal(t, "ADDED_ONE=1", added[0].Text)
	assert.Equal(t, 2, added[0].Number)
	assert.Equal(t, "ADDED_TWO=2", added[1].Text)
	assert.Equal(t, 4, added[1].Number)
}

func TestParsePatchAddedSkipsFileHeader(t *testing.T) {
	patch := "--- a/.env\n+++ b/.env\n@@ -0,0 +1,1 @@\n+TOKEN=x"

	added := ParsePatchAdded(patch)
	require.Len(t, added, 1)
	assert.Equal(t, "TOKEN=x", added[0].Text)
	assert.Equal(t, 1, added[0].Number)
}

func TestParsePatchAddedRemovedOnly(t *testing.T) {
	// A diff that only deletes a secret contributes nothing, even though
	// the literal text appears in the raw patch.
	patch := "@@ -1,2 +1,1 @@\n context\n-PASSWORD=secret"

	assert.Empty(t, ParsePatchAdded(patch))
}

func TestParsePatchAddedMultipleHunks(t *testing.T) {
	patch := "@@ -1,2 +1,3 @@\n a\n+first\n b\n@@ -10,2 +11,3 @@\n c\n+second\n d"

	added := ParsePatchAdded(patch)
	require.Len(t, added, 2)
	assert.Equal(t, 2, added[0].Number)
	assert.Equal(t, 12, added[1].Number)
}

func TestParsePatchAddedIgnoresNoNewlineMarker(t *testing.T) {
	// The old file ended without a trailing newline; the marker line must
	// not shift the numbering of added lines that follow it.
	patch := "@@ -1 +1,2 @@\n-OLD_KEY=a\n\\ No newline at end of file\n+NEW_KEY=b\n+API_TOKEN=c"

	added := ParsePatchAdded(patch)
	require.Len(t, added, 2)
	assert.Equal(t, 1, added[0].Number)
	assert.Equal(t, "NEW_KEY=b", added[0].Text)
	assert.Equal(t, 2, added[1].Number)
}

func TestBranchesDefaultBranchFirst(t *testing.T) {
	// The branch listing is alphabetical, so "dev" sorts before "main".
	// Single-branch scans take the head of this slice and must get the
	// repository's default branch.
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/demo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"demo","default_branch":"main"}`)
	})
	mux.HandleFunc("/repos/acme/demo/branches", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name":"dev"},{"name":"main"},{"name":"release"}]`)
	})

	p := newAPIStub(t, mux)
	branches, err := p.Branches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "dev", "release"}, branches)
}

func TestFilesTruncatedTreeStillListed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/demo/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"sha":"t1","truncated":true,"tree":[`+
			`{"path":".env","type":"blob","sha":"b1","size":12},`+
			`{"path":"logo.png","type":"blob","sha":"b2","size":9}]}`)
	})

	p := newAPIStub(t, mux)
	files, err := p.Files(context.Background(), "main")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ".env", files[0].Path)
}

func TestAPIErrorQuotaExhausted(t *testing.T) {
	p := &RemoteAPIProvider{owner: "acme", repo: "demo"}
	resp := &github.Response{Rate: github.Rate{
		Limit:     60,
		Remaining: 0,
		Reset:     github.Timestamp{Time: time.Now().Add(30 * time.Minute)},
	}}

	err := p.apiError(nil, resp)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestAPIErrorQuotaRemaining(t *testing.T) {
	p := &RemoteAPIProvider{owner: "acme", repo: "demo"}
	resp := &github.Response{Rate: github.Rate{Limit: 60, Remaining: 12}}

	assert.NoError(t, p.apiError(nil, resp))
}

func TestAPIErrorSentinels(t *testing.T) {
	p := &RemoteAPIProvider{owner: "acme", repo: "demo"}

	rateErr := &github.RateLimitError{Rate: github.Rate{Limit: 60}}
	assert.ErrorIs(t, p.apiError(rateErr, nil), ErrRateLimited)

	notFound := &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}}
	assert.ErrorIs(t, p.apiError(notFound, nil), ErrUnavailable)
}

func TestNewRemoteAPIProviderParsesSlug(t *testing.T) {
	p, err := NewRemoteAPIProvider("https://github.com/octocat/hello-world.git", &creds.AnonymousSource{}, NewFileFilter())
	require.NoError(t, err)
	assert.Equal(t, "octocat", p.owner)
	assert.Equal(t, "hello-world", p.repo)
	assert.Equal(t, DefaultRemoteMaxBranches, p.MaxBranches)
}

func TestNewRemoteAPIProviderRejectsBareHost(t *testing.T) {
	_, err := NewRemoteAPIProvider("https://github.com", &creds.AnonymousSource{}, NewFileFilter())
	assert.Error(t, err)
}
