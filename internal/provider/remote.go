package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/go-github/v68/github"

	"secretscan/internal/creds"
	"secretscan/internal/logger"
	"secretscan/internal/repourl"
)

// Remote traversal bounds. The REST API is rate-limited, so the remote
// provider deliberately sees far less history than a mirror clone.
const (
	DefaultRemoteMaxBranches = 10
	DefaultRemoteMaxCommits  = 30
	DefaultRemoteMaxFiles    = 200
)

// RemoteAPIProvider enumerates a repository through the GitHub REST API.
// Every response's rate headers are inspected; an exhausted quota is fatal
// for the whole job, not a per-call skip.
type RemoteAPIProvider struct {
	client *github.Client
	owner  string
	repo   string
	filter *FileFilter

	MaxBranches int
	MaxCommits  int
	MaxFiles    int
}

// NewRemoteAPIProvider resolves the owner/repo slug from the URL and
// builds an authenticated client when a token is available. Anonymous
// access works but hits the low unauthenticated quota quickly.
func NewRemoteAPIProvider(repoURL string, source creds.Source, filter *FileFilter) (*RemoteAPIProvider, error) {
	owner, repo, err := repourl.OwnerRepo(repoURL)
	if err != nil {
		return nil, err
	}

	client := github.NewClient(nil)
	if gitCreds, err := source.GitCredentials(); err == nil && gitCreds != nil && gitCreds.Token != "" {
		client = client.WithAuthToken(gitCreds.Token)
	}

	return &RemoteAPIProvider{
		client:      client,
		owner:       owner,
		repo:        repo,
		filter:      filter,
		MaxBranches: DefaultRemoteMaxBranches,
		MaxCommits:  DefaultRemoteMaxCommits,
		MaxFiles:    DefaultRemoteMaxFiles,
	}, nil
}

func (p *RemoteAPIProvider) Close() error { return nil }

// Branches returns up to MaxBranches branch names with the repository's
// default branch first. The branch listing endpoint is alphabetical, so
// the default branch is resolved explicitly; callers that scan only one
// branch must get the default, not whatever sorts first.
func (p *RemoteAPIProvider) Branches(ctx context.Context) ([]string, error) {
	repoInfo, resp, err := p.client.Repositories.Get(ctx, p.owner, p.repo)
	if err := p.apiError(err, resp); err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}
	defaultBranch := repoInfo.GetDefaultBranch()

	var branches []string
	if defaultBranch != "" {
		branches = append(branches, defaultBranch)
	}

	opts := &github.BranchListOptions{
		ListOptions: github.ListOptions{PerPage: p.MaxBranches},
	}
	for {
		page, resp, err := p.client.Repositories.ListBranches(ctx, p.owner, p.repo, opts)
		if err := p.apiError(err, resp); err != nil {
			return nil, fmt.Errorf("list branches: %w", err)
		}
		for _, b := range page {
			if b.GetName() == defaultBranch {
				continue
			}
			branches = append(branches, b.GetName())
			if len(branches) >= p.MaxBranches {
				return branches, nil
			}
		}
		if resp.NextPage == 0 {
			return branches, nil
		}
		opts.Page = resp.NextPage
	}
}

// Files lists filter-eligible blobs of the branch tree, capped at MaxFiles.
func (p *RemoteAPIProvider) Files(ctx context.Context, branch string) ([]FileRef, error) {
	tree, resp, err := p.client.Git.GetTree(ctx, p.owner, p.repo, branch, true)
	if err := p.apiError(err, resp); err != nil {
		return nil, fmt.Errorf("get tree %s: %w", branch, err)
	}
	if tree.GetTruncated() {
		logger.GetSugaredLogger().Warnf("tree listing for %s/%s@%s truncated by the API; scanning a partial file list", p.owner, p.repo, branch)
	}

	var files []FileRef
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		if !p.filter.Allow(entry.GetPath(), int64(entry.GetSize())) {
			continue
		}
		files = append(files, FileRef{
			Path: entry.GetPath(),
			ID:   entry.GetSHA(),
			Size: int64(entry.GetSize()),
		})
		if len(files) >= p.MaxFiles {
			break
		}
	}
	return files, nil
}

// ReadFile fetches raw blob content by SHA.
func (p *RemoteAPIProvider) ReadFile(ctx context.Context, ref FileRef) (string, error) {
	data, resp, err := p.client.Git.GetBlobRaw(ctx, p.owner, p.repo, ref.ID)
	if err := p.apiError(err, resp); err != nil {
		return "", fmt.Errorf("read blob %s: %w", ref.Path, err)
	}
	if int64(len(data)) > p.filter.MaxFileSize {
		return "", fmt.Errorf("%s exceeds size ceiling: %w", ref.Path, ErrBinaryFile)
	}
	if isBinary(data) {
		return "", fmt.Errorf("%s: %w", ref.Path, ErrBinaryFile)
	}
	return string(data), nil
}

// Commits returns up to limit commits on the branch, newest first.
func (p *RemoteAPIProvider) Commits(ctx context.Context, branch string, limit int) ([]Commit, error) {
	if limit <= 0 || limit > p.MaxCommits {
		limit = p.MaxCommits
	}
	opts := &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: limit},
	}

	page, resp, err := p.client.Repositories.ListCommits(ctx, p.owner, p.repo, opts)
	if err := p.apiError(err, resp); err != nil {
		return nil, fmt.Errorf("list commits %s: %w", branch, err)
	}

	commits := make([]Commit, 0, len(page))
	for _, rc := range page {
		if len(commits) >= limit {
			break
		}
		commits = append(commits, Commit{
			ID:      rc.GetSHA(),
			Author:  rc.GetCommit().GetAuthor().GetName(),
			Date:    rc.GetCommit().GetAuthor().GetDate().Time,
			Message: firstLine(rc.GetCommit().GetMessage()),
		})
	}
	return commits, nil
}

// CommitDiff fetches the commit and parses the provider-supplied patch
// text per file. Files without patch text (binary, too large) contribute
// nothing.
func (p *RemoteAPIProvider) CommitDiff(ctx context.Context, commit Commit) ([]DiffFile, error) {
	rc, resp, err := p.client.Repositories.GetCommit(ctx, p.owner, p.repo, commit.ID, nil)
	if err := p.apiError(err, resp); err != nil {
		return nil, fmt.Errorf("get commit %s: %w", short(commit.ID), err)
	}

	var out []DiffFile
	for _, file := range rc.Files {
		patch := file.GetPatch()
		if patch == "" {
			continue
		}
		if !p.filter.AllowPath(file.GetFilename()) {
			continue
		}
		added := ParsePatchAdded(patch)
		if len(added) == 0 {
			continue
		}
		out = append(out, DiffFile{Path: file.GetFilename(), Added: added})
	}
	return out, nil
}

var hunkHeaderRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// ParsePatchAdded extracts added lines from unified patch text: lines
// prefixed with '+' excluding the '+++' file header, numbered against the
// new file version via the hunk headers.
func ParsePatchAdded(patch string) []AddedLine {
	var added []AddedLine
	newLine := 0
	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
				start, _ := strconv.Atoi(m[1])
				newLine = start - 1
			}
		case strings.HasPrefix(line, "+++"):
			// file header, not content
		case strings.HasPrefix(line, "+"):
			newLine++
			added = append(added, AddedLine{Number: newLine, Text: line[1:]})
		case strings.HasPrefix(line, "-"):
			// removed lines never advance the new-file counter
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file" marker, not content
		default:
			newLine++
		}
	}
	return added
}

// apiError folds the go-github error taxonomy and the rate headers into
// the provider sentinels.
func (p *RemoteAPIProvider) apiError(err error, resp *github.Response) error {
	if err != nil {
		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			return fmt.Errorf("%w: resets at %s", ErrRateLimited, rateErr.Rate.Reset.Time)
		}
		var abuseErr *github.AbuseRateLimitError
		if errors.As(err, &abuseErr) {
			return fmt.Errorf("%w: secondary limit", ErrRateLimited)
		}
		var respErr *github.ErrorResponse
		if errors.As(err, &respErr) {
			switch respErr.Response.StatusCode {
			case http.StatusNotFound:
				return fmt.Errorf("%w: repository %s/%s not found", ErrUnavailable, p.owner, p.repo)
			case http.StatusUnauthorized, http.StatusForbidden:
				return fmt.Errorf("%w: access denied to %s/%s", ErrUnavailable, p.owner, p.repo)
			}
		}
		return err
	}
	if resp != nil && resp.Rate.Limit > 0 && resp.Rate.Remaining == 0 {
		return fmt.Errorf("%w: quota exhausted, resets at %s", ErrRateLimited, resp.Rate.Reset.Time)
	}
	return nil
}
