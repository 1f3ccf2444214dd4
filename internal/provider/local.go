package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	httpAuth "github.com/go-git/go-git/v5/plumbing/transport/http"

	"secretscan/internal/creds"
	"secretscan/internal/logger"
)

// DefaultLocalMaxCommits bounds commit history per branch for the local
// provider.
const DefaultLocalMaxCommits = 500

// LocalGitProvider walks a temporary mirror clone. Full history is
// available, so secrets introduced and later removed (including deleted
// files) are still reachable through the per-commit diffs.
type LocalGitProvider struct {
	repo   *git.Repository
	dir    string
	filter *FileFilter
}

// NewLocalGitProvider mirror-clones repoURL into a temp directory owned
// exclusively by this provider. The clone is removed by Close on every
// exit path. Clone failures, missing repositories and auth failures all
// surface as ErrUnavailable.
func NewLocalGitProvider(ctx context.Context, repoURL string, source creds.Source, filter *FileFilter) (*LocalGitProvider, error) {
	start := time.Now()
	defer logger.Trace("NewLocalGitProvider", start)

	gitCreds, err := source.GitCredentials()
	if err != nil {
		return nil, fmt.Errorf("%w: credentials: %v", ErrUnavailable, err)
	}

	var auth *httpAuth.BasicAuth
	if gitCreds != nil {
		auth = &httpAuth.BasicAuth{Username: gitCreds.Username, Password: gitCreds.Token}
	}

	dir := filepath.Join(os.TempDir(), fmt.Sprintf("secretscan_%d", time.Now().UnixNano()))
	repo, err := git.PlainCloneContext(ctx, dir, true, &git.CloneOptions{
		URL:    repoURL,
		Mirror: true,
		Auth:   auth,
	})
	if err != nil {
		os.RemoveAll(dir)
		switch {
		case errors.Is(err, transport.ErrRepositoryNotFound):
			return nil, fmt.Errorf("%w: repository not found: %s", ErrUnavailable, repoURL)
		case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed):
			return nil, fmt.Errorf("%w: authentication failed for %s", ErrUnavailable, repoURL)
		default:
			return nil, fmt.Errorf("%w: clone failed: %v", ErrUnavailable, err)
		}
	}

	return &LocalGitProvider{repo: repo, dir: dir, filter: filter}, nil
}

func (p *LocalGitProvider) Close() error {
	if p.dir == "" {
		return nil
	}
	return os.RemoveAll(p.dir)
}

// Branches returns every branch in the mirror, sorted for stable traversal
// order.
func (p *LocalGitProvider) Branches(ctx context.Context) ([]string, error) {
	refs, err := p.repo.References()
	if err != nil {
		return nil, fmt.Errorf("%w: list references: %v", ErrUnavailable, err)
	}

	var branches []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ref.Name().IsBranch() {
			branches = append(branches, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: iterate references: %v", ErrUnavailable, err)
	}

	sort.Strings(branches)
	return branches, nil
}

// Files lists the filter-eligible files in the branch head tree.
func (p *LocalGitProvider) Files(ctx context.Context, branch string) ([]FileRef, error) {
	tree, err := p.branchTree(branch)
	if err != nil {
		return nil, err
	}

	var files []FileRef
	iter := tree.Files()
	defer iter.Close()
	err = iter.ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.filter.Allow(f.Name, f.Size) {
			files = append(files, FileRef{Path: f.Name, ID: f.Hash.String(), Size: f.Size})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files on %s: %w", branch, err)
	}
	return files, nil
}

// ReadFile loads blob content. Binary blobs (NUL byte heuristic) come back
// as ErrBinaryFile so the caller skips them.
func (p *LocalGitProvider) ReadFile(ctx context.Context, ref FileRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	blob, err := p.repo.BlobObject(plumbing.NewHash(ref.ID))
	if err != nil {
		return "", fmt.Errorf("blob %s: %w", ref.Path, err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return "", fmt.Errorf("open blob %s: %w", ref.Path, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, p.filter.MaxFileSize+1))
	if err != nil {
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

// Commits walks branch history newest first, up to limit.
func (p *LocalGitProvider) Commits(ctx context.Context, branch string, limit int) ([]Commit, error) {
	ref, err := p.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve branch %s: %v", ErrUnavailable, branch, err)
	}

	iter, err := p.repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("%w: log %s: %v", ErrUnavailable, branch, err)
	}
	defer iter.Close()

	if limit <= 0 {
		limit = DefaultLocalMaxCommits
	}

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, Commit{
			ID:      c.Hash.String(),
			Author:  c.Author.Name,
			Date:    c.Author.When,
			Message: firstLine(c.Message),
		})
		if len(commits) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk log %s: %v", ErrUnavailable, branch, err)
	}
	return commits, nil
}

// CommitDiff diffs a commit against its first parent (the empty tree for
// root commits) and returns only the lines each file gained. Binary file
// patches are dropped entirely.
func (p *LocalGitProvider) CommitDiff(ctx context.Context, commit Commit) ([]DiffFile, error) {
	c, err := p.repo.CommitObject(plumbing.NewHash(commit.ID))
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", short(commit.ID), err)
	}

	toTree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("tree of %s: %w", short(commit.ID), err)
	}

	var fromTree *object.Tree
	if c.NumParents() > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("parent of %s: %w", short(commit.ID), err)
		}
		fromTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("parent tree of %s: %w", short(commit.ID), err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, fromTree, toTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", short(commit.ID), err)
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", short(commit.ID), err)
	}

	var out []DiffFile
	for _, fp := range patch.FilePatches() {
		if fp.IsBinary() {
			continue
		}
		_, to := fp.Files()
		if to == nil {
			// Pure deletion: nothing was added, nothing to scan.
			continue
		}
		if !p.filter.AllowPath(to.Path()) {
			continue
		}

		added := addedFromChunks(fp.Chunks())
		if len(added) == 0 {
			continue
		}
		out = append(out, DiffFile{Path: to.Path(), Added: added})
	}
	return out, nil
}

// addedFromChunks walks diff chunks tracking the line counter of the new
// file version, keeping only added lines.
func addedFromChunks(chunks []diff.Chunk) []AddedLine {
	var added []AddedLine
	newLine := 0
	for _, chunk := range chunks {
		lines := splitChunkLines(chunk.Content())
		switch chunk.Type() {
		case diff.Equal:
			newLine += len(lines)
		case diff.Add:
			for _, text := range lines {
				newLine++
				added = append(added, AddedLine{Number: newLine, Text: text})
			}
		case diff.Delete:
			// Removed lines do not advance the new-file counter and are
			// never scanned.
		}
	}
	return added
}

func splitChunkLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}

func (p *LocalGitProvider) branchTree(branch string) (*object.Tree, error) {
	ref, err := p.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve branch %s: %v", ErrUnavailable, branch, err)
	}
	c, err := p.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: head commit of %s: %v", ErrUnavailable, branch, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("%w: head tree of %s: %v", ErrUnavailable, branch, err)
	}
	return tree, nil
}

func isBinary(data []byte) bool {
	for _, b := range data {
		if b == 0 {
			return true
		}
	}
	return false
}

func firstLine(msg string) string {
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	if len(msg) > 100 {
		msg = msg[:100]
	}
	return msg
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
