// Package provider abstracts where a repository's branches, files, commits
// and diffs come from: a local mirror clone with full history, or a hosting
// REST API with bounded history.
package provider

import (
	"context"
	"errors"
	"time"
)

// FileRef points at one readable file on a branch. ID is whatever the
// provider needs to fetch the content (a blob hash).
type FileRef struct {
	Path string
	ID   string
	Size int64
}

// Commit is the metadata needed to attribute a finding to history.
type Commit struct {
	ID      string
	Author  string
	Date    time.Time
	Message string
}

// AddedLine is one line introduced by a commit, with its line number in the
// new version of the file.
type AddedLine struct {
	Number int
	Text   string
}

// DiffFile is the added-line subset of one file's change in a commit.
// Binary or patchless changes yield no entry at all.
type DiffFile struct {
	Path  string
	Added []AddedLine
}

// SourceProvider enumerates a repository. Both implementations honor the
// same contract: every call takes a context for per-call deadlines, file
// listings are pre-filtered by the shared FileFilter, and commit listings
// are newest first and bounded.
type SourceProvider interface {
	// Branches lists branch names. The remote variant puts the
	// repository's default branch first.
	Branches(ctx context.Context) ([]string, error)
	Files(ctx context.Context, branch string) ([]FileRef, error)
	ReadFile(ctx context.Context, ref FileRef) (string, error)
	Commits(ctx context.Context, branch string, limit int) ([]Commit, error)
	CommitDiff(ctx context.Context, commit Commit) ([]DiffFile, error)

	// Close releases provider resources (the temp clone for the local
	// variant). Safe to call on every exit path.
	Close() error
}

// Sentinel errors. Callers match with errors.Is; wrapped messages carry the
// provider detail.
var (
	// ErrUnavailable is fatal for the job: clone failure, repository not
	// found, or auth failure.
	ErrUnavailable = errors.New("source provider unavailable")

	// ErrRateLimited is fatal for the job: the remote API quota is
	// exhausted.
	ErrRateLimited = errors.New("api rate limit exhausted")

	// ErrBinaryFile marks content excluded by policy; the file is skipped.
	ErrBinaryFile = errors.New("binary content")
)
