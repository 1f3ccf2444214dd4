// Package scan drives the traversal over a source provider, applies the
// pattern corpus to every eligible line, and reduces raw matches into a
// deduplicated, severity-sorted result.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"secretscan/internal/dedup"
	"secretscan/internal/detect"
	"secretscan/internal/logger"
	"secretscan/internal/provider"
	"secretscan/internal/repourl"
	"secretscan/models"
)

// Options configure one orchestrator run.
type Options struct {
	Mode    models.ScanMode
	RepoURL string

	// MaxCommitsPerBranch bounds history traversal; 0 means the provider
	// default.
	MaxCommitsPerBranch int

	// CallTimeout is the per-call deadline applied to each provider call.
	// Zero disables per-call deadlines.
	CallTimeout time.Duration

	// StepDelay is inserted between consecutive network calls in remote
	// mode to stay under API rate limits.
	StepDelay time.Duration
}

// Orchestrator runs the scan state machine for one job. It never mutates
// job records directly; all observable state flows through the reporter.
type Orchestrator struct {
	provider provider.SourceProvider
	detector *detect.Detector
	progress *tracker
	opts     Options
	log      *zap.SugaredLogger

	findings []models.Finding
	set      *dedup.Set

	branchCount    int
	filesScanned   int
	commitsScanned int
	totalCommits   int
}

func New(p provider.SourceProvider, d *detect.Detector, reporter ProgressReporter, opts Options) *Orchestrator {
	return &Orchestrator{
		provider: p,
		detector: d,
		progress: newTracker(reporter),
		opts:     opts,
		log:      logger.GetSugaredLogger(),
		findings: []models.Finding{},
		set:      dedup.NewSet(),
	}
}

// Run executes the full scan and returns the final result. A returned
// error is always fatal for the job; per-file and per-commit failures are
// absorbed here and only logged.
func (o *Orchestrator) Run(ctx context.Context) (*models.ScanResult, error) {
	start := time.Now()
	defer logger.Trace("Orchestrator.Run", start)

	var err error
	if o.opts.Mode == models.ModeRemote {
		err = o.runRemote(ctx)
	} else {
		err = o.runLocal(ctx)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(o.findings, func(i, j int) bool {
		return o.findings[i].Severity.Rank() < o.findings[j].Severity.Rank()
	})

	summary := models.Summarize(o.findings, o.branchCount, o.commitsScanned, o.totalCommits, o.filesScanned)
	o.progress.report(100, fmt.Sprintf("Scan completed! Found %d secrets in %d commits", summary.Total, summary.CommitsScanned))

	return &models.ScanResult{
		Summary:  summary,
		Findings: o.findings,
		RepoURL:  repourl.WebBaseURL(o.opts.RepoURL),
	}, nil
}

// runLocal walks every branch of the mirror clone: current files first,
// then bounded commit history. Phase layout: setup 0-10, branches 10-90
// split evenly, finalize 90-100.
func (o *Orchestrator) runLocal(ctx context.Context) error {
	o.progress.report(5, "Listing branches...")
	branches, err := o.listBranches(ctx)
	if err != nil {
		return err
	}
	o.branchCount = len(branches)
	o.progress.report(10, fmt.Sprintf("Found %d branches. Deep scanning...", len(branches)))

	work := span{10, 90}
	for i, branch := range branches {
		if err := ctx.Err(); err != nil {
			return err
		}
		branchSpan := work.sub(i, len(branches))
		fileSpan, commitSpan := branchSpan.split(50)

		if err := o.scanBranchFiles(ctx, branch, fileSpan); err != nil {
			return err
		}
		if err := o.scanBranchCommits(ctx, branch, commitSpan); err != nil {
			return err
		}
	}

	o.progress.report(90, "Processing results...")
	return nil
}

// runRemote scans only the first (default) branch, strictly sequentially,
// pausing between calls. Phase layout: setup 0-15, file scan 15-55,
// commit scan 55-95, finalize 95-100.
func (o *Orchestrator) runRemote(ctx context.Context) error {
	o.progress.report(5, "Contacting hosting API...")
	branches, err := o.listBranches(ctx)
	if err != nil {
		return err
	}
	// Only the default branch is scanned remotely; the rest would burn
	// quota for little coverage. The provider lists it first.
	o.branchCount = 1
	branch := branches[0]
	o.progress.report(15, fmt.Sprintf("Scanning branch %s...", branch))

	if err := o.pause(ctx); err != nil {
		return err
	}
	if err := o.scanBranchFiles(ctx, branch, span{15, 55}); err != nil {
		return err
	}
	if err := o.scanBranchCommits(ctx, branch, span{55, 95}); err != nil {
		return err
	}

	o.progress.report(95, "Processing results...")
	return nil
}

func (o *Orchestrator) listBranches(ctx context.Context) ([]string, error) {
	callCtx, cancel := o.callCtx(ctx)
	defer cancel()

	branches, err := o.provider.Branches(callCtx)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	if len(branches) == 0 {
		return nil, fmt.Errorf("%w: repository has no branches", provider.ErrUnavailable)
	}
	return branches, nil
}

// scanBranchFiles runs every pattern over every line of the branch's
// current files. Unreadable, oversized and binary files are skipped, never
// fatal.
func (o *Orchestrator) scanBranchFiles(ctx context.Context, branch string, phase span) error {
	callCtx, cancel := o.callCtx(ctx)
	files, err := o.provider.Files(callCtx, branch)
	cancel()
	if err != nil {
		if isFatal(err) {
			return err
		}
		o.log.Warnf("skipping file scan on %s: %v", branch, err)
		return nil
	}

	scannedAt := time.Now().UTC().Format(time.RFC3339)
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.progress.report(phase.at(i, len(files)), fmt.Sprintf("Scanning files on %s (%d/%d)", branch, i+1, len(files)))

		callCtx, cancel := o.callCtx(ctx)
		content, err := o.provider.ReadFile(callCtx, file)
		cancel()
		if err != nil {
			if isFatal(err) {
				return err
			}
			o.log.Debugf("skipping %s: %v", file.Path, err)
			continue
		}

		for lineNo, line := range strings.Split(content, "\n") {
			for _, match := range o.detector.ScanLine(line) {
				o.keep(models.Finding{
					FilePath:      file.Path,
					LineNumber:    lineNo + 1,
					SecretType:    match.SecretType,
					MaskedPreview: match.Masked,
					RawValue:      match.Value,
					CommitID:      "HEAD",
					Author:        "Current",
					Timestamp:     scannedAt,
					CommitMessage: "Current HEAD",
					Branch:        branch,
					Severity:      match.Severity,
					Entropy:       match.Entropy,
				})
			}
		}
		o.filesScanned++

		if err := o.pause(ctx); err != nil {
			return err
		}
	}
	return nil
}

// scanBranchCommits fetches bounded history and scans only the lines each
// commit added. A commit whose diff cannot be fetched is skipped; commit
// enumeration itself is mandatory setup and fatal on failure.
func (o *Orchestrator) scanBranchCommits(ctx context.Context, branch string, phase span) error {
	callCtx, cancel := o.callCtx(ctx)
	commits, err := o.provider.Commits(callCtx, branch, o.opts.MaxCommitsPerBranch)
	cancel()
	if err != nil {
		return fmt.Errorf("list commits on %s: %w", branch, err)
	}
	o.totalCommits += len(commits)

	for i, commit := range commits {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.progress.report(phase.at(i, len(commits)), fmt.Sprintf("Scanning commit %d/%d: %s", i+1, len(commits), shortID(commit.ID)))

		callCtx, cancel := o.callCtx(ctx)
		diffs, err := o.provider.CommitDiff(callCtx, commit)
		cancel()
		if err != nil {
			if isFatal(err) {
				return err
			}
			o.log.Debugf("skipping commit %s: %v", shortID(commit.ID), err)
			continue
		}

		for _, diff := range diffs {
			for _, added := range diff.Added {
				for _, match := range o.detector.ScanLine(added.Text) {
					o.keep(models.Finding{
						FilePath:      diff.Path,
						LineNumber:    added.Number,
						SecretType:    match.SecretType,
						MaskedPreview: match.Masked,
						RawValue:      match.Value,
						CommitID:      shortID(commit.ID),
						Author:        commit.Author,
						Timestamp:     commit.Date.UTC().Format(time.RFC3339),
						CommitMessage: commit.Message,
						Branch:        branch,
						Severity:      match.Severity,
						Entropy:       match.Entropy,
					})
				}
			}
		}
		o.commitsScanned++

		if err := o.pause(ctx); err != nil {
			return err
		}
	}
	return nil
}

// keep routes a raw finding through the dedup set; duplicates are dropped,
// retained findings stay in discovery order.
func (o *Orchestrator) keep(f models.Finding) {
	if o.set.Add(f) {
		o.findings = append(o.findings, f)
	}
}

func (o *Orchestrator) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, o.opts.CallTimeout)
	}
	return context.WithCancel(ctx)
}

// pause inserts the remote-mode inter-call delay. Local scans have no
// delay.
func (o *Orchestrator) pause(ctx context.Context) error {
	if o.opts.StepDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(o.opts.StepDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isFatal reports whether a provider error must fail the whole job rather
// than skip the current unit.
func isFatal(err error) bool {
	return errors.Is(err, provider.ErrRateLimited) || errors.Is(err, provider.ErrUnavailable)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
