package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"secretscan/internal/creds"
	"secretscan/internal/detect"
	"secretscan/internal/logger"
	"secretscan/internal/provider"
	"secretscan/internal/repourl"
	"secretscan/internal/scan"
	"secretscan/models"
)

// Options carry the named bounds for both scan modes.
type Options struct {
	LocalMaxCommits   int
	RemoteMaxBranches int
	RemoteMaxCommits  int
	RemoteMaxFiles    int
	CallTimeout       time.Duration
	RemoteStepDelay   time.Duration
}

// DefaultOptions mirror the documented per-mode bounds.
func DefaultOptions() Options {
	return Options{
		LocalMaxCommits:   provider.DefaultLocalMaxCommits,
		RemoteMaxBranches: provider.DefaultRemoteMaxBranches,
		RemoteMaxCommits:  provider.DefaultRemoteMaxCommits,
		RemoteMaxFiles:    provider.DefaultRemoteMaxFiles,
		CallTimeout:       60 * time.Second,
		RemoteStepDelay:   200 * time.Millisecond,
	}
}

// Manager validates scan requests, creates job records, and runs each
// accepted job on its own worker goroutine. Once started a job runs to
// completion or failure; there is no cancel.
type Manager struct {
	store    *Store
	detector *detect.Detector
	creds    creds.Source
	filter   *provider.FileFilter
	opts     Options
	log      *zap.SugaredLogger
}

func NewManager(registry *detect.Registry, source creds.Source, opts Options) *Manager {
	return &Manager{
		store:    NewStore(),
		detector: detect.NewDetector(registry),
		creds:    source,
		filter:   provider.NewFileFilter(),
		opts:     opts,
		log:      logger.GetSugaredLogger(),
	}
}

// Submit validates the repository URL, registers a job and starts its
// worker. Validation failures surface synchronously; everything after that
// is only observable through Status.
func (m *Manager) Submit(repoURL string, mode models.ScanMode) (models.ScanJob, error) {
	if err := repourl.Validate(repoURL); err != nil {
		return models.ScanJob{}, err
	}
	if mode == models.ModeRemote {
		if _, _, err := repourl.OwnerRepo(repoURL); err != nil {
			return models.ScanJob{}, err
		}
	}
	if mode != models.ModeRemote {
		mode = models.ModeLocal
	}

	job := models.ScanJob{
		ID:        uuid.NewString(),
		RepoURL:   repoURL,
		Mode:      mode,
		Status:    models.StatusPending,
		Message:   "Scan queued...",
		CreatedAt: time.Now().UTC(),
	}
	m.store.Create(job)

	go m.run(job.ID, repoURL, mode)

	m.log.Infof("job %s accepted for %s (%s mode)", job.ID, repoURL, mode)
	return job, nil
}

// Status returns a snapshot of the job record.
func (m *Manager) Status(id string) (models.ScanJob, bool) {
	return m.store.Get(id)
}

func (m *Manager) run(id, repoURL string, mode models.ScanMode) {
	start := time.Now()
	defer logger.Trace("Manager.run", start)

	ctx := context.Background()

	setupMsg := "Cloning repository..."
	if mode == models.ModeRemote {
		setupMsg = "Contacting hosting API..."
	}
	m.store.Update(id, func(j *models.ScanJob) {
		j.Status = models.StatusRunning
		j.Message = setupMsg
	})

	prov, err := m.buildProvider(ctx, repoURL, mode)
	if err != nil {
		m.fail(id, err)
		return
	}
	defer prov.Close()

	reporter := scan.ReporterFunc(func(progress int, message string) {
		m.store.Update(id, func(j *models.ScanJob) {
			j.Progress = progress
			j.Message = message
		})
	})

	orch := scan.New(prov, m.detector, reporter, scan.Options{
		Mode:                mode,
		RepoURL:             repoURL,
		MaxCommitsPerBranch: m.maxCommits(mode),
		CallTimeout:         m.opts.CallTimeout,
		StepDelay:           m.stepDelay(mode),
	})

	result, err := orch.Run(ctx)
	if err != nil {
		m.fail(id, err)
		return
	}

	m.store.Update(id, func(j *models.ScanJob) {
		j.Status = models.StatusCompleted
		j.Progress = 100
		j.Message = fmt.Sprintf("Scan completed! Found %d secrets in %d commits", result.Summary.Total, result.Summary.CommitsScanned)
		j.Result = result
	})
	m.log.Infof("job %s completed: %d findings", id, result.Summary.Total)
}

func (m *Manager) buildProvider(ctx context.Context, repoURL string, mode models.ScanMode) (provider.SourceProvider, error) {
	if mode == models.ModeRemote {
		p, err := provider.NewRemoteAPIProvider(repoURL, m.creds, m.filter)
		if err != nil {
			return nil, err
		}
		if m.opts.RemoteMaxBranches > 0 {
			p.MaxBranches = m.opts.RemoteMaxBranches
		}
		if m.opts.RemoteMaxCommits > 0 {
			p.MaxCommits = m.opts.RemoteMaxCommits
		}
		if m.opts.RemoteMaxFiles > 0 {
			p.MaxFiles = m.opts.RemoteMaxFiles
		}
		return p, nil
	}
	return provider.NewLocalGitProvider(ctx, repoURL, m.creds, m.filter)
}

func (m *Manager) maxCommits(mode models.ScanMode) int {
	if mode == models.ModeRemote {
		return m.opts.RemoteMaxCommits
	}
	return m.opts.LocalMaxCommits
}

func (m *Manager) stepDelay(mode models.ScanMode) time.Duration {
	if mode == models.ModeRemote {
		return m.opts.RemoteStepDelay
	}
	return 0
}

func (m *Manager) fail(id string, err error) {
	message := err.Error()
	if errors.Is(err, provider.ErrRateLimited) {
		message = "API rate limit exhausted; authenticate with a token to raise the quota"
	}
	m.store.Update(id, func(j *models.ScanJob) {
		j.Status = models.StatusFailed
		j.Message = message
	})
	m.log.Errorf("job %s failed: %v", id, err)
}
