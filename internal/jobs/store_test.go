package jobs

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secretscan/internal/creds"
	"secretscan/internal/detect"
	"secretscan/internal/repourl"
	"secretscan/models"
)

func TestStoreGetReturnsSnapshot(t *testing.T) {
	s := NewStore()
	s.Create(models.ScanJob{ID: "job-1", Status: models.StatusPending})

	snap, ok := s.Get("job-1")
	require.True(t, ok)

	// Mutating the snapshot must not touch the stored record.
	snap.Status = models.StatusFailed
	again, _ := s.Get("job-1")
	assert.Equal(t, models.StatusPending, again.Status)
}

func TestStoreUnknownID(t *testing.T) {
	s := NewStore()
	_, ok := s.Get("missing")
	assert.False(t, ok)

	// Update on an unknown id is a no-op, not a panic.
	s.Update("missing", func(j *models.ScanJob) { j.Progress = 50 })
}

// Polls racing a writer must always observe a consistent
// progress/message pair, never a torn record.
func TestStoreConcurrentPollNeverTorn(t *testing.T) {
	s := NewStore()
	s.Create(models.ScanJob{ID: "job-1", Status: models.StatusRunning})

	const steps = 500
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i <= steps; i++ {
			p := i * 100 / steps
			s.Update("job-1", func(j *models.ScanJob) {
				j.Progress = p
				j.Message = fmt.Sprintf("step %d", p)
			})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < steps; i++ {
			snap, ok := s.Get("job-1")
			if !ok {
				continue
			}
			assert.Equal(t, fmt.Sprintf("step %d", snap.Progress), snap.Message)
		}
	}()

	wg.Wait()
}

func newTestManager() *Manager {
	return NewManager(detect.NewRegistry(), &creds.AnonymousSource{}, DefaultOptions())
}

func TestManagerSubmitRejectsInvalidURL(t *testing.T) {
	m := newTestManager()

	_, err := m.Submit("ftp://example.com/repo", models.ModeLocal)
	require.Error(t, err)

	var vErr *repourl.ValidationError
	assert.True(t, errors.As(err, &vErr), "malformed URLs must fail synchronously, before any job exists")
}

func TestManagerSubmitRejectsRemoteWithoutSlug(t *testing.T) {
	m := newTestManager()

	_, err := m.Submit("https://github.com", models.ModeRemote)
	assert.Error(t, err)
}

func TestManagerSubmitCreatesPollableJob(t *testing.T) {
	m := newTestManager()

	job, err := m.Submit("https://github.com/acme/demo.git", models.ModeLocal)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	snap, ok := m.Status(job.ID)
	require.True(t, ok)
	assert.Contains(t, []models.JobStatus{
		models.StatusPending, models.StatusRunning, models.StatusFailed,
	}, snap.Status)
}

func TestManagerStatusUnknownJob(t *testing.T) {
	m := newTestManager()
	_, ok := m.Status("nope")
	assert.False(t, ok)
}
