// Package compute runs independent aspect searches concurrently on a
// bounded worker pool. Searches share no mutable state beyond the
// engine's mutex-guarded cache, so they parallelize without coordination.
package compute

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/astrokairos/aspectarian/pkg/aspect/window"
	"github.com/astrokairos/aspectarian/pkg/catalog"
)

// JobStatus represents the lifecycle state of a search job
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// JobType represents the kind of search a job performs
type JobType string

const (
	JobTypeWindow   JobType = "window"
	JobTypeTimeline JobType = "timeline"
)

// SearchRequest holds the parameters of one search job. AroundJD and
// HalfWidthDays drive a window search; StartJD/EndJD and Aspects drive a
// timeline search.
type SearchRequest struct {
	Type          JobType          `json:"type"`
	Body1         catalog.Body     `json:"body1"`
	Body2         catalog.Body     `json:"body2"`
	Aspect        catalog.Aspect   `json:"aspect,omitempty"`
	Aspects       []catalog.Aspect `json:"aspects,omitempty"`
	AroundJD      float64          `json:"around_jd,omitempty"`
	HalfWidthDays float64          `json:"half_width_days,omitempty"`
	StartJD       float64          `json:"start_jd,omitempty"`
	EndJD         float64          `json:"end_jd,omitempty"`
	Options       window.Options   `json:"options"`
}

// SearchJob is one queued or finished search
type SearchJob struct {
	ID      string        `json:"id"`
	Request SearchRequest `json:"request"`
	Status  JobStatus     `json:"status"`
	Windows []window.Window `json:"windows,omitempty"`
	Error   string        `json:"error,omitempty"`

	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Duration    string     `json:"duration,omitempty"`

	ctx        context.Context
	cancelFunc context.CancelFunc
}

// JobManager schedules search jobs across a fixed worker pool
type JobManager struct {
	finder     *window.Finder
	jobs       map[string]*SearchJob
	jobCounter int64
	maxJobs    int
	mu         sync.RWMutex

	queue   chan *SearchJob
	workers int
	wg      sync.WaitGroup
}

// NewJobManager creates a manager and starts its workers
func NewJobManager(finder *window.Finder, maxJobs, workers int) *JobManager {
	if workers < 1 {
		workers = 1
	}
	jm := &JobManager{
		finder:  finder,
		jobs:    make(map[string]*SearchJob),
		maxJobs: maxJobs,
		queue:   make(chan *SearchJob, maxJobs),
		workers: workers,
	}
	jm.startWorkers()
	return jm
}

func (jm *JobManager) startWorkers() {
	for i := 0; i < jm.workers; i++ {
		jm.wg.Add(1)
		go jm.worker()
	}
}

// worker drains the queue until Shutdown closes it
func (jm *JobManager) worker() {
	defer jm.wg.Done()
	for job := range jm.queue {
		jm.processJob(job)
	}
}

// SubmitJob validates and queues a search. The returned job is live;
// poll GetJob or WaitJob for completion.
func (jm *JobManager) SubmitJob(req SearchRequest) (*SearchJob, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	jm.mu.Lock()
	defer jm.mu.Unlock()

	if len(jm.jobs) >= jm.maxJobs {
		return nil, fmt.Errorf("maximum concurrent jobs reached (%d)", jm.maxJobs)
	}

	jm.jobCounter++
	ctx, cancel := context.WithCancel(context.Background())
	job := &SearchJob{
		ID:          fmt.Sprintf("%s-%d", req.Type, jm.jobCounter),
		Request:     req,
		Status:      StatusQueued,
		SubmittedAt: time.Now(),
		ctx:         ctx,
		cancelFunc:  cancel,
	}
	jm.jobs[job.ID] = job

	select {
	case jm.queue <- job:
	default:
		delete(jm.jobs, job.ID)
		cancel()
		return nil, fmt.Errorf("job queue full (%d)", jm.maxJobs)
	}
	return job, nil
}

func validateRequest(req SearchRequest) error {
	switch req.Type {
	case JobTypeWindow:
		if req.HalfWidthDays <= 0 {
			return fmt.Errorf("invalid half width: %g days", req.HalfWidthDays)
		}
	case JobTypeTimeline:
		if req.EndJD <= req.StartJD {
			return fmt.Errorf("invalid range: [%g, %g]", req.StartJD, req.EndJD)
		}
		if len(req.Aspects) == 0 {
			return fmt.Errorf("timeline request needs at least one aspect")
		}
	default:
		return fmt.Errorf("unsupported job type: %s", req.Type)
	}
	return nil
}

// processJob runs one search, honoring cancellation before the search
// starts. A running search is not interruptible; its loops are bounded
// by iteration caps, so a cancelled running job finishes its computation
// and then reports cancelled.
func (jm *JobManager) processJob(job *SearchJob) {
	defer func() {
		if r := recover(); r != nil {
			jm.finishJob(job, StatusFailed, fmt.Sprintf("job panicked: %v", r))
		}
	}()

	select {
	case <-job.ctx.Done():
		jm.finishJob(job, StatusCancelled, "")
		return
	default:
	}

	jm.mu.Lock()
	job.Status = StatusRunning
	now := time.Now()
	job.StartedAt = &now
	jm.mu.Unlock()

	var windows []window.Window
	var err error
	switch job.Request.Type {
	case JobTypeWindow:
		var w window.Window
		w, err = jm.finder.FindWindow(
			job.Request.Body1, job.Request.Body2, job.Request.Aspect,
			job.Request.AroundJD, job.Request.HalfWidthDays, job.Request.Options)
		if err == nil {
			windows = []window.Window{w}
		}
	case JobTypeTimeline:
		windows, err = jm.finder.Timeline(
			job.Request.Body1, job.Request.Body2, job.Request.Aspects,
			job.Request.StartJD, job.Request.EndJD, job.Request.Options)
	}

	switch {
	case job.ctx.Err() != nil:
		jm.finishJob(job, StatusCancelled, "")
	case err != nil:
		jm.finishJob(job, StatusFailed, err.Error())
	default:
		jm.mu.Lock()
		job.Windows = windows
		jm.mu.Unlock()
		jm.finishJob(job, StatusCompleted, "")
	}
}

func (jm *JobManager) finishJob(job *SearchJob, status JobStatus, errMsg string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job.Status = status
	job.Error = errMsg
	now := time.Now()
	job.CompletedAt = &now
	if job.StartedAt != nil {
		job.Duration = now.Sub(*job.StartedAt).String()
	}
	job.cancelFunc()
}

// GetJob retrieves a job by ID
func (jm *JobManager) GetJob(jobID string) (*SearchJob, error) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	return job, nil
}

// CancelJob cancels a queued or running job
func (jm *JobManager) CancelJob(jobID string) error {
	jm.mu.RLock()
	job, exists := jm.jobs[jobID]
	jm.mu.RUnlock()
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	jm.mu.Lock()
	done := job.Status == StatusCompleted || job.Status == StatusFailed || job.Status == StatusCancelled
	jm.mu.Unlock()
	if done {
		return fmt.Errorf("job already finished: %s", jobID)
	}
	job.cancelFunc()
	return nil
}

// WaitJob blocks until the job finishes or ctx expires
func (jm *JobManager) WaitJob(ctx context.Context, jobID string) (*SearchJob, error) {
	job, err := jm.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		jm.mu.RLock()
		status := job.Status
		jm.mu.RUnlock()
		switch status {
		case StatusCompleted, StatusFailed, StatusCancelled:
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ListJobs returns all jobs, optionally filtered by status, newest first
func (jm *JobManager) ListJobs(status JobStatus) []*SearchJob {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	var out []*SearchJob
	for _, job := range jm.jobs {
		if status != "" && job.Status != status {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out
}

// Shutdown stops accepting jobs and waits for running work to drain
func (jm *JobManager) Shutdown() {
	close(jm.queue)
	jm.wg.Wait()
}
