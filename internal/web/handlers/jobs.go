package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/PabloViniegra/how-are-u/internal/analysis"
	"github.com/PabloViniegra/how-are-u/internal/beautyapi"
	"github.com/PabloViniegra/how-are-u/internal/constants"
	"github.com/PabloViniegra/how-are-u/internal/progress"
	"github.com/PabloViniegra/how-are-u/internal/store"
)

// JobStatus represents the status of an async job.
type JobStatus string

// JobStatus constants define the lifecycle states of an async job.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job event types sent on top of the store events relayed from the analyzer.
const (
	EventJobCompleted = "completed"
	EventJobFailed    = "job_error"
	EventJobCancelled = "cancelled"
)

// JobEvent represents an event from a job.
type JobEvent = store.Event

// AnalysisJob is one image upload running in the background. Each job owns
// its analyzer so progress and notifications never leak between uploads.
type AnalysisJob struct {
	store.Broadcaster

	analyzer *analysis.Analyzer
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	mu            sync.RWMutex
	id            string
	fileName      string
	status        JobStatus
	progress      int
	err           string
	startedAt     time.Time
	completedAt   *time.Time
	result        *beautyapi.Analysis
	shareURL      string
	notifications []store.Notification
	final         JobEvent
}

// JobView is the JSON form of an AnalysisJob.
type JobView struct {
	ID            string               `json:"id"`
	FileName      string               `json:"file_name"`
	Status        JobStatus            `json:"status"`
	Progress      int                  `json:"progress"`
	Error         string               `json:"error,omitempty"`
	StartedAt     time.Time            `json:"started_at"`
	CompletedAt   *time.Time           `json:"completed_at,omitempty"`
	Result        *beautyapi.Analysis  `json:"result,omitempty"`
	ShareURL      string               `json:"share_url,omitempty"`
	Notifications []store.Notification `json:"notifications,omitempty"`
}

// View returns a consistent copy of the job state.
func (j *AnalysisJob) View() JobView {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return JobView{
		ID:            j.id,
		FileName:      j.fileName,
		Status:        j.status,
		Progress:      j.progress,
		Error:         j.err,
		StartedAt:     j.startedAt,
		CompletedAt:   j.completedAt,
		Result:        j.result,
		ShareURL:      j.shareURL,
		Notifications: append([]store.Notification(nil), j.notifications...),
	}
}

// GetStatus returns the current job status (implements SSEJob).
func (j *AnalysisJob) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Done is closed once the job reached a terminal status.
func (j *AnalysisJob) Done() <-chan struct{} {
	return j.done
}

// TerminalEvent returns the event that ended the job. It is only set once
// Done is closed.
func (j *AnalysisJob) TerminalEvent() JobEvent {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.final
}

// Cancel aborts the upload. A pending job never starts; a running one turns
// cancelled once the analyzer has released it. It reports false for a job
// that already finished.
func (j *AnalysisJob) Cancel() bool {
	if isJobTerminal(j.GetStatus()) {
		return false
	}
	j.cancel()
	j.analyzer.CancelUpload()
	return true
}

// setRunning moves a pending job to running. It reports false when the job
// was cancelled before it started.
func (j *AnalysisJob) setRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.ctx.Err() != nil {
		return false
	}
	j.status = JobStatusRunning
	return true
}

// apply folds a relayed store event into the job state.
func (j *AnalysisJob) apply(event store.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch event.Type {
	case store.EventProgress:
		if p, ok := event.Data.(progress.UploadProgress); ok {
			j.progress = p.Percentage
		}
	case store.EventNotification:
		if n, ok := event.Data.(store.Notification); ok {
			j.notifications = append(j.notifications, n)
		}
	case store.EventError:
		j.err = event.Message
	}
}

// finish records the final state, closes Done and returns the terminal
// event to send. It must be called once per job.
func (j *AnalysisJob) finish(status JobStatus, result *beautyapi.Analysis, shareURL, message string) JobEvent {
	now := time.Now()
	j.mu.Lock()
	defer func() {
		j.mu.Unlock()
		j.cancel()
		close(j.done)
	}()
	j.status = status
	j.completedAt = &now
	switch status {
	case JobStatusCompleted:
		j.progress = constants.ProgressComplete
		j.result = result
		j.shareURL = shareURL
		j.final = JobEvent{Type: EventJobCompleted, Data: map[string]any{"result": result, "share_url": shareURL}}
	case JobStatusCancelled:
		j.final = JobEvent{Type: EventJobCancelled, Message: message}
	default:
		if j.err == "" {
			j.err = message
		}
		j.final = JobEvent{Type: EventJobFailed, Message: j.err}
	}
	return j.final
}

// SSEJob is the interface required by streamSSEEvents to stream job events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() JobStatus
	Done() <-chan struct{}
	TerminalEvent() JobEvent
}

// JobManager manages async jobs.
type JobManager struct {
	jobs map[string]*AnalysisJob
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*AnalysisJob),
	}
}

// CreateJob registers a pending job that will run on analyzer.
func (m *JobManager) CreateJob(id, fileName string, analyzer *analysis.Analyzer) *AnalysisJob {
	ctx, cancel := context.WithCancel(context.Background())
	job := &AnalysisJob{
		analyzer:  analyzer,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		id:        id,
		fileName:  fileName,
		status:    JobStatusPending,
		startedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[id] = job
	m.mu.Unlock()

	return job
}

// GetJob retrieves a job by ID.
func (m *JobManager) GetJob(id string) *AnalysisJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// DeleteJob removes a job.
func (m *JobManager) DeleteJob(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, id)
}

// ListJobs returns all jobs.
func (m *JobManager) ListJobs() []*AnalysisJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*AnalysisJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// PruneFinished drops terminal jobs completed before cutoff and returns
// how many were removed.
func (m *JobManager) PruneFinished(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, job := range m.jobs {
		view := job.View()
		if isJobTerminal(view.Status) && view.CompletedAt != nil && view.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}
