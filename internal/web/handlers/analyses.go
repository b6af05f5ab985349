package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/PabloViniegra/how-are-u/internal/analysis"
	"github.com/PabloViniegra/how-are-u/internal/beautyapi"
	"github.com/PabloViniegra/how-are-u/internal/config"
	"github.com/PabloViniegra/how-are-u/internal/constants"
	"github.com/PabloViniegra/how-are-u/internal/logging"
	"github.com/PabloViniegra/how-are-u/internal/store"
	"github.com/PabloViniegra/how-are-u/internal/upload"
)

// AnalysesHandler serves the analysis API: uploads run as background jobs,
// summaries and the history are proxied through an analyzer.
type AnalysesHandler struct {
	config     *config.Config
	client     analysis.Client
	jobManager *JobManager

	// history backs the list endpoint so statistics are computed over the
	// last loaded list.
	history *analysis.Analyzer
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(cfg *config.Config, client analysis.Client, jm *JobManager) *AnalysesHandler {
	return &AnalysesHandler{
		config:     cfg,
		client:     client,
		jobManager: jm,
		history:    analysis.New(client, nil, nil),
	}
}

// HistoryResponse is the body of the list endpoint.
type HistoryResponse struct {
	Analyses []beautyapi.Analysis `json:"analyses"`
	Recent   []beautyapi.Analysis `json:"recent"`
	Stats    store.AnalysisStats  `json:"stats"`
}

// Upload accepts a multipart image in the "file" field and starts an
// analysis job. Invalid files are rejected inline.
func (h *AnalysesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadRequestSize)
	if err := r.ParseMultipartForm(constants.MultipartMemory); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	files := r.MultipartForm.File[constants.UploadFieldName]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no file provided")
		return
	}

	file := upload.FromMultipart(files[0])
	if err := upload.Validate(file); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The multipart temp files are removed when the request ends.
	data, err := file.ReadAll()
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	file = upload.NewBytesFile(file.Name, file.Type, data)

	h.jobManager.PruneFinished(time.Now().Add(-constants.JobRetention))

	jobID := uuid.New().String()
	job := h.jobManager.CreateJob(jobID, file.Name, analysis.New(h.client, nil, nil))

	logging.FromContext(r.Context()).Info("analysis job created",
		"job_id", jobID, "file", sanitizeForLog(file.Name), "size", file.Size)

	go h.runAnalysisJob(job, file)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id":    jobID,
		"file_name": file.Name,
		"status":    string(JobStatusPending),
	})
}

// List returns the analysis history with its statistics.
func (h *AnalysesHandler) List(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.history.RefreshAnalyses(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load analyses", "error", err)
		respondError(w, http.StatusBadGateway, analysis.MsgListFailed)
		return
	}

	history := h.history.Analyses()
	if analyses == nil {
		analyses = []beautyapi.Analysis{}
	}
	respondJSON(w, http.StatusOK, HistoryResponse{
		Analyses: analyses,
		Recent:   history.RecentAnalyses(),
		Stats:    history.Stats(),
	})
}

// Get returns one analysis.
func (h *AnalysesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing analysis ID")
		return
	}

	result, err := analysis.New(h.client, nil, nil).LoadSummary(r.Context(), id)
	if err != nil {
		status, message := summaryError(err)
		if status >= http.StatusInternalServerError {
			logging.FromContext(r.Context()).Error("failed to load analysis", "id", sanitizeForLog(id), "error", err)
		}
		respondError(w, status, message)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// summaryError maps a fetch failure to an HTTP status and message.
func summaryError(err error) (int, string) {
	switch {
	case beautyapi.IsNotFoundError(err), errors.Is(err, beautyapi.ErrInvalidID):
		return http.StatusNotFound, analysis.MsgNotFound
	case errors.Is(err, beautyapi.ErrTimeout):
		return http.StatusGatewayTimeout, analysis.MsgTimeout
	case errors.Is(err, beautyapi.ErrNetwork):
		return http.StatusBadGateway, analysis.MsgNetwork
	default:
		return http.StatusBadGateway, analysis.MsgFetchFailed
	}
}

// Status returns the state of an analysis job.
func (h *AnalysesHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	job := h.jobManager.GetJob(jobID)
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}

	respondJSON(w, http.StatusOK, job.View())
}

// Events streams job events via SSE
func (h *AnalysesHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r,
		func(id string) SSEJob {
			job := h.jobManager.GetJob(id)
			if job == nil {
				return nil
			}
			return job
		},
		func(job SSEJob) any {
			return job.(*AnalysisJob).View()
		},
	)
}

// Cancel aborts a pending or running job. A finished job is removed instead.
func (h *AnalysesHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "missing job ID")
		return
	}

	job := h.jobManager.GetJob(jobID)
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}

	if isJobTerminal(job.GetStatus()) {
		h.jobManager.DeleteJob(jobID)
		respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": job.Cancel()})
}

// runAnalysisJob uploads the file on the job's analyzer and relays the
// analyzer's store events to the job listeners.
func (h *AnalysesHandler) runAnalysisJob(job *AnalysisJob, file *upload.File) {
	if !job.setRunning() {
		job.SendEvent(job.finish(JobStatusCancelled, nil, "", analysis.MessageCancelled))
		return
	}

	analyses := job.analyzer.Analyses().AddListener()
	global := job.analyzer.Global().AddListener()
	relayed := make(chan struct{})
	go func() {
		defer close(relayed)
		relayEvents(job, analyses, global)
	}()

	result, err := job.analyzer.UploadImage(job.ctx, file)

	job.analyzer.Analyses().RemoveListener(analyses)
	job.analyzer.Global().RemoveListener(global)
	<-relayed

	var event JobEvent
	switch {
	case err == nil:
		event = job.finish(JobStatusCompleted, result, h.config.Web.ShareURL(result.ID), "")
	case errors.Is(err, context.Canceled):
		event = job.finish(JobStatusCancelled, nil, "", analysis.MessageCancelled)
	default:
		event = job.finish(JobStatusFailed, nil, "", fmt.Sprintf("analysis failed: %v", err))
	}
	job.SendEvent(event)
}

// relayEvents forwards events from both stores until both channels close.
func relayEvents(job *AnalysisJob, analyses, global <-chan store.Event) {
	for analyses != nil || global != nil {
		var (
			event store.Event
			ok    bool
		)
		select {
		case event, ok = <-analyses:
			if !ok {
				analyses = nil
				continue
			}
		case event, ok = <-global:
			if !ok {
				global = nil
				continue
			}
		}
		job.apply(event)
		job.SendEvent(event)
	}
}
