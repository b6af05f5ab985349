// Package analysis drives the upload-and-analyze workflow: it calls the API
// client, feeds progress and results into the stores, maps failures to
// user-facing Spanish messages and raises notifications.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/PabloViniegra/how-are-u/internal/beautyapi"
	"github.com/PabloViniegra/how-are-u/internal/constants"
	"github.com/PabloViniegra/how-are-u/internal/progress"
	"github.com/PabloViniegra/how-are-u/internal/store"
	"github.com/PabloViniegra/how-are-u/internal/upload"
)

var (
	// ErrAnalysisInProgress is returned when an upload is started while
	// another one has not finished.
	ErrAnalysisInProgress = errors.New("an analysis is already in progress")
	// ErrInvalidID is returned for an empty analysis id.
	ErrInvalidID = errors.New("invalid analysis id")
	// ErrNothingToRetry is returned by Retry before any fetch was made.
	ErrNothingToRetry = errors.New("no analysis fetch to retry")
)

// Client is the subset of the API client the analyzer uses.
type Client interface {
	UploadImage(ctx context.Context, file *upload.File, onProgress func(progress.UploadProgress)) (*beautyapi.Analysis, error)
	GetAnalysis(ctx context.Context, id string) (*beautyapi.Analysis, error)
	GetAnalyses(ctx context.Context) ([]beautyapi.Analysis, error)
}

// Analyzer coordinates the API client with an AnalysisStore and a
// GlobalStore. At most one upload runs at a time.
type Analyzer struct {
	client   Client
	analyses *store.AnalysisStore
	global   *store.GlobalStore

	// mu serializes store updates coming from an upload with cancellation.
	// An upload only touches the stores while its generation is current.
	mu         sync.Mutex
	generation uint64
	pending    bool
	cancel     context.CancelFunc
	lastFetch  func(context.Context) (*beautyapi.Analysis, error)
}

// New creates an Analyzer. Nil stores are replaced by empty ones.
func New(client Client, analyses *store.AnalysisStore, global *store.GlobalStore) *Analyzer {
	if analyses == nil {
		analyses = store.NewAnalysisStore()
	}
	if global == nil {
		global = store.NewGlobalStore()
	}
	return &Analyzer{
		client:   client,
		analyses: analyses,
		global:   global,
	}
}

// Analyses returns the analysis store.
func (a *Analyzer) Analyses() *store.AnalysisStore {
	return a.analyses
}

// Global returns the global store.
func (a *Analyzer) Global() *store.GlobalStore {
	return a.global
}

// UploadImage uploads file and records the outcome in the stores.
//
// On success the analysis is prepended to the list and made current; a
// feasible result raises a success notification. On failure the global
// error is set to a user-facing message and an error notification is shown
// for 8 seconds. The returned error is the raw client error.
func (a *Analyzer) UploadImage(ctx context.Context, file *upload.File) (*beautyapi.Analysis, error) {
	a.mu.Lock()
	if a.pending {
		a.mu.Unlock()
		return nil, ErrAnalysisInProgress
	}
	a.generation++
	gen := a.generation
	ctx, cancel := context.WithCancel(ctx)
	a.pending = true
	a.cancel = cancel
	a.analyses.SetAnalyzing(true)
	a.analyses.ResetUploadProgress()
	a.mu.Unlock()
	defer cancel()

	result, err := a.client.UploadImage(ctx, file, func(p progress.UploadProgress) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.generation == gen {
			a.analyses.SetUploadProgress(p)
		}
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generation != gen {
		// Cancelled; the stores already moved on.
		if err == nil {
			err = context.Canceled
		}
		return nil, err
	}
	a.pending = false
	a.cancel = nil

	if err != nil {
		a.uploadFailed(file, err)
	} else {
		a.uploadSucceeded(result)
	}

	if current := a.analyses.CurrentAnalysis(); current != nil && current.Status != "" {
		a.analyses.SetAnalyzing(false)
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *Analyzer) uploadSucceeded(result *beautyapi.Analysis) {
	a.analyses.AddAnalysis(*result)
	a.analyses.SetCurrentAnalysis(result)

	if !result.IsFeasible() {
		a.analyses.SetAnalyzing(false)
		return
	}
	a.global.AddNotification(TitleCompleted, MessageCompleted, store.WithType(store.NotificationSuccess))
}

func (a *Analyzer) uploadFailed(file *upload.File, err error) {
	a.analyses.SetAnalyzing(false)
	a.analyses.ResetUploadProgress()

	if errors.Is(err, context.Canceled) {
		slog.Info("upload cancelled", "file", file.Name)
		return
	}

	slog.Error("upload failed", "file", file.Name, "error", err)
	message := UserMessage(err)
	a.global.SetError(message)
	a.global.AddNotification(TitleFailed, message,
		store.WithType(store.NotificationError),
		store.WithDuration(constants.ErrorNotificationDuration),
	)
}

// CancelUpload abandons the running upload. The request is aborted and any
// progress or result that still arrives for it is discarded. It reports
// whether an upload was running.
func (a *Analyzer) CancelUpload() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.pending {
		return false
	}
	a.generation++
	a.pending = false
	a.cancel()
	a.cancel = nil

	a.analyses.SetAnalyzing(false)
	a.analyses.ResetUploadProgress()
	a.global.AddNotification(TitleCancelled, MessageCancelled)
	return true
}

// IsUploading reports whether an upload is running.
func (a *Analyzer) IsUploading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// FetchAnalysis refreshes one analysis. The cached copy in the list and the
// current analysis are replaced when their id matches; a feasible result
// raises a notification. On failure the global error is set.
func (a *Analyzer) FetchAnalysis(ctx context.Context, id string) (*beautyapi.Analysis, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	a.remember(func(ctx context.Context) (*beautyapi.Analysis, error) {
		return a.FetchAnalysis(ctx, id)
	})
	return a.fetch(ctx, id)
}

func (a *Analyzer) fetch(ctx context.Context, id string) (*beautyapi.Analysis, error) {
	result, err := a.client.GetAnalysis(ctx, id)
	if err != nil {
		slog.Error("fetch analysis failed", "id", id, "error", err)
		message := err.Error()
		if message == "" {
			message = MsgFetchFailed
		}
		a.global.SetError(message)
		return nil, err
	}

	a.analyses.ReplaceAnalysis(*result)
	if current := a.analyses.CurrentAnalysis(); current != nil && current.ID == result.ID {
		a.analyses.SetCurrentAnalysis(result)
	}
	if result.IsFeasible() {
		a.global.AddNotification(TitleUpdated, MessageUpdated, store.WithType(store.NotificationSuccess))
	}
	return result, nil
}

// LoadSummary loads an analysis for the read-only shared view and makes it
// the current analysis.
func (a *Analyzer) LoadSummary(ctx context.Context, id string) (*beautyapi.Analysis, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	a.remember(func(ctx context.Context) (*beautyapi.Analysis, error) {
		return a.LoadSummary(ctx, id)
	})

	a.global.SetLoading(true)
	defer a.global.SetLoading(false)
	a.global.ClearError()

	result, err := a.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	a.analyses.SetCurrentAnalysis(result)
	return result, nil
}

// Retry repeats the last FetchAnalysis or LoadSummary call with the same id.
func (a *Analyzer) Retry(ctx context.Context) (*beautyapi.Analysis, error) {
	a.mu.Lock()
	last := a.lastFetch
	a.mu.Unlock()
	if last == nil {
		return nil, ErrNothingToRetry
	}
	return last(ctx)
}

func (a *Analyzer) remember(f func(context.Context) (*beautyapi.Analysis, error)) {
	a.mu.Lock()
	a.lastFetch = f
	a.mu.Unlock()
}

// RefreshAnalyses reloads the analysis list. The cached list is only
// replaced while no upload is in progress.
func (a *Analyzer) RefreshAnalyses(ctx context.Context) ([]beautyapi.Analysis, error) {
	a.global.SetLoading(true)
	defer a.global.SetLoading(false)

	list, err := a.client.GetAnalyses(ctx)
	if err != nil {
		slog.Error("fetch analyses failed", "error", err)
		message := err.Error()
		if message == "" {
			message = MsgListFailed
		}
		a.global.SetError(message)
		return nil, err
	}

	if !a.analyses.IsAnalyzing() {
		a.analyses.SetAnalyses(list)
	}
	return list, nil
}
