// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Upload validation constants
const (
	// MaxFileSize is the maximum accepted image size in bytes (10MB)
	MaxFileSize = 10 << 20

	// MIMEJPEG, MIMEPNG and MIMEWebP are the accepted image content types
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWebP = "image/webp"
)

// AcceptedImageTypes lists the MIME types the analysis API accepts.
var AcceptedImageTypes = []string{MIMEJPEG, MIMEPNG, MIMEWebP}

// Preview constants
const (
	// DefaultPreviewSize is the maximum dimension (width or height) of a preview thumbnail
	DefaultPreviewSize = 512
)

// Progress constants
const (
	// UploadProgressCeiling is the share of the overall progress bar covered by
	// the real network upload. The remainder is the simulated analysis phase.
	UploadProgressCeiling = 70

	// ProgressComplete is the percentage reported when the analysis is done
	ProgressComplete = 100

	// SimulationSteps is the number of intermediate analysis progress events
	SimulationSteps = 20

	// SimulationMinDuration and SimulationMaxDuration bound the total length
	// of the simulated analysis phase
	SimulationMinDuration = 3 * time.Second
	SimulationMaxDuration = 5 * time.Second

	// SimulationStartDelay is the pause between the last upload byte and the
	// first simulated event
	SimulationStartDelay = 200 * time.Millisecond
)

// API constants
const (
	// AnalysisEndpoint is the collection endpoint for uploads and listing
	AnalysisEndpoint = "api/analysis/"

	// AnalysisItemEndpoint is the prefix for single-analysis endpoints
	AnalysisItemEndpoint = "api/analysis"

	// UploadFieldName is the multipart field the API expects the image in
	UploadFieldName = "file"

	// DefaultUploadTimeout bounds the whole upload-and-analyze exchange
	DefaultUploadTimeout = 2 * time.Minute
)

// Notification constants
const (
	// DefaultNotificationDuration is how long a notification stays visible
	DefaultNotificationDuration = 5 * time.Second

	// ErrorNotificationDuration keeps error notifications on screen longer
	ErrorNotificationDuration = 8 * time.Second
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// Score constants
const (
	// RecentAnalysesLimit is the number of feasible analyses shown as recent
	RecentAnalysesLimit = 5

	// ExcellentScore, GoodScore and AverageScore are the lower bounds of the
	// score distribution bands. Scores below AverageScore are poor.
	ExcellentScore = 8.0
	GoodScore      = 6.0
	AverageScore   = 4.0
)

// Web server constants
const (
	// MaxUploadRequestSize caps the multipart request body. It is larger than
	// MaxFileSize so oversized images still reach validation and get a
	// proper message.
	MaxUploadRequestSize = 32 << 20

	// MultipartMemory is how much of a multipart form is kept in memory
	MultipartMemory = 12 << 20

	// JobRetention is how long a finished upload job stays queryable
	JobRetention = 15 * time.Minute

	// ServerShutdownTimeout bounds the graceful shutdown of the web server
	ServerShutdownTimeout = 30 * time.Second
)
