package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a generation job in a transport-friendly format.
type Job struct {
	ID              int64   `json:"id"`
	Album           string  `json:"album"`
	FileType        string  `json:"fileType"`
	Outreach        string  `json:"outreach"`
	StyleIntensity  int     `json:"styleIntensity"`
	ColorVariation  int     `json:"colorVariation"`
	LayoutVariation int     `json:"layoutVariation"`
	Notes           string  `json:"notes"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"createdAt,omitempty"`
	OutputPath      *string `json:"outputPath"`
	// PreviewPath is the output for done jobs, otherwise the album cover.
	PreviewPath *string `json:"previewPath,omitempty"`
}

// JobListResponse splits jobs into the queued and done columns, each
// ordered newest first.
type JobListResponse struct {
	Queued []Job `json:"queued"`
	Done   []Job `json:"done"`
}

// CreateJobRequest is the payload of the create operation. Omitted sliders
// default to the midpoint.
type CreateJobRequest struct {
	Album           string `json:"album"`
	Outreach        string `json:"outreach"`
	StyleIntensity  *int   `json:"styleIntensity,omitempty"`
	ColorVariation  *int   `json:"colorVariation,omitempty"`
	LayoutVariation *int   `json:"layoutVariation,omitempty"`
	Notes           string `json:"notes"`
}

// RegenerateRequest optionally carries replacement notes.
type RegenerateRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// CompletionRequest reports the output produced by the generation pipeline.
type CompletionRequest struct {
	OutputPath *string `json:"outputPath"`
}

// UploadResponse summarizes one ingestion batch.
type UploadResponse struct {
	Handled      int           `json:"handled"`
	Skipped      int           `json:"skipped"`
	ActiveAlbum  string        `json:"activeAlbum,omitempty"`
	Notice       string        `json:"notice"`
	SkippedFiles []SkippedFile `json:"skippedFiles"`
}

// SkippedFile names a file that was not stored and why.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// UploadRecord is one upload log entry.
type UploadRecord struct {
	Album        string  `json:"album"`
	StoredPath   string  `json:"storedPath"`
	OriginalPath string  `json:"originalPath"`
	MIME         string  `json:"mime"`
	DeclaredType string  `json:"declaredType"`
	DeclaredMIME *string `json:"declaredMime"`
	CreatedAt    string  `json:"createdAt,omitempty"`
}

// UploadHistoryResponse wraps the upload log.
type UploadHistoryResponse struct {
	Records []UploadRecord `json:"records"`
}

// AlbumSummary describes one album in the listing.
type AlbumSummary struct {
	Name       string  `json:"name"`
	FileType   string  `json:"fileType"`
	ImageCount int     `json:"imageCount"`
	Preview    *string `json:"preview,omitempty"`
}

// AlbumsResponse lists every album plus the images of the selected one.
type AlbumsResponse struct {
	Albums   []AlbumSummary `json:"albums"`
	Selected string         `json:"selected"`
	Images   []string       `json:"images"`
	Preview  *string        `json:"preview"`
}

// NoticeResponse acknowledges an action with a user-facing message.
type NoticeResponse struct {
	Notice string `json:"notice"`
}

// CheckResult mirrors one preflight check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse aggregates workspace information.
type StatusResponse struct {
	JobCounts    map[string]int `json:"jobCounts"`
	UploadCount  int            `json:"uploadCount"`
	AlbumCount   int            `json:"albumCount"`
	UploadsDir   string         `json:"uploadsDir"`
	DataDir      string         `json:"dataDir"`
	StoreBackend string         `json:"storeBackend"`
	StoreLock    string         `json:"storeLock"`
	Checks       []CheckResult  `json:"checks"`
}

// ErrorResponse is the body of every failed HTTP request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running            bool           `json:"running"`
	PID                int            `json:"pid"`
	LockFilePath       string         `json:"lockFilePath"`
	PendingCompletions int            `json:"pendingCompletions"`
	Workspace          StatusResponse `json:"workspace"`
}
