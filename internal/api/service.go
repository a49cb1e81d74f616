package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"stylesync/internal/album"
	"stylesync/internal/config"
	"stylesync/internal/jobs"
	"stylesync/internal/logging"
	"stylesync/internal/preflight"
	"stylesync/internal/recordstore"
	"stylesync/internal/upload"
)

// Observer receives ingestion and job lifecycle events.
type Observer interface {
	upload.Observer
	jobs.Observer
}

// Option customizes a Service.
type Option func(*options)

type options struct {
	observer    Observer
	completions chan<- jobs.CompletionEvent
	uploadOpts  []upload.Option
	jobOpts     []jobs.Option
}

// WithObserver forwards ingestion and lifecycle events to o.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// WithCompletionQueue makes SubmitCompletion enqueue events on ch instead of
// applying them inline. The owner of ch is expected to run jobs.Store.Consume.
func WithCompletionQueue(ch chan<- jobs.CompletionEvent) Option {
	return func(opts *options) {
		opts.completions = ch
	}
}

// WithUploadOptions passes extra options to the upload ingestor.
func WithUploadOptions(uploadOpts ...upload.Option) Option {
	return func(opts *options) {
		opts.uploadOpts = append(opts.uploadOpts, uploadOpts...)
	}
}

// WithJobOptions passes extra options to the job store.
func WithJobOptions(jobOpts ...jobs.Option) Option {
	return func(opts *options) {
		opts.jobOpts = append(opts.jobOpts, jobOpts...)
	}
}

// Service implements every user-facing operation on top of the album
// indexer, the upload ingestor, and the job store.
type Service struct {
	cfg         *config.Config
	backend     recordstore.Backend
	albums      *album.Indexer
	ingestor    *upload.Ingestor
	jobs        *jobs.Store
	completions chan<- jobs.CompletionEvent
	logger      *slog.Logger
}

// Open wires the stores selected by cfg. Close releases the backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("api: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}
	backend, err := recordstore.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	jobLocker, err := recordstore.NewLocker(cfg, config.JobsCollection)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	uploadLocker, err := recordstore.NewLocker(cfg, config.UploadsCollection)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	albums := album.NewIndexer(cfg.Paths.UploadsDir)
	uploadLog := recordstore.New[upload.Record](config.UploadsCollection, backend, uploadLocker, logger)
	jobRecords := recordstore.New[jobs.Job](config.JobsCollection, backend, jobLocker, logger)

	uploadOpts := []upload.Option{upload.WithLimits(upload.Limits{
		MaxFileBytes:  cfg.Upload.MaxFileBytes,
		MaxBatchFiles: cfg.Upload.MaxBatchFiles,
	})}
	var jobOpts []jobs.Option
	if o.observer != nil {
		uploadOpts = append(uploadOpts, upload.WithObserver(o.observer))
		jobOpts = append(jobOpts, jobs.WithObserver(o.observer))
	}
	uploadOpts = append(uploadOpts, o.uploadOpts...)
	jobOpts = append(jobOpts, o.jobOpts...)

	return &Service{
		cfg:         cfg,
		backend:     backend,
		albums:      albums,
		ingestor:    upload.NewIngestor(cfg.Paths.UploadsDir, uploadLog, logger, uploadOpts...),
		jobs:        jobs.NewStore(jobRecords, albums, logger, jobOpts...),
		completions: o.completions,
		logger:      logging.NewComponentLogger(logger, "api"),
	}, nil
}

// Close releases the record store backend.
func (s *Service) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// Jobs exposes the job store, used by the daemon's completion consumer.
func (s *Service) Jobs() *jobs.Store {
	return s.jobs
}

// Config returns the configuration the service was opened with.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// UploadFolder ingests a batch of staged files.
func (s *Service) UploadFolder(ctx context.Context, files []upload.File, declaredType string) (UploadResponse, error) {
	declared, err := upload.ParseDeclaredType(declaredType)
	if err != nil {
		return UploadResponse{}, err
	}
	result, err := s.ingestor.Ingest(ctx, files, declared)
	if err != nil {
		return FromUploadResult(result), err
	}
	return FromUploadResult(result), nil
}

// UploadDirectory stages a local folder and ingests it. The folder name
// becomes the album.
func (s *Service) UploadDirectory(ctx context.Context, dir, declaredType string) (UploadResponse, error) {
	if _, err := upload.ParseDeclaredType(declaredType); err != nil {
		return UploadResponse{}, err
	}
	batch, err := upload.StageDirectory(ctx, dir, s.cfg.Paths.StagingDir)
	if err != nil {
		return UploadResponse{}, err
	}
	defer batch.Cleanup()
	return s.UploadFolder(ctx, batch.Files, declaredType)
}

// UploadHistory returns the upload log in insertion order.
func (s *Service) UploadHistory(ctx context.Context) (UploadHistoryResponse, error) {
	records, err := s.ingestor.History(ctx)
	if err != nil {
		return UploadHistoryResponse{}, err
	}
	resp := UploadHistoryResponse{Records: make([]UploadRecord, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, FromUploadRecord(rec))
	}
	return resp, nil
}

// ListAlbums lists every album and the images of the selected one. An empty
// selection picks the first album; an unknown album selects no images.
func (s *Service) ListAlbums(ctx context.Context, selected string) (AlbumsResponse, error) {
	if err := ctx.Err(); err != nil {
		return AlbumsResponse{}, err
	}
	if selected != "" {
		if err := album.ValidateName(selected); err != nil {
			return AlbumsResponse{}, &album.IndexingError{Op: "select album", Path: selected, Err: err}
		}
	}
	names, err := s.albums.ListAlbums()
	if err != nil {
		return AlbumsResponse{}, err
	}
	if selected == "" && len(names) > 0 {
		selected = names[0]
	}

	resp := AlbumsResponse{
		Albums:   make([]AlbumSummary, 0, len(names)),
		Selected: selected,
		Images:   []string{},
	}
	for _, name := range names {
		summary, err := s.albums.Summary(name)
		if err != nil {
			return AlbumsResponse{}, err
		}
		resp.Albums = append(resp.Albums, AlbumSummary{
			Name:       summary.Name,
			FileType:   string(summary.FileType),
			ImageCount: summary.ImageCount,
			Preview:    UploadURL(summary.FirstImage),
		})
		if name == selected {
			resp.Images = summary.Images
		}
	}
	if len(resp.Images) > 0 {
		resp.Preview = UploadURL(resp.Images[0])
	}
	return resp, nil
}

// CreateJob validates and enqueues a new job. Omitted sliders default to the
// midpoint.
func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (JobActionResult, error) {
	job, err := s.jobs.Create(ctx, jobs.CreateRequest{
		Album:           req.Album,
		Outreach:        req.Outreach,
		StyleIntensity:  sliderOrDefault(req.StyleIntensity),
		ColorVariation:  sliderOrDefault(req.ColorVariation),
		LayoutVariation: sliderOrDefault(req.LayoutVariation),
		Notes:           req.Notes,
	})
	if err != nil {
		return JobActionResult{}, err
	}
	dto := FromJob(job)
	return JobActionResult{
		ID:      job.ID,
		Outcome: JobCreated,
		Notice:  fmt.Sprintf("Job created for album “%s”.", job.Album),
		Job:     &dto,
	}, nil
}

// ListJobs returns the queued and done columns, newest first.
func (s *Service) ListJobs(ctx context.Context) (JobListResponse, error) {
	list, err := s.jobs.List(ctx)
	if err != nil {
		return JobListResponse{}, err
	}
	queued, done := jobs.Partition(list)
	covers := map[string]*string{}
	return JobListResponse{
		Queued: s.withPreviews(queued, covers),
		Done:   s.withPreviews(done, covers),
	}, nil
}

// ParseJobStatus maps a status filter onto a job status. An empty value
// selects every status and yields "".
func ParseJobStatus(value string) (jobs.Status, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	status, ok := jobs.ParseStatus(value)
	if !ok {
		return "", &jobs.ValidationError{Field: "status", Message: fmt.Sprintf("unknown job status %q (want queued or done)", value)}
	}
	return status, nil
}

// Only keeps the column for status and empties the other. An empty status
// keeps both.
func (r JobListResponse) Only(status jobs.Status) JobListResponse {
	switch status {
	case jobs.StatusQueued:
		r.Done = []Job{}
	case jobs.StatusDone:
		r.Queued = []Job{}
	}
	return r
}

func (s *Service) withPreviews(list []jobs.Job, covers map[string]*string) []Job {
	out := FromJobs(list)
	for i := range out {
		if out[i].OutputPath != nil {
			out[i].PreviewPath = copyString(out[i].OutputPath)
			continue
		}
		cover, ok := covers[out[i].Album]
		if !ok {
			first, found, err := s.albums.FirstImage(out[i].Album)
			if err != nil {
				s.logger.Debug("job cover unavailable",
					logging.Int64(logging.FieldJobID, out[i].ID),
					logging.String(logging.FieldAlbum, out[i].Album),
					logging.Error(err),
				)
			}
			if found {
				cover = UploadURL(first)
			}
			covers[out[i].Album] = cover
		}
		out[i].PreviewPath = copyString(cover)
	}
	return out
}

// ClearJobs removes every job. Uploaded files and the upload log remain.
func (s *Service) ClearJobs(ctx context.Context) (NoticeResponse, error) {
	if err := s.jobs.Clear(ctx); err != nil {
		return NoticeResponse{}, err
	}
	return NoticeResponse{Notice: "Jobs cleared."}, nil
}

// RegenerateJob re-queues a copy of the job. Non-nil notes select the
// with-notes variant; blank notes keep the original notes.
func (s *Service) RegenerateJob(ctx context.Context, id int64, notes *string) (JobActionResult, error) {
	var (
		job    *jobs.Job
		err    error
		notice string
	)
	if notes != nil {
		job, err = s.jobs.RegenerateWithNotes(ctx, id, *notes)
		notice = fmt.Sprintf("Job #%d re-queued with notes.", id)
	} else {
		job, err = s.jobs.Regenerate(ctx, id)
		notice = fmt.Sprintf("Job #%d re-queued.", id)
	}
	if err != nil {
		return JobActionResult{}, err
	}
	if job == nil {
		return notFoundResult(id), nil
	}
	dto := FromJob(*job)
	return JobActionResult{ID: id, Outcome: JobRequeued, Notice: notice, Job: &dto}, nil
}

// MarkComplete finishes the job with its album's first image as output.
func (s *Service) MarkComplete(ctx context.Context, id int64) (JobActionResult, error) {
	job, err := s.jobs.MarkComplete(ctx, id)
	if err != nil {
		return JobActionResult{}, err
	}
	if job == nil {
		return notFoundResult(id), nil
	}
	dto := FromJob(*job)
	return JobActionResult{
		ID:      id,
		Outcome: JobCompleted,
		Notice:  fmt.Sprintf("Job #%d marked complete (mock).", id),
		Job:     &dto,
	}, nil
}

// SubmitCompletion records the pipeline's output for a job. With a
// completion queue the event is applied asynchronously and the outcome is
// JobAccepted; otherwise it is applied inline.
func (s *Service) SubmitCompletion(ctx context.Context, id int64, outputPath *string) (JobActionResult, error) {
	if err := jobs.ValidateOutputPath(outputPath); err != nil {
		return JobActionResult{}, err
	}
	event := jobs.CompletionEvent{JobID: id, OutputPath: copyString(outputPath)}

	if s.completions == nil {
		job, err := s.jobs.Apply(ctx, event)
		if err != nil {
			return JobActionResult{}, err
		}
		if job == nil {
			return notFoundResult(id), nil
		}
		dto := FromJob(*job)
		return JobActionResult{ID: id, Outcome: JobCompleted, Notice: fmt.Sprintf("Job #%d completed.", id), Job: &dto}, nil
	}

	existing, err := s.jobs.Get(ctx, id)
	if err != nil {
		return JobActionResult{}, err
	}
	if existing == nil {
		return notFoundResult(id), nil
	}
	select {
	case s.completions <- event:
		return JobActionResult{ID: id, Outcome: JobAccepted, Notice: fmt.Sprintf("Completion for job #%d accepted.", id)}, nil
	default:
		return JobActionResult{}, ErrCompletionBacklog
	}
}

// Status reports job counts, upload totals, paths, and preflight results.
func (s *Service) Status(ctx context.Context) (StatusResponse, error) {
	stats, err := s.jobs.Stats(ctx)
	if err != nil {
		return StatusResponse{}, err
	}
	records, err := s.ingestor.History(ctx)
	if err != nil {
		return StatusResponse{}, err
	}
	names, err := s.albums.ListAlbums()
	if err != nil {
		return StatusResponse{}, err
	}

	resp := StatusResponse{
		JobCounts:    make(map[string]int, len(stats)),
		UploadCount:  len(records),
		AlbumCount:   len(names),
		UploadsDir:   s.cfg.Paths.UploadsDir,
		DataDir:      s.cfg.Paths.DataDir,
		StoreBackend: s.cfg.Store.Backend,
		StoreLock:    s.cfg.Store.Lock,
	}
	for status, count := range stats {
		resp.JobCounts[string(status)] = count
	}
	for _, check := range preflight.RunAll(s.cfg) {
		resp.Checks = append(resp.Checks, CheckResult{Name: check.Name, Passed: check.Passed, Detail: check.Detail})
	}
	return resp, nil
}

func sliderOrDefault(v *int) int {
	if v == nil {
		return jobs.SliderDefault
	}
	return *v
}
