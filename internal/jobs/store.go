package jobs

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"stylesync/internal/album"
	"stylesync/internal/logging"
	"stylesync/internal/recordstore"
)

// AlbumSource is the view of the album tree the job store needs.
type AlbumSource interface {
	Exists(name string) (bool, error)
	ClassifyFileType(name string) (album.FileType, error)
	FirstImage(name string) (string, bool, error)
}

// Observer receives job lifecycle events, typically metrics.
type Observer interface {
	JobEvent(event string)
}

// Job lifecycle event names passed to Observer.
const (
	EventCreated   = "created"
	EventRequeued  = "requeued"
	EventCompleted = "completed"
	EventCleared   = "cleared"
)

// OutputPrefix is prepended to album-relative image paths so output paths
// resolve against the static uploads route.
const OutputPrefix = "uploads/"

// Store owns the job collection. Every mutation holds the collection's
// exclusive lock for the whole load, mutate, and save cycle.
type Store struct {
	records  *recordstore.Store[Job]
	albums   AlbumSource
	now      func() time.Time
	observer Observer
	logger   *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObserver registers a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// NewStore creates a job store over the given record collection.
func NewStore(records *recordstore.Store[Job], albums AlbumSource, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		records: records,
		albums:  albums,
		now:     time.Now,
		logger:  logging.NewComponentLogger(logger, "jobs"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the request, classifies the album, clamps the sliders,
// and appends a queued job with the next id.
func (s *Store) Create(ctx context.Context, req CreateRequest) (Job, error) {
	albumName := strings.TrimSpace(req.Album)
	outreach := strings.TrimSpace(req.Outreach)
	if albumName == "" {
		return Job{}, &ValidationError{Field: "album", Message: "Please select an uploaded folder (album)."}
	}
	if outreach == "" {
		return Job{}, &ValidationError{Field: "outreach", Message: "Please choose a type of outreach."}
	}
	if err := album.ValidateName(albumName); err != nil {
		return Job{}, &ValidationError{Field: "album", Message: fmt.Sprintf("invalid album name %q", albumName)}
	}
	exists, err := s.albums.Exists(albumName)
	if err != nil {
		return Job{}, err
	}
	if !exists {
		return Job{}, &ValidationError{Field: "album", Message: fmt.Sprintf("album %q does not exist", albumName)}
	}

	fileType, err := s.albums.ClassifyFileType(albumName)
	if err != nil {
		return Job{}, err
	}

	job := Job{
		Album:           albumName,
		FileType:        fileType,
		Outreach:        outreach,
		StyleIntensity:  clamp(req.StyleIntensity),
		ColorVariation:  clamp(req.ColorVariation),
		LayoutVariation: clamp(req.LayoutVariation),
		Notes:           strings.TrimSpace(req.Notes),
		Status:          StatusQueued,
		CreatedAt:       s.timestamp(),
	}
	err = s.records.Update(ctx, func(list []Job) ([]Job, error) {
		job.ID = nextID(list)
		return append(list, job), nil
	})
	if err != nil {
		return Job{}, fmt.Errorf("create job: %w", err)
	}

	s.notify(EventCreated)
	s.logger.Info("job created",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String(logging.FieldAlbum, job.Album),
		logging.String("file_type", string(job.FileType)),
	)
	return job, nil
}

// List returns every job, highest id first.
func (s *Store) List(ctx context.Context) ([]Job, error) {
	list, err := s.records.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(list, func(a, b Job) int {
		return cmp.Compare(b.ID, a.ID)
	})
	return list, nil
}

// Get returns the job with the given id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id int64) (*Job, error) {
	list, err := s.records.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if idx := indexOf(list, id); idx >= 0 {
		job := list[idx]
		return &job, nil
	}
	return nil, nil
}

// Stats returns job counts per status. Every known status is present.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	list, err := s.records.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[Status]int, len(allStatuses))
	for _, status := range allStatuses {
		counts[status] = 0
	}
	for _, job := range list {
		counts[job.Status]++
	}
	return counts, nil
}

// Clear removes every job. The upload log is not touched.
func (s *Store) Clear(ctx context.Context) error {
	err := s.records.Update(ctx, func([]Job) ([]Job, error) {
		return []Job{}, nil
	})
	if err != nil {
		return fmt.Errorf("clear jobs: %w", err)
	}
	s.notify(EventCleared)
	s.logger.Info("jobs cleared")
	return nil
}

// Regenerate appends a queued copy of the job with a new id. The source job
// is never modified. A nil job means the id was not found.
func (s *Store) Regenerate(ctx context.Context, id int64) (*Job, error) {
	return s.regenerate(ctx, id, "")
}

// RegenerateWithNotes behaves like Regenerate; non-empty notes replace the
// copy's notes.
func (s *Store) RegenerateWithNotes(ctx context.Context, id int64, notes string) (*Job, error) {
	return s.regenerate(ctx, id, notes)
}

func (s *Store) regenerate(ctx context.Context, id int64, notes string) (*Job, error) {
	notes = strings.TrimSpace(notes)
	var clone Job
	err := s.records.Update(ctx, func(list []Job) ([]Job, error) {
		idx := indexOf(list, id)
		if idx < 0 {
			return nil, errJobNotFound
		}
		clone = list[idx]
		clone.ID = nextID(list)
		clone.CreatedAt = s.timestamp()
		clone.Status = StatusQueued
		clone.OutputPath = nil
		if notes != "" {
			clone.Notes = notes
		}
		return append(list, clone), nil
	})
	if errors.Is(err, errJobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("regenerate job %d: %w", id, err)
	}

	s.notify(EventRequeued)
	s.logger.Info("job re-queued",
		logging.Int64(logging.FieldJobID, clone.ID),
		logging.Int64("source_job_id", id),
		logging.Bool("notes_updated", notes != ""),
	)
	return &clone, nil
}

// MarkComplete finishes the job with its album's first image as output, or
// no output when the album is empty. A nil job means the id was not found.
func (s *Store) MarkComplete(ctx context.Context, id int64) (*Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}

	event := CompletionEvent{JobID: id}
	first, ok, err := s.albums.FirstImage(job.Album)
	if err != nil {
		return nil, err
	}
	if ok {
		output := OutputPrefix + first
		event.OutputPath = &output
	}
	return s.Apply(ctx, event)
}

// Apply moves the job to done with the event's output path. A nil job means
// the id was not found.
func (s *Store) Apply(ctx context.Context, event CompletionEvent) (*Job, error) {
	if err := ValidateOutputPath(event.OutputPath); err != nil {
		return nil, err
	}

	var updated Job
	err := s.records.Update(ctx, func(list []Job) ([]Job, error) {
		idx := indexOf(list, event.JobID)
		if idx < 0 {
			return nil, errJobNotFound
		}
		list[idx].Status = StatusDone
		list[idx].OutputPath = cloneString(event.OutputPath)
		updated = list[idx]
		return list, nil
	})
	if errors.Is(err, errJobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("complete job %d: %w", event.JobID, err)
	}

	s.notify(EventCompleted)
	attrs := []logging.Attr{logging.Int64(logging.FieldJobID, updated.ID), logging.String(logging.FieldAlbum, updated.Album)}
	if updated.OutputPath != nil {
		attrs = append(attrs, logging.String("output_path", *updated.OutputPath))
	}
	s.logger.Info("job completed", logging.Args(attrs...)...)
	return &updated, nil
}

// Consume applies completion events until the channel closes or ctx ends.
// Failures are logged and do not stop consumption.
func (s *Store) Consume(ctx context.Context, events <-chan CompletionEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			job, err := s.Apply(ctx, event)
			switch {
			case err != nil:
				logging.WarnWithContext(s.logger, "completion event rejected", "job_completion_failed",
					logging.Int64(logging.FieldJobID, event.JobID),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the output path reported by the pipeline"),
					logging.String(logging.FieldImpact, "job stays in its previous state"),
				)
			case job == nil:
				logging.WarnWithContext(s.logger, "completion event for unknown job", "job_completion_unknown",
					logging.Int64(logging.FieldJobID, event.JobID),
					logging.String(logging.FieldErrorHint, "jobs may have been cleared before the pipeline finished"),
					logging.String(logging.FieldImpact, "event dropped"),
				)
			}
		}
	}
}

// ValidateOutputPath accepts nil or a relative forward-slash path without
// parent references.
func ValidateOutputPath(p *string) error {
	if p == nil {
		return nil
	}
	value := *p
	invalid := func(msg string) error {
		return &ValidationError{Field: "output_path", Message: msg}
	}
	if strings.TrimSpace(value) == "" {
		return invalid("must not be empty")
	}
	if strings.ContainsRune(value, 0) {
		return invalid("must not contain NUL bytes")
	}
	normalized := strings.ReplaceAll(value, "\\", "/")
	if path.IsAbs(normalized) || (len(normalized) > 1 && normalized[1] == ':') {
		return invalid("must be relative")
	}
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return invalid("must not contain parent references")
		}
	}
	return nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func (s *Store) notify(event string) {
	if s.observer != nil {
		s.observer.JobEvent(event)
	}
}

func nextID(list []Job) int64 {
	var maxID int64
	for _, job := range list {
		maxID = max(maxID, job.ID)
	}
	return maxID + 1
}

func indexOf(list []Job, id int64) int {
	return slices.IndexFunc(list, func(j Job) bool { return j.ID == id })
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
