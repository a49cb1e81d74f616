package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"stylesync/internal/logging"
)

// Store manages one named collection of records of type T.
type Store[T any] struct {
	name    string
	backend Backend
	locker  Locker
	logger  *slog.Logger
}

// New constructs a store for the named collection.
func New[T any](name string, backend Backend, locker Locker, logger *slog.Logger) *Store[T] {
	if locker == nil {
		locker = NewProcessLocker()
	}
	return &Store[T]{
		name:    name,
		backend: backend,
		locker:  locker,
		logger:  logging.NewComponentLogger(logger, "recordstore").With(logging.String("collection", name)),
	}
}

// Name returns the collection name.
func (s *Store[T]) Name() string {
	return s.name
}

// Load reads the collection without taking a lock. Missing, unreadable, or
// malformed data yields an empty slice.
func (s *Store[T]) Load(ctx context.Context) []T {
	payload, ok, err := s.backend.Read(ensureContext(ctx), s.name)
	if err != nil {
		logging.WarnWithContext(s.logger, "collection unreadable; treating as empty", "recordstore_read_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the data directory"),
			logging.String(logging.FieldImpact, "records are hidden until the collection is readable again"),
		)
		return []T{}
	}
	if !ok || len(payload) == 0 {
		return []T{}
	}

	var records []T
	if err := json.Unmarshal(payload, &records); err != nil {
		logging.WarnWithContext(s.logger, "collection is not a valid record array; treating as empty", "recordstore_decode_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect or remove the corrupt collection"),
			logging.String(logging.FieldImpact, "the next save overwrites the corrupt data"),
		)
		return []T{}
	}
	if records == nil {
		return []T{}
	}
	return records
}

// Save replaces the whole collection atomically. Callers that mutate records
// should use Update so the replacement happens under the exclusive lock.
func (s *Store[T]) Save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	payload, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.name, err)
	}
	if err := s.backend.Write(ensureContext(ctx), s.name, payload); err != nil {
		return fmt.Errorf("save %s: %w", s.name, err)
	}
	return nil
}

// Snapshot loads the collection under the shared lock.
func (s *Store[T]) Snapshot(ctx context.Context) ([]T, error) {
	ctx = ensureContext(ctx)
	unlock, err := s.locker.RLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock %s for read: %w", s.name, err)
	}
	defer unlock()
	return s.Load(ctx), nil
}

// Update runs fn against the current records under the exclusive lock and
// saves its result. An error from fn aborts the update without saving.
func (s *Store[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	ctx = ensureContext(ctx)
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("lock %s for write: %w", s.name, err)
	}
	defer unlock()

	next, err := fn(s.Load(ctx))
	if err != nil {
		return err
	}
	return s.Save(ctx, next)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
