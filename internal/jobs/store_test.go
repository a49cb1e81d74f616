package jobs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stylesync/internal/album"
	"stylesync/internal/jobs"
	"stylesync/internal/logging"
	"stylesync/internal/recordstore"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	root    string
	records *recordstore.Store[jobs.Job]
	store   *jobs.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{root: filepath.Join(base, "uploads")}
	backend := recordstore.NewFileBackend(filepath.Join(base, "data"))
	f.records = recordstore.New[jobs.Job]("jobs", backend, recordstore.NewProcessLocker(), logging.NewNop())
	f.store = jobs.NewStore(f.records, album.NewIndexer(f.root), logging.NewNop(),
		jobs.WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func (f *fixture) album(t *testing.T, name string, images ...string) {
	t.Helper()
	dir := filepath.Join(f.root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, img := range images {
		if err := os.WriteFile(filepath.Join(dir, img), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func (f *fixture) create(t *testing.T, albumName string) jobs.Job {
	t.Helper()
	job, err := f.store.Create(context.Background(), jobs.CreateRequest{
		Album:           albumName,
		Outreach:        "email",
		StyleIntensity:  50,
		ColorVariation:  50,
		LayoutVariation: 50,
		Notes:           "warm tones",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	f := newFixture(t)
	f.album(t, "Trip", "a.png")

	first := f.create(t, "Trip")
	second := f.create(t, "Trip")
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}
	if first.Status != jobs.StatusQueued || first.OutputPath != nil {
		t.Fatalf("new job must be queued without output, got %+v", first)
	}
	if first.FileType != album.FileTypePNG {
		t.Fatalf("unexpected file type %q", first.FileType)
	}
	if !first.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected created_at %v", first.CreatedAt)
	}
}

func TestCreateIDFollowsMaxNotCount(t *testing.T) {
	f := newFixture(t)
	f.album(t, "Trip")
	ctx := context.Background()
	if err := f.records.Save(ctx, []jobs.Job{{ID: 7, Album: "Trip", Status: jobs.StatusDone}, {ID: 3, Album: "Trip", Status: jobs.StatusQueued}}); err != nil {
		t.Fatal(err)
	}
	if job := f.create(t, "Trip"); job.ID != 8 {
		t.Fatalf("expected id 8, got %d", job.ID)
	}
}

func TestCreateClampsSliders(t *testing.T) {
	f := newFixture(t)
	f.album(t, "Trip")

	job, err := f.store.Create(context.Background(), jobs.CreateRequest{
		Album:           "Trip",
		Outreach:        "social",
		StyleIntensity:  150,
		ColorVariation:  -5,
		LayoutVariation: 50,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.StyleIntensity != 100 || job.ColorVariation != 0 || job.LayoutVariation != 50 {
		t.Fatalf("unexpected sliders %d/%d/%d", job.StyleIntensity, job.ColorVariation, job.LayoutVariation)
	}
	if job.FileType != album.FileTypeUnknown {
		t.Fatalf("empty album should classify as unknown, got %q", job.FileType)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	f.album(t, "Trip")
	ctx := context.Background()

	cases := map[string]jobs.CreateRequest{
		"album":       {Album: "  ", Outreach: "email"},
		"outreach":    {Album: "Trip", Outreach: " "},
		"traversal":   {Album: "../etc", Outreach: "email"},
		"nonexistent": {Album: "Nope", Outreach: "email"},
	}
	for name, req := range cases {
		_, err := f.store.Create(ctx, req)
		var vErr *jobs.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("%s: expected ValidationError, got %v", name, err)
		}
	}

	list, err := f.store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("validation failures must not persist jobs, got %d", len(list))
	}
}

func TestListOrdersByIDDescendingAndPartitions(t *testing.T) {
	f := newFixture(t)
	f.album(t, "Trip", "a.jpg")
	ctx := context.Background()

	f.create(t, "Trip")
	f.create(t, "Trip")
	f.create(t, "Trip")
	if _, err := f.store.MarkComplete(ctx, 2); err != nil {
		t.Fatal(err)
	}

	list, err := f.store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].ID != 3 || list[2].ID != 1 {
		t.Fatalf("unexpected order %+v", list)
	}

	queued, done := jobs.Partition(list)
	if len(queued) != 2 || queued[0].ID != 3 || queued[1].ID != 1 {
		t.Fatalf("unexpected queued partition %+v", queued)
	}
	if len(done) != 1 || done[0].ID != 2 {
		t.Fatalf("unexpected done partition %+v", done)
	}

	stats, err := f.store.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats[jobs.StatusQueued] != 2 || stats[jobs.StatusDone] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestRegenerateNeverMutatesSource(t *testing.T) {
	f := newFixture(t)
	f.album(t, "Trip", "a.jpg")
	ctx := context.Background()

	source := f.create(t, "Trip")
	completed, err := f.store.MarkComplete(ctx, source.ID)
	if err != nil || completed == nil {
		t.Fatalf("MarkComplete: %v %v", completed, err)
	}

	clone, err := f.store.Regenerate(ctx, source.ID)
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if clone == nil {
		t.Fatal("expected regenerated job")
	}
	if clone.ID != 2 || clone.Status != jobs.StatusQueued || clone.OutputPath != nil {
		t.Fatalf("unexpected clone %+v", clone)
	}
	if clone.Album != source.Album || clone.Outreach != source.Outreach || clone.Notes != source.Notes ||
		clone.StyleIntensity != source.StyleIntensity || clone.FileType != source.FileType {
		t.Fatalf("clone must copy job parameters: %+v vs %+v", clone, source)
	}

	after, err := f.store.Get(ctx, source.ID)
	if err != nil || after == nil {
		t.Fatalf("Get: %v %v", after, err)
	}
	if after.Status != jobs.StatusDone || after.OutputPath == nil || *after.OutputPath != "uploads/Trip/a.jpg" {
		t.Fatalf("source job changed: %+v", after)
	}
}

func TestRegenerateWithNotes(t *testing.T) {
	f := newFixture(t)
	f.album(t, "Trip")
	ctx := context.Background()
	source := f.create(t, "Trip")

	kept, err := f.store.RegenerateWithNotes(ctx, source.ID, "   ")
	if err != nil || kept == nil {
		t.Fatalf("RegenerateWithNotes: %v %v", kept, err)
	}
	if kept.Notes != "warm tones" {
		t.Fatalf("blank notes must keep original, got %q", kept.Notes)
	}

	updated, err := f.store.RegenerateWithNotes(ctx, source.ID, "  cooler palette ")
	if err != nil || updated == nil {
		t.Fatalf("RegenerateWithNotes: %v %v", updated, err)
	}
	if updated.Notes != "cooler palette" || updated.ID != 3 {
		t.Fatalf("unexpected job %+v", updated)
	}
}

func TestNotFoundReturnsNil(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, op := range map[string]func() (*jobs.Job, error){
		"regenerate": func() (*jobs.Job, error) { return f.store.Regenerate(ctx, 99) },
		"notes":      func() (*jobs.Job, error) { return f.store.RegenerateWithNotes(ctx, 99, "x") },
		"complete":   func() (*jobs.Job, error) { return f.store.MarkComplete(ctx, 99) },
		"get":        func() (*jobs.Job, error) { return f.store.Get(ctx, 99) },
	} {
		job, err := op()
		if err != nil || job != nil {
			t.Errorf("%s: expected nil job and nil error, got %v %v", name, job, err)
		}
	}
}

func TestClearIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.album(t, "Trip")
	ctx := context.Background()
	f.create(t, "Trip")

	for i := 0; i < 2; i++ {
		if err := f.store.Clear(ctx); err != nil {
			t.Fatalf("Clear #%d: %v", i+1, err)
		}
		list, err := f.store.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 0 {
			t.Fatalf("expected no jobs after clear, got %d", len(list))
		}
	}
	if job := f.create(t, "Trip"); job.ID != 1 {
		t.Fatalf("ids restart after clear, got %d", job.ID)
	}
}

func TestMarkCompleteOnEmptyAlbum(t *testing.T) {
	f := newFixture(t)
	f.album(t, "Empty")
	job := f.create(t, "Empty")

	done, err := f.store.MarkComplete(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	if done == nil || done.Status != jobs.StatusDone || done.OutputPath != nil {
		t.Fatalf("expected done job without output, got %+v", done)
	}
}

func TestApplyRejectsUnsafeOutputPaths(t *testing.T) {
	f := newFixture(t)
	f.album(t, "Trip")
	job := f.create(t, "Trip")

	for _, p := range []string{"", "/etc/passwd", "uploads/../../secret", `C:\out.png`, `..\x.png`} {
		value := p
		_, err := f.store.Apply(context.Background(), jobs.CompletionEvent{JobID: job.ID, OutputPath: &value})
		var vErr *jobs.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("output %q: expected ValidationError, got %v", p, err)
		}
	}

	after, err := f.store.Get(context.Background(), job.ID)
	if err != nil || after == nil || after.Status != jobs.StatusQueued {
		t.Fatalf("rejected events must not change the job: %+v %v", after, err)
	}
}

func TestConsumeAppliesEvents(t *testing.T) {
	f := newFixture(t)
	f.album(t, "Trip")
	job := f.create(t, "Trip")

	events := make(chan jobs.CompletionEvent, 3)
	output := "renders/job-1.png"
	events <- jobs.CompletionEvent{JobID: 42}
	events <- jobs.CompletionEvent{JobID: job.ID, OutputPath: &output}
	close(events)

	if err := f.store.Consume(context.Background(), events); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	after, err := f.store.Get(context.Background(), job.ID)
	if err != nil || after == nil {
		t.Fatalf("Get: %v %v", after, err)
	}
	if after.Status != jobs.StatusDone || after.OutputPath == nil || *after.OutputPath != output {
		t.Fatalf("unexpected job after consume %+v", after)
	}
}

func TestConsumeStopsOnContextCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.store.Consume(ctx, make(chan jobs.CompletionEvent))
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Consume returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not stop after cancel")
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := jobs.ParseStatus(" DONE "); !ok || s != jobs.StatusDone {
		t.Fatalf("ParseStatus(DONE) = %q, %v", s, ok)
	}
	if _, ok := jobs.ParseStatus("failed"); ok {
		t.Fatal("failed is not a job status")
	}
}
