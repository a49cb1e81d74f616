// Package jobs owns the generation job queue: creation with deterministic
// ids, listing, clearing, regeneration, and completion.
//
// Jobs move from queued to done only through Apply, which takes a
// CompletionEvent. MarkComplete is the built-in producer that points a job at
// its album's first image; an external pipeline feeds events through Consume.
// Regeneration always appends a new queued job and leaves the source intact.
// Persistence goes through a recordstore collection, so every mutation is a
// locked load, mutate, and save.
package jobs
