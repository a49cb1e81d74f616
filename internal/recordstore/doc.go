// Package recordstore persists named collections of records as a single
// JSON array and replaces them atomically.
//
// A Store pairs a Backend (a JSON file per collection, or one SQLite database
// holding every collection) with a Locker (in-process only, or an flock beside
// the data so the CLI and daemon can share a workspace). Load never fails: a
// missing, unreadable, or malformed collection reads as empty and is reported
// at WARN. Mutations go through Update, which holds the exclusive lock across
// the whole load, mutate, and save cycle.
package recordstore
