// Package manifest records dataset builds in a SQLite database.
//
// Each build is a Run identified by a UUID; every split the build touches gets
// a SplitRecord with its planned and downloaded file counts and an outcome of
// complete, failed, or skipped. Split directories themselves carry no
// metadata, so the manifest is how a truncated split left by an aborted run is
// told apart from a class that simply has fewer files.
//
// A build killed before FinishRun leaves its run marked running; the next
// build closes such runs as failed once it holds the build lock.
//
// The store uses WAL journaling and retries SQLITE_BUSY with exponential
// backoff. The schema version lives in PRAGMA user_version, and a mismatch
// is reported rather than migrated.
package manifest
