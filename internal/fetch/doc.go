// Package fetch materializes dataset splits from a remote archive.
//
// Downloader extracts a list of archive members into a split directory,
// flattening each member to <split>/<class>/<basename>. Builder runs the
// whole pipeline: it lists the archive, groups entries by class, allocates
// disjoint splits with a seeded random source, and downloads every split
// whose directory does not exist yet. An existing split directory is never
// touched, so a build can be rerun safely. Each run is recorded in the
// manifest store.
package fetch
