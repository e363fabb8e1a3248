// Package remotezip reads zip archives served over HTTP without downloading
// them in full.
//
// Open asks the server for range support and the archive size, then hands
// archive/zip an io.ReaderAt whose reads become HTTP Range requests. Only the
// central directory and the members explicitly extracted cross the network.
// Reads are served from a small block cache so the many small reads made by
// the zip and flate readers coalesce into a handful of requests.
//
// Failures to reach or parse the archive are tagged faults.ErrArchiveUnavailable;
// failures on a single member are tagged faults.ErrExtraction.
package remotezip
