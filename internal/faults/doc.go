// Package faults defines the error taxonomy shared by the dataset pipeline.
//
// Key responsibilities:
//   - Sentinel markers (archive unavailable, extraction, video open, ...) that
//     callers test with errors.Is regardless of how deeply a failure is wrapped.
//   - The Wrap helper that prefixes the component and operation while keeping
//     both the marker and the underlying cause in the error chain.
//   - Context helpers that stamp build run IDs and split names so log lines
//     from the downloader and generator can be correlated.
package faults
