// Package preflight provides readiness checks for the archive server, the
// filesystem paths, and the external binaries clipset depends on.
//
// These checks run in two contexts:
//   - The dataset builder calls EnsureFreeSpace before downloading a split so
//     a full disk fails fast instead of midway through extraction.
//   - The CLI "clipset status" command uses RunAll and CheckSystemDeps to
//     display environment health.
package preflight
