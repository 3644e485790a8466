// Package preflight provides readiness checks for the paths, binaries and
// services a download run depends on.
//
// These checks run in two contexts:
//   - The run command calls RunAll before fetching metadata and refuses to
//     start when a required check fails.
//   - The CLI "jofsarpur check" command prints every result.
//
// Checks for optional features (file logging, run history) are skipped when
// the feature is disabled.
package preflight
