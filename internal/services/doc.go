// Package services defines shared utilities consumed by the scheduler, the
// metadata client, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, series and episode identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper so task failures can be
//     classified (configuration, external tool, metadata fetch) without
//     string matching.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across a run.
package services
