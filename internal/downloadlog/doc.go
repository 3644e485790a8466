// Package downloadlog persists which episodes have been downloaded.
//
// The on-disk form is a JSON object mapping each series identifier to the
// list of completed episode identifiers, so logs written by earlier versions
// of the tool keep working. A Log is safe for concurrent use: workers record
// completions while the planner and scheduler query membership. Entries are
// only ever added during a run, and writes replace the file atomically.
package downloadlog
