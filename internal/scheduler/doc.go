// Package scheduler runs download tasks under a concurrency cap.
//
// A single coordinator goroutine owns every task's state. It admits waiting
// tasks in build order while fewer than the configured number are running,
// then blocks on a completion channel until a worker reports back. Workers
// run one ffmpeg process each and record successful downloads in the
// completion log, whose mutex serialises concurrent insertions. The log is
// flushed once, after the last task reaches a terminal state.
package scheduler
