// Package ffmpeg runs the stream-copy process that turns a remote stream into
// a local file.
//
// Runner is the narrow surface the scheduler depends on: Start launches one
// process and the returned Process reports its outcome from Wait. Client is
// the production implementation built on os/exec; tests inject an Executor.
package ffmpeg
