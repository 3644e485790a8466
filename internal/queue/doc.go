// Package queue turns programme metadata into download tasks.
//
// Build walks the configured series in order and creates one Waiting task per
// episode that the download log does not already contain. ResolveSources then
// looks up each task's stream location, and Planner ties the two together
// with the metadata fetch. The scheduler owns tasks from that point on: only
// it moves a task between states.
package queue
