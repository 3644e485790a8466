// Package history keeps a SQLite record of download runs and the outcome of
// every task in them, so operators can see what happened in earlier runs
// without reading log files.
package history
