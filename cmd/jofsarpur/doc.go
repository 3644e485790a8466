// Package main hosts the jofsarpur CLI entrypoint and command graph.
//
// Running jofsarpur without a subcommand downloads every new episode of the
// configured series. The remaining commands inspect the download log and run
// history, scaffold configuration, check the environment, and test
// notifications. Behaviour lives in the internal packages; this package only
// wires them together and renders results.
package main
