// Package command defines the snapwatch-cli commands using urfave/cli/v2.
//
//   - root.go: application, global flags, shared helpers
//   - diff.go: offline comparison of two documents
//   - watch.go: foreground poller for one file
//   - seed.go: load a document into a Badger database
//   - config.go: server configuration checks
//   - sources.go, live.go, system.go: server API commands
//   - views.go: table layouts for change sets and snapshots
//
// Every command writes its result to the app writer through the formatter
// selected by --output.
package command
