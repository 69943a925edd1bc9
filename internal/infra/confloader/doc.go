// Package confloader loads layered configuration and watches files for edits.
//
// It is built on koanf and serves two callers: the daemon configuration
// (file, then SNAPWATCH_ environment, then explicit overrides) and the
// file, env and http sources, which use a Loader to parse and flatten a
// document into dotted keys.
//
// Priority (highest to lowest):
//
//  1. Maps passed to LoadMap after Load
//  2. Environment variables
//  3. Configuration file
//  4. Defaults already present in the target struct
//
// Watcher wraps fsnotify. It watches the parent directory of each file so
// that editors which save by rename are still noticed, and only reports
// events for the files that were registered.
package confloader
