// Package watcher waits for files that an interactive program is expected
// to produce.
//
// Waits are driven by fsnotify events on the nearest existing ancestor of the
// target path, with a periodic re-check because events can be coalesced or
// missed when directories are created underneath the watch.
package watcher
