// Package watch rebuilds documentation incrementally while the source tree
// changes: fsnotify events are debounced into batches, changed files are
// rebuilt and deleted files have their outputs removed.
package watch
