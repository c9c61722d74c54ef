// Package local exposes the persisted snapshots as domain values.
//
// Watch methods return lazy sequences: each call subscribes to the row
// store, yields the current snapshot and then every snapshot written after
// it, until the context is cancelled. Save methods write a snapshot through
// and report storage problems as outcome storage failures.
//
// The two resources differ when nothing is stored: an empty launch table
// yields a cache-miss failure and ends the sequence, while a missing company
// record yields nothing until one is written.
package local
