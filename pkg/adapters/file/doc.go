// Package file provides filesystem adapters: a SlotStore keeping each slot in its own
// JSON file, and a Broadcaster that propagates slot changes between processes through
// an fsnotify-watched beacon file.
package file
