// Package scanner reads media directories from disk. It is purely
// synchronous and stateless: every call re-reads the filesystem, classifies
// entries by extension, and folds all I/O failures into a single
// "listing unavailable" outcome.
package scanner
