// Package mediatypes defines the media classification used across the
// application: extension sets for images, video and audio, MIME type lookup,
// and the MediaType enumeration shared by the scanner, reconciler and
// thumbnail pipeline.
package mediatypes
