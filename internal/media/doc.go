// Package media generates and caches thumbnail artifacts for image and
// video files. Image decoding prefers libvips when available, with imaging
// and ffmpeg fallbacks; video frames are extracted with ffmpeg.
package media
