package mediatypes

// MediaType classifies a filesystem entry for the browser.
type MediaType string

const (
	// TypeDirectory represents a directory.
	TypeDirectory MediaType = "directory"
	// TypeImage represents an image file.
	TypeImage MediaType = "image"
	// TypeVideo represents a video file.
	TypeVideo MediaType = "video"
	// TypeAudio represents an audio file.
	TypeAudio MediaType = "audio"
	// TypeFile represents any other file.
	TypeFile MediaType = "file"
)

// ImageExtensions maps file extensions to whether they are supported image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".svg":  true,
	".ico":  true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
	".avif": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// AudioExtensions maps file extensions to whether they are supported audio formats.
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
	".oga":  true,
	".m4a":  true,
	".aac":  true,
	".wma":  true,
	".opus": true,
	".aiff": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",

	// Audio
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wma":  "audio/x-ms-wma",
	".opus": "audio/opus",
	".aiff": "audio/aiff",
}

// Classify returns the MediaType for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Directories are classified separately by the scanner; anything unrecognized
// is TypeFile.
func Classify(ext string) MediaType {
	if ImageExtensions[ext] {
		return TypeImage
	}
	if VideoExtensions[ext] {
		return TypeVideo
	}
	if AudioExtensions[ext] {
		return TypeAudio
	}
	return TypeFile
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsMedia returns true if the extension represents a supported media file.
func IsMedia(ext string) bool {
	return Classify(ext) != TypeFile
}

// Thumbable reports whether a media type can have a thumbnail generated.
// Audio files are browsable but have no visual representation to shrink.
func Thumbable(t MediaType) bool {
	return t == TypeImage || t == TypeVideo
}
