package media

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"media-browser/internal/logging"
	"media-browser/internal/mediatypes"
	"media-browser/internal/metrics"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// ThumbWidth and ThumbHeight bound the generated artifact. Aspect ratio
	// is preserved within the box.
	ThumbWidth  = 200
	ThumbHeight = 200

	thumbQuality = 80
)

// Thumbnailer generates and serves thumbnail artifacts. Artifacts are JPEG
// files in the cache directory, named by the MD5 of the media file's
// root-relative path. Generation is idempotent: an existing artifact is
// never regenerated.
type Thumbnailer struct {
	cacheDir string
	enabled  bool
}

// NewThumbnailer creates a thumbnailer rooted at cacheDir. When disabled,
// Generate and Read fail and Exists always reports true so no work is
// dispatched.
func NewThumbnailer(cacheDir string, enabled bool) *Thumbnailer {
	if enabled {
		logging.Debug("Thumbnailer: enabled, cache dir: %s", cacheDir)
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			logging.Warn("Thumbnailer: failed to create cache dir: %v", err)
		}
	} else {
		logging.Debug("Thumbnailer: disabled")
	}
	return &Thumbnailer{
		cacheDir: cacheDir,
		enabled:  enabled,
	}
}

// Enabled reports whether thumbnail generation is active.
func (t *Thumbnailer) Enabled() bool {
	return t.enabled
}

// ArtifactPath returns the cache file path for a root-relative media path.
func (t *Thumbnailer) ArtifactPath(relPath string) string {
	hash := md5.Sum([]byte(relPath))
	return filepath.Join(t.cacheDir, fmt.Sprintf("%x.jpg", hash))
}

// Exists reports whether an artifact is already cached for relPath.
func (t *Thumbnailer) Exists(relPath string) bool {
	if !t.enabled {
		return true
	}
	_, err := os.Stat(t.ArtifactPath(relPath))
	return err == nil
}

// Read returns the cached artifact bytes for relPath. The error satisfies
// os.IsNotExist when no artifact has been generated yet.
func (t *Thumbnailer) Read(relPath string) ([]byte, error) {
	if !t.enabled {
		return nil, fmt.Errorf("thumbnails disabled")
	}
	return os.ReadFile(t.ArtifactPath(relPath))
}

// Generate produces the artifact for one media file. absPath is where the
// file lives on disk; relPath is the root-relative path that keys the
// artifact. Generating an already-cached artifact is a no-op.
func (t *Thumbnailer) Generate(ctx context.Context, absPath, relPath string, mediaType mediatypes.MediaType) error {
	if !t.enabled {
		return fmt.Errorf("thumbnails disabled")
	}
	if t.Exists(relPath) {
		logging.Debug("Thumbnail already cached: %s", relPath)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}

	start := time.Now()
	logging.Debug("Thumbnail generating: %s (type: %s)", relPath, mediaType)

	var img image.Image
	var err error
	switch mediaType {
	case mediatypes.TypeImage:
		img, err = t.decodeImage(absPath)
	case mediatypes.TypeVideo:
		img, err = t.extractVideoFrame(absPath)
	default:
		return fmt.Errorf("unsupported media type: %s", mediaType)
	}
	if err != nil {
		return fmt.Errorf("thumbnail generation failed: %w", err)
	}
	if img == nil {
		return fmt.Errorf("thumbnail generation returned nil image")
	}

	thumb := imaging.Fit(img, ThumbWidth, ThumbHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	if err := os.WriteFile(t.ArtifactPath(relPath), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to cache thumbnail: %w", err)
	}

	metrics.ThumbnailsGeneratedTotal.WithLabelValues(string(mediaType)).Inc()
	logging.Debug("Thumbnail cached for %s in %v", relPath, time.Since(start))
	return nil
}

// decodeImage loads an image with progressively heavier fallbacks: vips
// decode-time shrinking, the imaging library, stdlib decoders, and finally
// ffmpeg for formats nothing else handles.
func (t *Thumbnailer) decodeImage(absPath string) (image.Image, error) {
	if sniffed, err := SniffFormat(absPath); err == nil {
		logging.Debug("Detected format %s for %s", sniffed, absPath)
	}

	if VipsAvailable() {
		img, err := LoadImageWithVips(absPath, ThumbWidth, ThumbHeight)
		if err == nil {
			return img, nil
		}
		logging.Debug("Vips decode failed for %s: %v, falling back", absPath, err)
	}

	img, err := imaging.Open(absPath, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	logging.Debug("imaging.Open failed for %s: %v, trying stdlib decode", absPath, err)

	img, err = decodeImageFile(absPath)
	if err == nil {
		return img, nil
	}
	logging.Debug("Standard decode failed for %s: %v, trying ffmpeg", absPath, err)

	img, err = decodeWithFFmpeg(absPath)
	if err != nil {
		return nil, fmt.Errorf("all image decode methods failed for %s: %w", absPath, err)
	}
	return img, nil
}

func decodeImageFile(absPath string) (image.Image, error) {
	file, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	logging.Debug("Decoded image format: %s for %s", format, absPath)
	return img, nil
}

func decodeWithFFmpeg(absPath string) (image.Image, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.Command("ffmpeg",
		"-i", absPath,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-pix_fmt", "rgb24",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", absPath)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

// extractVideoFrame grabs a representative frame via ffmpeg. The first
// attempt seeks one second in; very short clips fail that seek, so a second
// attempt takes the first frame.
func (t *Thumbnailer) extractVideoFrame(absPath string) (image.Image, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	cmd := exec.Command("ffmpeg",
		"-i", absPath,
		"-ss", "00:00:01",
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logging.Debug("FFmpeg seek attempt failed for %s: %v, stderr: %s", absPath, err, stderr.String())

		cmd = exec.Command("ffmpeg",
			"-i", absPath,
			"-vframes", "1",
			"-f", "image2pipe",
			"-vcodec", "png",
			"-",
		)
		stdout.Reset()
		stderr.Reset()
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, stderr.String())
		}
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", absPath)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}
