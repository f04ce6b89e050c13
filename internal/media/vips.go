package media

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"media-browser/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsAvailable   bool
	vipsMu          sync.Mutex
)

// InitVips initializes libvips. Call once at startup; the vips log stream
// is mapped onto the application logger at the configured level.
func InitVips() error {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsInitialized {
		return nil
	}

	var vipsLevel vips.LogLevel
	switch logging.GetLevel() {
	case logging.LevelDebug:
		vipsLevel = vips.LogLevelInfo
	case logging.LevelInfo:
		vipsLevel = vips.LogLevelWarning
	default:
		vipsLevel = vips.LogLevelError
	}
	vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
		switch {
		case level <= vips.LogLevelError:
			logging.Error("[%s] %s", domain, msg)
		case level == vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}, vipsLevel)

	// Conservative memory settings: one image at a time, small cache.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// VipsAvailable reports whether libvips is initialized.
func VipsAvailable() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsAvailable
}

// LoadImageWithVips decodes an image shrunk toward the target size during
// decode, which keeps memory bounded for very large sources.
func LoadImageWithVips(path string, targetWidth, targetHeight int) (image.Image, error) {
	if !VipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	logging.Debug("Loading %s with vips (target: %dx%d)", filepath.Base(path), targetWidth, targetHeight)

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.Thumbnail(targetWidth, targetHeight, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
