package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"media-browser/internal/mediatypes"
)

func writeTestPNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return path
}

func TestGenerateImageThumbnail(t *testing.T) {
	mediaDir := t.TempDir()
	thumb := NewThumbnailer(t.TempDir(), true)

	absPath := writeTestPNG(t, mediaDir, "photo.png", 800, 600)
	if thumb.Exists("photo.png") {
		t.Fatal("artifact should not exist before generation")
	}

	err := thumb.Generate(context.Background(), absPath, "photo.png", mediatypes.TypeImage)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !thumb.Exists("photo.png") {
		t.Fatal("artifact should exist after generation")
	}

	data, err := thumb.Read("photo.png")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("artifact is not valid JPEG: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() > ThumbWidth || bounds.Dy() > ThumbHeight {
		t.Errorf("thumbnail %dx%d exceeds %dx%d box", bounds.Dx(), bounds.Dy(), ThumbWidth, ThumbHeight)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	mediaDir := t.TempDir()
	thumb := NewThumbnailer(t.TempDir(), true)

	absPath := writeTestPNG(t, mediaDir, "photo.png", 100, 100)

	// Pre-seed the artifact with sentinel bytes; generation must leave it
	// untouched.
	sentinel := []byte("already-generated")
	if err := os.WriteFile(thumb.ArtifactPath("photo.png"), sentinel, 0644); err != nil {
		t.Fatalf("failed to seed artifact: %v", err)
	}

	if err := thumb.Generate(context.Background(), absPath, "photo.png", mediatypes.TypeImage); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	data, err := thumb.Read("photo.png")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(data, sentinel) {
		t.Error("existing artifact was regenerated")
	}
}

func TestGenerateMissingFile(t *testing.T) {
	thumb := NewThumbnailer(t.TempDir(), true)

	err := thumb.Generate(context.Background(), "/nonexistent/gone.jpg", "gone.jpg", mediatypes.TypeImage)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestGenerateUnsupportedType(t *testing.T) {
	mediaDir := t.TempDir()
	thumb := NewThumbnailer(t.TempDir(), true)

	absPath := writeTestPNG(t, mediaDir, "notes.png", 10, 10)
	err := thumb.Generate(context.Background(), absPath, "notes.png", mediatypes.TypeAudio)
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported type error, got %v", err)
	}
}

func TestDisabledThumbnailer(t *testing.T) {
	thumb := NewThumbnailer(t.TempDir(), false)

	if thumb.Enabled() {
		t.Error("expected disabled")
	}
	// A disabled thumbnailer reports every artifact as present so nothing
	// gets dispatched.
	if !thumb.Exists("anything.jpg") {
		t.Error("disabled thumbnailer should report artifacts as existing")
	}
	if err := thumb.Generate(context.Background(), "x", "x", mediatypes.TypeImage); err == nil {
		t.Error("expected error from disabled generate")
	}
	if _, err := thumb.Read("anything.jpg"); err == nil {
		t.Error("expected error from disabled read")
	}
}

func TestReadMissingArtifact(t *testing.T) {
	thumb := NewThumbnailer(t.TempDir(), true)

	_, err := thumb.Read("never-generated.jpg")
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestArtifactPathIsStable(t *testing.T) {
	thumb := NewThumbnailer("/cache", true)

	a := thumb.ArtifactPath("photos/cat.jpg")
	if a != thumb.ArtifactPath("photos/cat.jpg") {
		t.Error("artifact path must be deterministic")
	}
	if a == thumb.ArtifactPath("photos/dog.jpg") {
		t.Error("distinct paths must map to distinct artifacts")
	}
	if filepath.Ext(a) != ".jpg" {
		t.Errorf("artifact extension = %s, want .jpg", filepath.Ext(a))
	}
}
