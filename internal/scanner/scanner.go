package scanner

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"media-browser/internal/filesystem"
	"media-browser/internal/logging"
	"media-browser/internal/mediatypes"
	"media-browser/internal/metrics"
)

// ErrNotFound is returned when a directory or file does not exist, is outside
// the media root, or cannot be read. All filesystem failures fold into this
// single outcome so callers never leak I/O detail to the UI layer.
var ErrNotFound = errors.New("listing unavailable")

// Node is one filesystem entry as observed on disk. Nodes are ephemeral and
// recomputed on every read; they are never persisted directly.
type Node struct {
	Name      string              `json:"name"`
	Path      string              `json:"path"`
	IsDir     bool                `json:"isDirectory"`
	MediaType mediatypes.MediaType `json:"mediaType"`
	Size      int64               `json:"size,omitempty"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Scanner reads directories under a fixed media root. It holds no shared
// state and always reflects current disk contents.
type Scanner struct {
	root  string
	retry filesystem.RetryConfig
}

// New creates a Scanner rooted at the given media directory.
func New(root string) *Scanner {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &Scanner{
		root:  abs,
		retry: filesystem.DefaultRetryConfig(),
	}
}

// Root returns the absolute media root directory.
func (s *Scanner) Root() string {
	return s.root
}

// Normalize cleans a root-relative path into forward-slash form with no
// leading slash. The root itself normalizes to "".
func Normalize(rel string) string {
	rel = path.Clean(filepath.ToSlash(rel))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "." {
		rel = ""
	}
	return rel
}

// Resolve maps a root-relative path to an absolute path on disk, rejecting
// anything that escapes the media root.
func (s *Scanner) Resolve(rel string) (string, error) {
	rel = Normalize(rel)
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrNotFound, rel)
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	abs, err := filepath.Abs(full)
	if err != nil || !strings.HasPrefix(abs, s.root) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, rel)
	}
	return abs, nil
}

// List returns the immediate children of a root-relative directory, sorted
// with directories first and names case-insensitively ascending. Hidden
// entries are skipped. Any I/O failure returns ErrNotFound.
func (s *Scanner) List(rel string) ([]Node, error) {
	start := time.Now()
	var err error
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ScannerOperationsTotal.WithLabelValues("list", status).Inc()
		metrics.ScannerOperationDuration.WithLabelValues("list").Observe(time.Since(start).Seconds())
	}()

	full, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}

	info, statErr := filesystem.Stat(full, s.retry)
	if statErr != nil || !info.IsDir() {
		logging.Debug("Scanner: %s not listable: %v", rel, statErr)
		err = fmt.Errorf("%w: %s", ErrNotFound, rel)
		return nil, err
	}

	entries, readErr := filesystem.ReadDir(full, s.retry)
	if readErr != nil {
		logging.Debug("Scanner: read failed for %s: %v", rel, readErr)
		err = fmt.Errorf("%w: %s", ErrNotFound, rel)
		return nil, err
	}

	rel = Normalize(rel)
	nodes := make([]Node, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		node, ok := s.entryToNode(entry, rel)
		if !ok {
			continue
		}
		nodes = append(nodes, node)
	}

	sortNodes(nodes)

	metrics.ScannerItemsReturned.WithLabelValues("list").Observe(float64(len(nodes)))
	return nodes, nil
}

// Stat returns the Node for a single root-relative file path.
func (s *Scanner) Stat(rel string) (Node, error) {
	full, err := s.Resolve(rel)
	if err != nil {
		return Node{}, err
	}

	info, statErr := filesystem.Stat(full, s.retry)
	if statErr != nil {
		return Node{}, fmt.Errorf("%w: %s", ErrNotFound, rel)
	}

	rel = Normalize(rel)
	node := Node{
		Name:      path.Base(rel),
		Path:      rel,
		IsDir:     info.IsDir(),
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}
	if info.IsDir() {
		node.MediaType = mediatypes.TypeDirectory
		node.Size = 0
	} else {
		node.MediaType = mediatypes.Classify(strings.ToLower(path.Ext(rel)))
	}
	return node, nil
}

// MediaFiles returns the immediate media-file children (image, video, audio)
// of a root-relative directory.
func (s *Scanner) MediaFiles(rel string) ([]Node, error) {
	nodes, err := s.List(rel)
	if err != nil {
		return nil, err
	}

	media := nodes[:0]
	for _, node := range nodes {
		if !node.IsDir && node.MediaType != mediatypes.TypeFile {
			media = append(media, node)
		}
	}
	return media, nil
}

func (s *Scanner) entryToNode(entry os.DirEntry, parent string) (Node, bool) {
	info, err := entry.Info()
	if err != nil {
		return Node{}, false
	}

	childPath := entry.Name()
	if parent != "" {
		childPath = parent + "/" + entry.Name()
	}

	node := Node{
		Name:      entry.Name(),
		Path:      childPath,
		UpdatedAt: info.ModTime(),
	}

	if entry.IsDir() {
		node.IsDir = true
		node.MediaType = mediatypes.TypeDirectory
		return node, true
	}

	node.Size = info.Size()
	node.MediaType = mediatypes.Classify(strings.ToLower(filepath.Ext(entry.Name())))
	return node, true
}

func sortNodes(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].IsDir != nodes[j].IsDir {
			return nodes[i].IsDir
		}
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})
}
