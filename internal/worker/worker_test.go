package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"media-browser/internal/database"
	"media-browser/internal/events"
	"media-browser/internal/mediatypes"
	"media-browser/internal/scanner"
)

type fakeSource struct {
	mu        sync.Mutex
	jobs      []*database.ThumbJob
	completed []int64
	dropped   []int64
}

func (f *fakeSource) Claim(ctx context.Context) (*database.ThumbJob, error) {
	f.mu.Lock()
	if len(f.jobs) > 0 {
		job := f.jobs[0]
		f.jobs = f.jobs[1:]
		f.mu.Unlock()
		return job, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return nil, nil
}

func (f *fakeSource) Complete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeSource) Drop(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, id)
	return nil
}

func (f *fakeSource) settled() (completed, dropped []int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.completed...), append([]int64(nil), f.dropped...)
}

type fakeGenerator struct {
	mu        sync.Mutex
	existing  map[string]bool
	generated []string
	failFor   map[string]bool
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		existing: make(map[string]bool),
		failFor:  make(map[string]bool),
	}
}

func (f *fakeGenerator) Exists(relPath string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[relPath]
}

func (f *fakeGenerator) Generate(_ context.Context, _, relPath string, _ mediatypes.MediaType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[relPath] {
		return errors.New("decode failed")
	}
	if f.existing[relPath] {
		return nil
	}
	f.existing[relPath] = true
	f.generated = append(f.generated, relPath)
	return nil
}

func (f *fakeGenerator) generatedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.generated...)
}

type fakeLister struct {
	nodes map[string]scanner.Node
	files map[string][]scanner.Node
}

func (f *fakeLister) Resolve(rel string) (string, error) {
	return "/media/" + rel, nil
}

func (f *fakeLister) Stat(rel string) (scanner.Node, error) {
	node, ok := f.nodes[rel]
	if !ok {
		return scanner.Node{}, scanner.ErrNotFound
	}
	return node, nil
}

func (f *fakeLister) MediaFiles(rel string) ([]scanner.Node, error) {
	files, ok := f.files[rel]
	if !ok {
		return nil, scanner.ErrNotFound
	}
	return files, nil
}

func imageNode(path string) scanner.Node {
	return scanner.Node{Name: path, Path: path, MediaType: mediatypes.TypeImage}
}

func runPoolUntil(t *testing.T, pool *Pool, done func() bool) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	deadline := time.After(3 * time.Second)
	for !done() {
		select {
		case <-deadline:
			t.Fatal("pool did not finish in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestFileJobGeneratesAndPublishes(t *testing.T) {
	source := &fakeSource{jobs: []*database.ThumbJob{
		{ID: 1, DedupKey: "k1", Kind: database.JobKindFile, TargetPath: "photos/a.jpg"},
	}}
	gen := newFakeGenerator()
	lister := &fakeLister{nodes: map[string]scanner.Node{
		"photos/a.jpg": imageNode("photos/a.jpg"),
	}}
	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()
	defer sub.Close()

	pool := NewPool(1, source, gen, lister, bus)
	runPoolUntil(t, pool, func() bool {
		completed, _ := source.settled()
		return len(completed) == 1
	})

	if got := gen.generatedPaths(); len(got) != 1 || got[0] != "photos/a.jpg" {
		t.Errorf("generated %v, want [photos/a.jpg]", got)
	}

	select {
	case event := <-sub.Events():
		if event.FilePath != "photos/a.jpg" || event.DirPath != "photos" {
			t.Errorf("event = %+v, want file photos/a.jpg in photos", event)
		}
	case <-time.After(time.Second):
		t.Fatal("no completion event received")
	}
}

func TestDirectoryJobExpandsAndSkipsCached(t *testing.T) {
	source := &fakeSource{jobs: []*database.ThumbJob{
		{ID: 1, DedupKey: "k1", Kind: database.JobKindDirectory, TargetPath: "photos"},
	}}
	gen := newFakeGenerator()
	gen.existing["photos/cached.jpg"] = true
	lister := &fakeLister{files: map[string][]scanner.Node{
		"photos": {
			imageNode("photos/new.jpg"),
			imageNode("photos/cached.jpg"),
			{Name: "song.mp3", Path: "photos/song.mp3", MediaType: mediatypes.TypeAudio},
		},
	}}
	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()
	defer sub.Close()

	pool := NewPool(1, source, gen, lister, bus)
	runPoolUntil(t, pool, func() bool {
		completed, _ := source.settled()
		return len(completed) == 1
	})

	if got := gen.generatedPaths(); len(got) != 1 || got[0] != "photos/new.jpg" {
		t.Errorf("generated %v, want only photos/new.jpg", got)
	}

	select {
	case event := <-sub.Events():
		if event.DirPath != "photos" || event.FilePath != "" {
			t.Errorf("event = %+v, want directory event for photos", event)
		}
	case <-time.After(time.Second):
		t.Fatal("no completion event received")
	}

	// Exactly one event for the whole directory job.
	select {
	case extra := <-sub.Events():
		t.Errorf("unexpected second event %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFailedJobIsDroppedWithoutEvent(t *testing.T) {
	source := &fakeSource{jobs: []*database.ThumbJob{
		{ID: 7, DedupKey: "k7", Kind: database.JobKindFile, TargetPath: "photos/bad.jpg"},
	}}
	gen := newFakeGenerator()
	gen.failFor["photos/bad.jpg"] = true
	lister := &fakeLister{nodes: map[string]scanner.Node{
		"photos/bad.jpg": imageNode("photos/bad.jpg"),
	}}
	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()
	defer sub.Close()

	pool := NewPool(1, source, gen, lister, bus)
	runPoolUntil(t, pool, func() bool {
		_, dropped := source.settled()
		return len(dropped) == 1
	})

	completed, dropped := source.settled()
	if len(completed) != 0 {
		t.Errorf("failed job was completed: %v", completed)
	}
	if len(dropped) != 1 || dropped[0] != 7 {
		t.Errorf("dropped = %v, want [7]", dropped)
	}

	select {
	case event := <-sub.Events():
		t.Errorf("failed job published event %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNonThumbableFileJobCompletes(t *testing.T) {
	source := &fakeSource{jobs: []*database.ThumbJob{
		{ID: 2, DedupKey: "k2", Kind: database.JobKindFile, TargetPath: "notes.txt"},
	}}
	gen := newFakeGenerator()
	lister := &fakeLister{nodes: map[string]scanner.Node{
		"notes.txt": {Name: "notes.txt", Path: "notes.txt", MediaType: mediatypes.TypeFile},
	}}
	bus := events.NewBus()
	defer bus.Close()

	pool := NewPool(1, source, gen, lister, bus)
	runPoolUntil(t, pool, func() bool {
		completed, _ := source.settled()
		return len(completed) == 1
	})

	if got := gen.generatedPaths(); len(got) != 0 {
		t.Errorf("generated %v for non-thumbable file, want none", got)
	}
}
