package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertMediaCreatesAndUpdates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mtime := time.Unix(1700000000, 0)
	if err := db.UpsertMedia(ctx, "photos/cat.jpg", mtime, 1024); err != nil {
		t.Fatalf("initial upsert failed: %v", err)
	}

	rec, err := db.GetMediaByPath(ctx, "photos/cat.jpg")
	if err != nil {
		t.Fatalf("get after upsert failed: %v", err)
	}
	if rec.FileSize != 1024 {
		t.Errorf("size = %d, want 1024", rec.FileSize)
	}
	if !rec.FileMtime.Equal(mtime) {
		t.Errorf("mtime = %v, want %v", rec.FileMtime, mtime)
	}

	// A second upsert with new stats updates the snapshot in place.
	newMtime := mtime.Add(time.Hour)
	if err := db.UpsertMedia(ctx, "photos/cat.jpg", newMtime, 2048); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	updated, err := db.GetMediaByPath(ctx, "photos/cat.jpg")
	if err != nil {
		t.Fatalf("get after second upsert failed: %v", err)
	}
	if updated.ID != rec.ID {
		t.Errorf("upsert created a new row: id %d != %d", updated.ID, rec.ID)
	}
	if updated.FileSize != 2048 {
		t.Errorf("size = %d, want 2048", updated.FileSize)
	}

	count, err := db.MediaCount(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("media count = %d, want 1", count)
	}
}

func TestUpsertMediaPreservesTitle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mtime := time.Unix(1700000000, 0)
	if err := db.UpsertMedia(ctx, "videos/trip.mp4", mtime, 500); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := db.SetTitle(ctx, "videos/trip.mp4", "Summer Trip"); err != nil {
		t.Fatalf("set title failed: %v", err)
	}

	if err := db.UpsertMedia(ctx, "videos/trip.mp4", mtime.Add(time.Minute), 600); err != nil {
		t.Fatalf("re-upsert failed: %v", err)
	}

	rec, err := db.GetMediaByPath(ctx, "videos/trip.mp4")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rec.Title != "Summer Trip" {
		t.Errorf("title = %q, want preserved override", rec.Title)
	}
}

func TestUpsertMediaConcurrentSamePath(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mtime := time.Unix(1700000000, 0)
	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := db.UpsertMedia(ctx, "photos/race.jpg", mtime, 42); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent upsert failed: %v", err)
	}

	count, err := db.MediaCount(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("media count = %d, want 1 after concurrent upserts", count)
	}
}

func TestSetTitleWithoutRecord(t *testing.T) {
	db := newTestDB(t)

	err := db.SetTitle(context.Background(), "nope.jpg", "Ghost")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestGetMediaByPathsMissingAreAbsent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMedia(ctx, "a.jpg", time.Unix(1, 0), 1); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	records, err := db.GetMediaByPaths(ctx, []string{"a.jpg", "b.jpg"})
	if err != nil {
		t.Fatalf("batch get failed: %v", err)
	}
	if _, ok := records["a.jpg"]; !ok {
		t.Error("expected a.jpg in result")
	}
	if _, ok := records["b.jpg"]; ok {
		t.Error("b.jpg has no record and should be absent")
	}
}

func TestFavorites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMedia(ctx, "fav.jpg", time.Unix(1, 0), 1); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	rec, err := db.GetMediaByPath(ctx, "fav.jpg")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	const userID = 1
	if err := db.AddFavorite(ctx, userID, rec.ID); err != nil {
		t.Fatalf("add favorite failed: %v", err)
	}
	// Adding again is a no-op.
	if err := db.AddFavorite(ctx, userID, rec.ID); err != nil {
		t.Fatalf("re-add favorite failed: %v", err)
	}

	fav, err := db.IsFavorite(ctx, userID, rec.ID)
	if err != nil {
		t.Fatalf("is favorite failed: %v", err)
	}
	if !fav {
		t.Error("expected favorite after add")
	}

	list, err := db.ListFavorites(ctx, userID)
	if err != nil {
		t.Fatalf("list favorites failed: %v", err)
	}
	if len(list) != 1 || list[0].Path != "fav.jpg" {
		t.Errorf("favorites = %+v, want single fav.jpg", list)
	}

	if err := db.RemoveFavorite(ctx, userID, rec.ID); err != nil {
		t.Fatalf("remove favorite failed: %v", err)
	}
	fav, err = db.IsFavorite(ctx, userID, rec.ID)
	if err != nil {
		t.Fatalf("is favorite failed: %v", err)
	}
	if fav {
		t.Error("expected no favorite after remove")
	}
}

func TestTags(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.UpsertMedia(ctx, "tagged.jpg", time.Unix(1, 0), 1); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	rec, err := db.GetMediaByPath(ctx, "tagged.jpg")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if err := db.TagMedia(ctx, rec.ID, "vacation"); err != nil {
		t.Fatalf("tag failed: %v", err)
	}
	if err := db.TagMedia(ctx, rec.ID, "vacation"); err != nil {
		t.Fatalf("re-tag failed: %v", err)
	}
	if err := db.TagMedia(ctx, rec.ID, "beach"); err != nil {
		t.Fatalf("second tag failed: %v", err)
	}

	tags, err := db.ListTags(ctx)
	if err != nil {
		t.Fatalf("list tags failed: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("tag count = %d, want 2", len(tags))
	}
	for _, tag := range tags {
		if tag.ItemCount != 1 {
			t.Errorf("tag %q item count = %d, want 1", tag.Name, tag.ItemCount)
		}
	}

	byID, err := db.TagsByMediaIDs(ctx, []int64{rec.ID})
	if err != nil {
		t.Fatalf("tags by media failed: %v", err)
	}
	if got := byID[rec.ID]; len(got) != 2 {
		t.Errorf("tags for media = %v, want 2 entries", got)
	}

	if err := db.UntagMedia(ctx, rec.ID, "beach"); err != nil {
		t.Fatalf("untag failed: %v", err)
	}
	byID, err = db.TagsByMediaIDs(ctx, []int64{rec.ID})
	if err != nil {
		t.Fatalf("tags by media failed: %v", err)
	}
	if got := byID[rec.ID]; len(got) != 1 || got[0] != "vacation" {
		t.Errorf("tags after untag = %v, want [vacation]", got)
	}
}

func TestVisits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	const userID = 1
	_, visited, err := db.LastVisit(ctx, userID, "photos")
	if err != nil {
		t.Fatalf("last visit failed: %v", err)
	}
	if visited {
		t.Error("expected no visit before recording")
	}

	if err := db.RecordVisit(ctx, userID, "photos"); err != nil {
		t.Fatalf("record visit failed: %v", err)
	}
	when, visited, err := db.LastVisit(ctx, userID, "photos")
	if err != nil {
		t.Fatalf("last visit failed: %v", err)
	}
	if !visited {
		t.Fatal("expected a visit after recording")
	}
	if time.Since(when) > time.Minute {
		t.Errorf("visit time %v is stale", when)
	}
}

func TestAuthFlow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if db.HasSecret(ctx) {
		t.Fatal("fresh database should have no secret")
	}

	if err := db.SetSecret(ctx, "opensesame"); err != nil {
		t.Fatalf("set secret failed: %v", err)
	}
	if !db.HasSecret(ctx) {
		t.Fatal("expected secret after set")
	}

	if _, err := db.ValidateSecret(ctx, "wrong"); err == nil {
		t.Error("expected error for wrong secret")
	}

	user, err := db.ValidateSecret(ctx, "opensesame")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	token, err := db.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	session, err := db.GetSession(ctx, token)
	if err != nil {
		t.Fatalf("get session failed: %v", err)
	}
	if session.UserID != user.ID {
		t.Errorf("session user = %d, want %d", session.UserID, user.ID)
	}

	// Rotating the secret invalidates existing sessions.
	if err := db.SetSecret(ctx, "newsecret"); err != nil {
		t.Fatalf("rotate secret failed: %v", err)
	}
	if _, err := db.GetSession(ctx, token); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows after rotation, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SetSecret(ctx, "s3cret"); err != nil {
		t.Fatalf("set secret failed: %v", err)
	}
	user, err := db.ValidateSecret(ctx, "s3cret")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	token, err := db.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	if err := db.DeleteSession(ctx, token); err != nil {
		t.Fatalf("delete session failed: %v", err)
	}
	if _, err := db.GetSession(ctx, token); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}
