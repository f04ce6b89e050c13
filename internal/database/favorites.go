package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AddFavorite marks a media record as a favorite for a user. Adding an
// existing favorite is a no-op, not an error.
func (d *Database) AddFavorite(ctx context.Context, userID, mediaID int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("add_favorite", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, media_id)
		VALUES (?, ?)
		ON CONFLICT(user_id, media_id) DO NOTHING
	`, userID, mediaID)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite removes a favorite. Removing a non-favorite is a no-op.
func (d *Database) RemoveFavorite(ctx context.Context, userID, mediaID int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("remove_favorite", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id = ? AND media_id = ?",
		userID, mediaID,
	)
	return err
}

// IsFavorite reports whether a media record is favorited by a user.
func (d *Database) IsFavorite(ctx context.Context, userID, mediaID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM favorites WHERE user_id = ? AND media_id = ?",
		userID, mediaID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FavoriteIDs returns the set of favorited media IDs for a user, restricted
// to the given candidates. Used by the reconciler merge.
func (d *Database) FavoriteIDs(ctx context.Context, userID int64, mediaIDs []int64) (map[int64]bool, error) {
	if len(mediaIDs) == 0 {
		return map[int64]bool{}, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("favorite_ids", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT media_id FROM favorites WHERE user_id = ? AND media_id IN (%s)",
		placeholders(len(mediaIDs)),
	)
	args := make([]interface{}, 0, len(mediaIDs)+1)
	args = append(args, userID)
	for _, id := range mediaIDs {
		args = append(args, id)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if scanErr := rows.Scan(&id); scanErr != nil {
			continue
		}
		result[id] = true
	}
	err = rows.Err()
	return result, err
}

// ListFavorites returns all favorited media records for a user, most
// recently favorited first.
func (d *Database) ListFavorites(ctx context.Context, userID int64) ([]MediaRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_favorites", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT m.id, m.path, m.title, m.file_mtime, m.file_size
		FROM favorites f
		INNER JOIN media m ON m.id = f.media_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var favorites []MediaRecord
	for rows.Next() {
		var rec MediaRecord
		var title sql.NullString
		var mtime int64

		if scanErr := rows.Scan(&rec.ID, &rec.Path, &title, &mtime, &rec.FileSize); scanErr != nil {
			continue
		}
		rec.Title = title.String
		rec.FileMtime = time.Unix(mtime, 0)
		favorites = append(favorites, rec)
	}
	err = rows.Err()
	return favorites, err
}
