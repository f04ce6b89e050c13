package database

import (
	"context"
	"fmt"
	"time"
)

// ListTags returns all tags with their association counts.
func (d *Database) ListTags(ctx context.Context) ([]Tag, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_tags", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.created_at, COUNT(mt.media_id)
		FROM tags t
		LEFT JOIN media_tags mt ON mt.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.name COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var tag Tag
		var createdAt int64
		if scanErr := rows.Scan(&tag.ID, &tag.Name, &createdAt, &tag.ItemCount); scanErr != nil {
			continue
		}
		tag.CreatedAt = time.Unix(createdAt, 0)
		tags = append(tags, tag)
	}
	err = rows.Err()
	return tags, err
}

// TagMedia associates a tag (created on first use) with a media record.
// Re-tagging is a no-op.
func (d *Database) TagMedia(ctx context.Context, mediaID int64, tagName string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("tag_media", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tag transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING",
		tagName,
	); err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}

	var tagID int64
	if err = tx.QueryRowContext(ctx,
		"SELECT id FROM tags WHERE name = ?", tagName,
	).Scan(&tagID); err != nil {
		return fmt.Errorf("failed to resolve tag id: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO media_tags (media_id, tag_id)
		VALUES (?, ?)
		ON CONFLICT(media_id, tag_id) DO NOTHING
	`, mediaID, tagID); err != nil {
		return fmt.Errorf("failed to tag media: %w", err)
	}

	err = tx.Commit()
	return err
}

// UntagMedia removes a tag association from a media record.
func (d *Database) UntagMedia(ctx context.Context, mediaID int64, tagName string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("untag_media", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		DELETE FROM media_tags
		WHERE media_id = ? AND tag_id = (SELECT id FROM tags WHERE name = ?)
	`, mediaID, tagName)
	return err
}

// TagsByMediaIDs returns tag names grouped by media ID for the candidates.
func (d *Database) TagsByMediaIDs(ctx context.Context, mediaIDs []int64) (map[int64][]string, error) {
	if len(mediaIDs) == 0 {
		return map[int64][]string{}, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("tags_by_media", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT mt.media_id, t.name
		FROM media_tags mt
		INNER JOIN tags t ON t.id = mt.tag_id
		WHERE mt.media_id IN (%s)
		ORDER BY t.name COLLATE NOCASE
	`, placeholders(len(mediaIDs)))

	args := make([]interface{}, len(mediaIDs))
	for i, id := range mediaIDs {
		args[i] = id
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query media tags: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var name string
		if scanErr := rows.Scan(&id, &name); scanErr != nil {
			continue
		}
		result[id] = append(result[id], name)
	}
	err = rows.Err()
	return result, err
}
