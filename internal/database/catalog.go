package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"media-streamer/internal/transcoder"
)

// GetMediaFile retrieves a catalog entry by ID.
func (d *Database) GetMediaFile(ctx context.Context, id int64) (*transcoder.MediaFile, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_media_file", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var file *transcoder.MediaFile
	file, err = scanMediaFile(d.db.QueryRowContext(ctx,
		"SELECT "+mediaFileColumns+" FROM media_files WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, fmt.Errorf("media file %d: %w", id, ErrNotFound)
	}
	return file, err
}

// GetMediaFileByPath retrieves a catalog entry by its absolute path.
func (d *Database) GetMediaFileByPath(ctx context.Context, path string) (*transcoder.MediaFile, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_media_file_by_path", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var file *transcoder.MediaFile
	file, err = scanMediaFile(d.db.QueryRowContext(ctx,
		"SELECT "+mediaFileColumns+" FROM media_files WHERE path = ?", path))
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, fmt.Errorf("media file %q: %w", path, ErrNotFound)
	}
	return file, err
}

// UpsertMediaFile inserts or updates a catalog entry keyed by path and
// stores the resulting ID on file.
func (d *Database) UpsertMediaFile(ctx context.Context, file *transcoder.MediaFile) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_media_file", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	INSERT INTO media_files (path, format, bit_rate, variable_bit_rate, duration_seconds,
		width, height, is_video, podcast, file_size, title, album, artist, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(path) DO UPDATE SET
		format = excluded.format,
		bit_rate = excluded.bit_rate,
		variable_bit_rate = excluded.variable_bit_rate,
		duration_seconds = excluded.duration_seconds,
		width = excluded.width,
		height = excluded.height,
		is_video = excluded.is_video,
		podcast = excluded.podcast,
		file_size = excluded.file_size,
		title = excluded.title,
		album = excluded.album,
		artist = excluded.artist,
		updated_at = strftime('%s', 'now')
	RETURNING id
	`

	err = d.db.QueryRowContext(ctx, query,
		file.Path,
		file.Format,
		intOrNull(file.BitRate),
		file.VariableBitRate,
		intOrNull(file.DurationSeconds),
		intOrNull(file.Width),
		intOrNull(file.Height),
		file.IsVideo,
		file.Podcast,
		file.FileSize,
		file.Title,
		file.Album,
		file.Artist,
	).Scan(&file.ID)
	return err
}
