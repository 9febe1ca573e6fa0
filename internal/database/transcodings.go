package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"media-streamer/internal/logging"
	"media-streamer/internal/transcoder"
)

// ListTranscodings returns every configured preset ordered by ID.
func (d *Database) ListTranscodings(ctx context.Context) ([]transcoder.Spec, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_transcodings", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var specs []transcoder.Spec
	specs, err = d.queryTranscodings(ctx, "SELECT "+transcodingColumns+" FROM transcodings ORDER BY id")
	return specs, err
}

// GetTranscoding retrieves a single preset by ID.
func (d *Database) GetTranscoding(ctx context.Context, id int64) (*transcoder.Spec, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_transcoding", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var spec transcoder.Spec
	spec, err = scanTranscoding(d.db.QueryRowContext(ctx,
		"SELECT "+transcodingColumns+" FROM transcodings WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, fmt.Errorf("transcoding %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// TranscodingsForPlayer returns the presets active for a player, in ID order.
func (d *Database) TranscodingsForPlayer(ctx context.Context, playerID string) ([]transcoder.Spec, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("transcodings_for_player", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	var specs []transcoder.Spec
	specs, err = d.queryTranscodings(ctx, `
	SELECT t.id, t.name, t.source_formats, t.target_format, t.step1, t.step2, t.step3, t.default_active
	FROM transcodings t
	JOIN player_transcodings pt ON pt.transcoding_id = t.id
	WHERE pt.player_id = ?
	ORDER BY t.id
	`, playerID)
	return specs, err
}

// CreateTranscoding inserts a preset and stores its ID on spec. A
// default-active preset is attached to every existing player.
func (d *Database) CreateTranscoding(ctx context.Context, spec *transcoder.Spec) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_transcoding", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	var result sql.Result
	if result, err = tx.ExecContext(ctx, insertTranscodingSQL, transcodingArgs(spec)...); err != nil {
		return err
	}
	if spec.ID, err = result.LastInsertId(); err != nil {
		return err
	}

	if spec.DefaultActive {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO player_transcodings (player_id, transcoding_id)
		SELECT id, ? FROM players
		`, spec.ID)
		if err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

// SetPlayerTranscodings replaces the set of presets active for a player.
func (d *Database) SetPlayerTranscodings(ctx context.Context, playerID string, transcodingIDs []int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_player_transcodings", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	var exists bool
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) > 0 FROM players WHERE id = ?", playerID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		err = fmt.Errorf("player %q: %w", playerID, ErrNotFound)
		return err
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM player_transcodings WHERE player_id = ?", playerID); err != nil {
		return err
	}
	for _, id := range transcodingIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO player_transcodings (player_id, transcoding_id) VALUES (?, ?)",
			playerID, id)
		if err != nil {
			return fmt.Errorf("attach transcoding %d: %w", id, err)
		}
	}

	err = tx.Commit()
	return err
}

// DeleteTranscoding removes a preset and detaches it from all players.
func (d *Database) DeleteTranscoding(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_transcoding", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var result sql.Result
	if result, err = d.db.ExecContext(ctx, "DELETE FROM transcodings WHERE id = ?", id); err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("transcoding %d: %w", id, ErrNotFound)
	}
	return nil
}

func (d *Database) queryTranscodings(ctx context.Context, query string, args ...any) ([]transcoder.Spec, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	var specs []transcoder.Spec
	for rows.Next() {
		spec, err := scanTranscoding(rows)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, rows.Err()
}
