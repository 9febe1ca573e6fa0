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

// GetPlayer retrieves a player by ID.
func (d *Database) GetPlayer(ctx context.Context, id string) (*transcoder.Player, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_player", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var player *transcoder.Player
	player, err = scanPlayer(d.db.QueryRowContext(ctx,
		"SELECT "+playerColumns+" FROM players WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, fmt.Errorf("player %q: %w", id, ErrNotFound)
	}
	return player, err
}

// ListPlayers returns all players ordered by ID.
func (d *Database) ListPlayers(ctx context.Context) ([]transcoder.Player, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_players", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT "+playerColumns+" FROM players ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	var players []transcoder.Player
	for rows.Next() {
		var p *transcoder.Player
		if p, err = scanPlayer(rows); err != nil {
			return nil, err
		}
		players = append(players, *p)
	}
	err = rows.Err()
	return players, err
}

// UpsertPlayer creates or updates a player. A newly created player is
// attached to every default-active transcoding preset. Reports whether the
// player was created.
func (d *Database) UpsertPlayer(ctx context.Context, player *transcoder.Player) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_player", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	var exists bool
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) > 0 FROM players WHERE id = ?", player.ID).Scan(&exists); err != nil {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO players (id, name, username, scheme, last_seen)
	VALUES (?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		username = excluded.username,
		scheme = excluded.scheme,
		last_seen = strftime('%s', 'now')
	`, player.ID, player.Name, player.Username, int(player.Scheme))
	if err != nil {
		return false, err
	}

	if !exists {
		_, err = tx.ExecContext(ctx, `
		INSERT INTO player_transcodings (player_id, transcoding_id)
		SELECT ?, id FROM transcodings WHERE default_active = 1
		`, player.ID)
		if err != nil {
			return false, err
		}
		logging.Info("Registered player %s (%s)", player.ID, player.Name)
	}

	err = tx.Commit()
	return !exists, err
}
