package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"media-streamer/internal/transcoder"
)

// UserScheme returns the bitrate ceiling configured for a user. Users with
// no stored setting are unlimited.
func (d *Database) UserScheme(ctx context.Context, username string) (transcoder.Scheme, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("user_scheme", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var scheme int
	err = d.db.QueryRowContext(ctx, "SELECT scheme FROM user_settings WHERE username = ?", username).Scan(&scheme)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return transcoder.SchemeOff, nil
	}
	if err != nil {
		return transcoder.SchemeOff, err
	}
	return transcoder.Scheme(scheme), nil
}

// SetUserScheme stores the bitrate ceiling for a user.
func (d *Database) SetUserScheme(ctx context.Context, username string, scheme transcoder.Scheme) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_user_scheme", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
	INSERT INTO user_settings (username, scheme) VALUES (?, ?)
	ON CONFLICT(username) DO UPDATE SET scheme = excluded.scheme
	`, username, int(scheme))
	return err
}
