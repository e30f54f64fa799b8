package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Alexander-D-Karpov/sleeves/internal/config"
	"github.com/Alexander-D-Karpov/sleeves/internal/errs"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

var errClosed = errors.New("database is closed")

// Database caches the last catalog received from the backend so local draws
// can use it when the backend is down.
type Database struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	logger *zap.Logger
}

func NewDatabase(cfg *config.Config, logger *zap.Logger) (*Database, error) {
	return Open(cfg.Storage.DatabasePath, cfg.Storage.EnableWAL, logger)
}

func Open(path string, enableWAL bool, logger *zap.Logger) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := openDatabase(path, enableWAL, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	storage := &Database{
		db:     db,
		logger: logger.Named("db"),
	}

	if err := storage.runMigrations(); err != nil {
		if closeErr := storage.Close(); closeErr != nil {
			logger.Warn("close database after migration error", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return storage, nil
}

func openDatabase(dbPath string, enableWAL bool, logger *zap.Logger) (*sql.DB, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		logger.Info("creating new database", zap.String("path", dbPath))
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=memory",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=30000",
	}

	if enableWAL {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				logger.Warn("close database after pragma error", zap.Error(closeErr))
			}
			return nil, fmt.Errorf("execute pragma %s: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("close database after ping error", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func (d *Database) checkClosed() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return errClosed
	}
	return nil
}

// SaveSleeves replaces the cached catalog with sleeves, keeping their order.
func (d *Database) SaveSleeves(ctx context.Context, sleeves []types.Sleeve) error {
	start := time.Now()

	if err := d.checkClosed(); err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			d.logger.Warn("rollback", zap.Error(err))
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sleeve_songs`); err != nil {
		return fmt.Errorf("clear sleeve songs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sleeves`); err != nil {
		return fmt.Errorf("clear sleeves: %w", err)
	}

	now := time.Now().UTC()
	for i, sleeve := range sleeves {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sleeves (id, name, genre, cost, refreshed_weekly, position, last_sync)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sleeve.ID, sleeve.Name, string(sleeve.Genre), sleeve.Cost, sleeve.RefreshedWeekly, i, now,
		); err != nil {
			return fmt.Errorf("insert sleeve %s: %w", sleeve.ID, err)
		}

		for pos, entry := range sleeve.Contents {
			if err := saveSong(ctx, tx, entry.Song); err != nil {
				return err
			}

			var weight sql.NullFloat64
			if entry.Weight != nil {
				weight = sql.NullFloat64{Float64: *entry.Weight, Valid: true}
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO sleeve_songs (sleeve_id, song_id, position, rarity, weight)
				VALUES (?, ?, ?, ?, ?)`,
				sleeve.ID, entry.ID, pos, string(entry.Rarity), weight,
			); err != nil {
				return fmt.Errorf("insert sleeve song %s/%s: %w", sleeve.ID, entry.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	d.logger.Debug("catalog cached", zap.Int("sleeves", len(sleeves)), zap.Duration("duration", time.Since(start)))
	return nil
}

func saveSong(ctx context.Context, tx *sql.Tx, song types.Song) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO songs (id, title, artist, cover_url, genre, spotify_track_id, spotify_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			cover_url = excluded.cover_url,
			genre = excluded.genre,
			spotify_track_id = excluded.spotify_track_id,
			spotify_url = excluded.spotify_url,
			updated_at = CURRENT_TIMESTAMP`,
		song.ID, song.Title, song.Artist, song.CoverURL, song.Genre,
		nullString(song.SpotifyTrackID), nullString(song.SpotifyURL),
	)
	if err != nil {
		return fmt.Errorf("save song %s: %w", song.ID, err)
	}
	return nil
}

// Sleeves returns the cached catalog in the order it was saved.
func (d *Database) Sleeves(ctx context.Context) ([]types.Sleeve, error) {
	if err := d.checkClosed(); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, genre, cost, refreshed_weekly, last_sync
		FROM sleeves
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query sleeves: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			d.logger.Warn("close rows", zap.Error(closeErr))
		}
	}()

	var sleeves []types.Sleeve
	for rows.Next() {
		var s types.Sleeve
		var genre string
		if err := rows.Scan(&s.ID, &s.Name, &genre, &s.Cost, &s.RefreshedWeekly, &s.LastSync); err != nil {
			return nil, fmt.Errorf("scan sleeve: %w", err)
		}
		s.Genre = types.SleeveGenre(genre)
		sleeves = append(sleeves, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range sleeves {
		contents, err := d.loadContents(ctx, sleeves[i].ID)
		if err != nil {
			return nil, err
		}
		sleeves[i].Contents = contents
	}

	return sleeves, nil
}

func (d *Database) Sleeve(ctx context.Context, id string) (*types.Sleeve, error) {
	sleeves, err := d.Sleeves(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sleeves {
		if sleeves[i].ID == id {
			return &sleeves[i], nil
		}
	}
	return nil, fmt.Errorf("sleeve %q: %w", id, errs.ErrSleeveNotFound)
}

func (d *Database) loadContents(ctx context.Context, sleeveID string) ([]types.SleeveSong, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.artist, s.cover_url, s.genre, s.spotify_track_id, s.spotify_url,
		       ss.rarity, ss.weight
		FROM sleeve_songs ss
		JOIN songs s ON s.id = ss.song_id
		WHERE ss.sleeve_id = ?
		ORDER BY ss.position`, sleeveID)
	if err != nil {
		return nil, fmt.Errorf("query sleeve songs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			d.logger.Warn("close rows", zap.Error(closeErr))
		}
	}()

	contents := []types.SleeveSong{}
	for rows.Next() {
		var entry types.SleeveSong
		var rarity string
		var trackID, spotifyURL sql.NullString
		var weight sql.NullFloat64

		if err := rows.Scan(
			&entry.ID, &entry.Title, &entry.Artist, &entry.CoverURL, &entry.Genre,
			&trackID, &spotifyURL, &rarity, &weight,
		); err != nil {
			return nil, fmt.Errorf("scan sleeve song: %w", err)
		}

		entry.Rarity = types.Rarity(rarity)
		entry.SpotifyTrackID = fromNullString(trackID)
		entry.SpotifyURL = fromNullString(spotifyURL)
		if weight.Valid {
			w := weight.Float64
			entry.Weight = &w
		}
		contents = append(contents, entry)
	}

	return contents, rows.Err()
}

func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
