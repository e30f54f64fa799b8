package storage

import (
	"fmt"
)

func (d *Database) runMigrations() error {
	migrations := []string{
		createTables,
		createIndexes,
	}

	for i, migration := range migrations {
		if _, err := d.db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

const createTables = `
CREATE TABLE IF NOT EXISTS songs (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	artist TEXT NOT NULL,
	cover_url TEXT DEFAULT '',
	genre TEXT DEFAULT '',
	spotify_track_id TEXT,
	spotify_url TEXT,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sleeves (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	genre TEXT NOT NULL,
	cost INTEGER NOT NULL DEFAULT 0,
	refreshed_weekly BOOLEAN DEFAULT FALSE,
	position INTEGER NOT NULL DEFAULT 0,
	last_sync TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sleeve_songs (
	sleeve_id TEXT NOT NULL,
	song_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	rarity TEXT NOT NULL,
	weight REAL,
	PRIMARY KEY (sleeve_id, position),
	FOREIGN KEY (sleeve_id) REFERENCES sleeves(id) ON DELETE CASCADE,
	FOREIGN KEY (song_id) REFERENCES songs(id) ON DELETE CASCADE
);
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_sleeves_genre ON sleeves(genre);
CREATE INDEX IF NOT EXISTS idx_sleeves_position ON sleeves(position);
CREATE INDEX IF NOT EXISTS idx_sleeve_songs_sleeve ON sleeve_songs(sleeve_id, position);
CREATE INDEX IF NOT EXISTS idx_sleeve_songs_song ON sleeve_songs(song_id);
`
