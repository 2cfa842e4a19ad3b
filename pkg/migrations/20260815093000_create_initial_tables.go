package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE libraries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL UNIQUE,
				path TEXT NOT NULL UNIQUE,
				is_default BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE series (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				title TEXT,
				title_english TEXT,
				title_japanese TEXT,
				synonyms TEXT,
				authors TEXT,
				synopsis TEXT,
				genres TEXT,
				tags TEXT,
				demographics TEXT,
				status TEXT,
				total_volumes INTEGER,
				total_chapters INTEGER,
				release_year INTEGER,
				mal_id INTEGER,
				anilist_id INTEGER,
				cover_comic_id TEXT,
				category TEXT,
				subcategory TEXT,
				is_adult BOOLEAN NOT NULL DEFAULT FALSE,
				is_nsfw BOOLEAN NOT NULL DEFAULT FALSE,
				nsfw_override BOOLEAN
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_series_name ON series (name)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE comics (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				path TEXT NOT NULL,
				filename TEXT NOT NULL,
				series TEXT NOT NULL,
				series_id INTEGER REFERENCES series (id),
				category TEXT NOT NULL,
				subcategory TEXT,
				size_bytes INTEGER NOT NULL DEFAULT 0,
				size_str TEXT,
				mtime INTEGER NOT NULL DEFAULT 0,
				pages INTEGER,
				processed BOOLEAN NOT NULL DEFAULT FALSE,
				has_thumbnail BOOLEAN NOT NULL DEFAULT FALSE,
				thumbnail_ext TEXT,
				file_hash TEXT,
				volume REAL,
				chapter REAL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_comics_path ON comics (path)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_comics_series_id ON comics (series_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_comics_processed ON comics (processed)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_comics_file_hash ON comics (file_hash)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE scan_jobs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				started_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				completed_at TIMESTAMPTZ,
				status TEXT NOT NULL CHECK (status IN ('running', 'completed', 'failed', 'cancelled')),
				scan_type TEXT NOT NULL DEFAULT 'full',
				phase TEXT,
				current_file TEXT,
				total_files INTEGER NOT NULL DEFAULT 0,
				processed_files INTEGER NOT NULL DEFAULT 0,
				new_comics INTEGER NOT NULL DEFAULT 0,
				changed_comics INTEGER NOT NULL DEFAULT 0,
				deleted_comics INTEGER NOT NULL DEFAULT 0,
				processed_pages INTEGER NOT NULL DEFAULT 0,
				page_errors INTEGER NOT NULL DEFAULT 0,
				processed_thumbnails INTEGER NOT NULL DEFAULT 0,
				thumbnail_errors INTEGER NOT NULL DEFAULT 0,
				thumb_bytes_written INTEGER NOT NULL DEFAULT 0,
				thumb_bytes_saved INTEGER NOT NULL DEFAULT 0,
				cancel_requested BOOLEAN NOT NULL DEFAULT FALSE,
				process_id TEXT,
				errors TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_scan_jobs_status ON scan_jobs (status)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE tag_modifications (
				source_norm TEXT PRIMARY KEY,
				action TEXT NOT NULL CHECK (action IN ('blacklist', 'whitelist', 'merge')),
				target_norm TEXT,
				display_name TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE admin_settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE reading_progress (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				comic_id TEXT NOT NULL REFERENCES comics (id) ON DELETE CASCADE,
				page INTEGER NOT NULL DEFAULT 0,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_reading_progress_comic_id ON reading_progress (comic_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE bookmarks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				comic_id TEXT NOT NULL REFERENCES comics (id) ON DELETE CASCADE,
				page INTEGER NOT NULL DEFAULT 0,
				name TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_bookmarks_comic_id ON bookmarks (comic_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		return nil
	}
	down := func(_ context.Context, _ *bun.DB) error {
		return nil
	}

	Migrations.MustRegister(up, down)
}
