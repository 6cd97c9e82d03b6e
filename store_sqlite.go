package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const itemCounter = "item_id"

// SQLiteStore keeps items in a SQLite file; the integer primary key gives
// ascending id iteration for free.
type SQLiteStore struct {
	DB *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the database at path and applies migrations.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir %s: %w", dir, err)
		}
	}
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := runMigrations(ctx, db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{DB: db}, nil
}

func (s *SQLiteStore) AllocateID(ctx context.Context) (uint64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx,
		`UPDATE counters SET value = value + 1 WHERE name = ? RETURNING value - 1`,
		itemCounter,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("advance id counter: counter %q missing", itemCounter)
		}
		return 0, fmt.Errorf("advance id counter: %w", err)
	}
	return uint64(id), nil
}

func (s *SQLiteStore) Get(ctx context.Context, id uint64) (Item, bool, error) {
	var record []byte
	err := s.DB.QueryRowContext(ctx, `SELECT record FROM items WHERE id = ?`, int64(id)).Scan(&record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, false, nil
		}
		return Item{}, false, err
	}
	item, err := decodeItem(id, record)
	if err != nil {
		return Item{}, false, err
	}
	return item, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, item Item) error {
	record, err := encodeItem(item)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO items (id, record) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET record = excluded.record`,
		int64(item.ID), record,
	)
	return err
}

func (s *SQLiteStore) Remove(ctx context.Context, id uint64) (Item, bool, error) {
	var record []byte
	err := s.DB.QueryRowContext(ctx, `DELETE FROM items WHERE id = ? RETURNING record`, int64(id)).Scan(&record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, false, nil
		}
		return Item{}, false, err
	}
	item, err := decodeItem(id, record)
	if err != nil {
		return Item{}, false, err
	}
	return item, true, nil
}

func (s *SQLiteStore) Iterate(ctx context.Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		rows, err := s.DB.QueryContext(ctx, `SELECT id, record FROM items ORDER BY id`)
		if err != nil {
			yield(Item{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id     int64
				record []byte
			)
			if err := rows.Scan(&id, &record); err != nil {
				yield(Item{}, err)
				return
			}
			item, err := decodeItem(uint64(id), record)
			if !yield(item, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Item{}, err)
		}
	}
}

func (s *SQLiteStore) Close() error {
	return s.DB.Close()
}
