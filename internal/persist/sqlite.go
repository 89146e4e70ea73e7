package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/memoria-cultural/memoria/constants"
	"github.com/memoria-cultural/memoria/internal/common"
)

// SQLiteStore is a TaskStore whose history survives process restarts.
// Same contract as MemoryStore; selected via PERSIST_SQLITE_PATH.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id              TEXT PRIMARY KEY,
	status          TEXT NOT NULL,
	total_items     INTEGER NOT NULL,
	processed_items INTEGER NOT NULL DEFAULT 0,
	error           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS task_results (
	task_id    TEXT NOT NULL REFERENCES tasks(id),
	seq        INTEGER NOT NULL,
	item_title TEXT NOT NULL,
	status     TEXT NOT NULL,
	message    TEXT NOT NULL,
	uri        TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (task_id, seq)
);`

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open task store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate task store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Create(ctx context.Context, t *Task) error {
	created := t.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, status, total_items, processed_items, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Status), t.TotalItems, t.ProcessedItems, t.Error, created)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Task, error) {
	var t Task
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, total_items, processed_items, error, created_at FROM tasks WHERE id = ?`, id).
		Scan(&t.ID, &status, &t.TotalItems, &t.ProcessedItems, &t.Error, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Status = constants.TaskStatus(status)

	rows, err := s.db.QueryContext(ctx,
		`SELECT item_title, status, message, uri FROM task_results WHERE task_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var r ItemResult
		var itemStatus string
		if err := rows.Scan(&r.ItemTitle, &itemStatus, &r.Message, &r.URI); err != nil {
			return nil, err
		}
		r.Status = constants.ItemStatus(itemStatus)
		t.Results = append(t.Results, r)
	}
	return &t, rows.Err()
}

func (s *SQLiteStore) SetStatus(ctx context.Context, id string, status constants.TaskStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) Fail(ctx context.Context, id, message string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ?, error = ? WHERE id = ?`,
		string(constants.TaskStatusFailed), message, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) AppendResult(ctx context.Context, id string, r ItemResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM task_results WHERE task_id = ?`, id).Scan(&seq); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO task_results (task_id, seq, item_title, status, message, uri) VALUES (?, ?, ?, ?, ?, ?)`,
		id, seq, r.ItemTitle, string(r.Status), r.Message, r.URI); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET processed_items = processed_items + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
