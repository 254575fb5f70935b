package mapdump

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoTransaction is returned when records are written outside Begin/End
var ErrNoTransaction = errors.New("dump not started")

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS dump_sessions (
	session    TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	routes     INTEGER NOT NULL DEFAULT 0,
	records    INTEGER NOT NULL DEFAULT 0,
	digest     TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS dump_records (
	session   TEXT NOT NULL REFERENCES dump_sessions(session),
	seq       INTEGER NOT NULL,
	msg_id    INTEGER NOT NULL,
	route_idx INTEGER NOT NULL,
	pipe_id   INTEGER NOT NULL,
	state     INTEGER NOT NULL,
	msg_count INTEGER NOT NULL,
	PRIMARY KEY (session, seq)
);`

// SQLiteSink stores dumps in a SQLite database. Each dump is written in one transaction.
type SQLiteSink struct {
	db      *sql.DB
	tx      *sql.Tx
	insert  *sql.Stmt
	session string
	seq     int
}

// OpenSQLiteSink opens (or creates) the database at path.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// SQLite allows one writer; readers wait for the dump transaction instead of failing busy
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// DB returns the underlying database handle.
func (s *SQLiteSink) DB() *sql.DB {
	return s.db
}

func (s *SQLiteSink) Begin(ctx context.Context, header Header) error {
	if s.tx != nil {
		s.rollback()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dump_sessions (session, kind, created_at) VALUES (?, ?, ?)`,
		header.Session, header.Kind, header.CreatedAt.Unix()); err != nil {
		tx.Rollback()
		return err
	}
	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO dump_records (session, seq, msg_id, route_idx, pipe_id, state, msg_count) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}

	s.tx = tx
	s.insert = insert
	s.session = header.Session
	s.seq = 0
	return nil
}

func (s *SQLiteSink) Write(ctx context.Context, record Record) error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	_, err := s.insert.ExecContext(ctx, s.session, s.seq,
		uint32(record.MsgID), record.Index, uint32(record.Pipe), record.State, record.MsgCount)
	if err != nil {
		s.rollback()
		return err
	}
	s.seq++
	return nil
}

func (s *SQLiteSink) End(ctx context.Context, summary Summary) error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	if _, err := s.tx.ExecContext(ctx,
		`UPDATE dump_sessions SET routes = ?, records = ?, digest = ? WHERE session = ?`,
		summary.Routes, summary.Records, summary.Digest, s.session); err != nil {
		s.rollback()
		return err
	}

	s.insert.Close()
	err := s.tx.Commit()
	s.tx, s.insert = nil, nil
	return err
}

// Abort rolls back the unfinished dump, releasing the connection.
func (s *SQLiteSink) Abort(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	s.rollback()
	return nil
}

// Close rolls back any unfinished dump and closes the database.
func (s *SQLiteSink) Close() error {
	if s.tx != nil {
		s.rollback()
	}
	return s.db.Close()
}

func (s *SQLiteSink) rollback() {
	if s.insert != nil {
		s.insert.Close()
	}
	s.tx.Rollback()
	s.tx, s.insert = nil, nil
}

var (
	_ Sink = (*SQLiteSink)(nil)
	_ Sink = (*JSONSink)(nil)
)
