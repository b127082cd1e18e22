// Package store provides the conversation store adapters: append-only
// persistence of the message log with timestamp-ordered queries, one
// SQLite and one MongoDB implementation behind the same interface.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"zapbridge/internal/domain"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.MessageStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection: SQLite is the sole arbiter of write ordering.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id                TEXT PRIMARY KEY,
		nome              TEXT NOT NULL,
		telefone          TEXT NOT NULL,
		destinatario      TEXT,
		mensagem          TEXT,
		is_group          INTEGER NOT NULL DEFAULT 0,
		data              DATETIME NOT NULL,
		arquivo_mimetype  TEXT,
		arquivo_filename  TEXT,
		arquivo_data      TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_messages_data ON messages(data);
	CREATE INDEX IF NOT EXISTS idx_messages_participant ON messages(telefone, data);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Append writes one immutable record. The timestamp is assigned here,
// at write time, when the record carries none.
func (s *SQLiteStore) Append(ctx context.Context, msg domain.StoredMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	var mimeType, filename, payload sql.NullString
	if msg.Attachment != nil {
		mimeType = sql.NullString{String: msg.Attachment.MimeType, Valid: true}
		filename = sql.NullString{String: msg.Attachment.Filename, Valid: true}
		payload = sql.NullString{String: msg.Attachment.Data, Valid: true}
	}

	recipient := sql.NullString{String: msg.RecipientPhone, Valid: msg.RecipientPhone != ""}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, nome, telefone, destinatario, mensagem, is_group, data, arquivo_mimetype, arquivo_filename, arquivo_data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SenderName, msg.SenderPhone, recipient, msg.Body, msg.IsGroup, msg.Timestamp,
		mimeType, filename, payload,
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) All(ctx context.Context, order domain.Order) ([]domain.StoredMessage, error) {
	dir := "ASC"
	if order == domain.Descending {
		dir = "DESC"
	}
	// rowid breaks timestamp ties by arrival order.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, nome, telefone, destinatario, mensagem, is_group, data, arquivo_mimetype, arquivo_filename, arquivo_data
		 FROM messages ORDER BY data `+dir+`, rowid `+dir,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *SQLiteStore) ByParticipant(ctx context.Context, phone string) ([]domain.StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, nome, telefone, destinatario, mensagem, is_group, data, arquivo_mimetype, arquivo_filename, arquivo_data
		 FROM messages WHERE telefone = ? OR destinatario = ?
		 ORDER BY data ASC, rowid ASC`,
		phone, phone,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]domain.StoredMessage, error) {
	var msgs []domain.StoredMessage
	for rows.Next() {
		var m domain.StoredMessage
		var recipient, mimeType, filename, payload sql.NullString
		if err := rows.Scan(&m.ID, &m.SenderName, &m.SenderPhone, &recipient,
			&m.Body, &m.IsGroup, &m.Timestamp, &mimeType, &filename, &payload); err != nil {
			return nil, err
		}
		m.RecipientPhone = recipient.String
		if mimeType.Valid {
			m.Attachment = &domain.Attachment{
				MimeType: mimeType.String,
				Filename: filename.String,
				Data:     payload.String,
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
