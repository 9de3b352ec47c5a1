package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/daypulse/capture/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dsn and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'active',
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			categories_covered TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS pending_updates (
			update_id TEXT PRIMARY KEY,
			session_id TEXT,
			category TEXT NOT NULL,
			summary TEXT NOT NULL,
			raw_text TEXT,
			payload TEXT NOT NULL DEFAULT '{}',
			confidence REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			entity_id TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_status ON pending_updates(status, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_session ON pending_updates(session_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	covered, _ := json.Marshal(session.CategoriesCovered)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, status, started_at, categories_covered) VALUES (?, ?, ?, ?)`,
		session.SessionID, session.Status, session.StartedAt, string(covered))
	return err
}

// GetSession retrieves a session by ID. Returns nil when not found.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.scanSession(s.db.QueryRowContext(ctx,
		`SELECT session_id, status, started_at, ended_at, categories_covered FROM sessions WHERE session_id = ?`,
		sessionID))
}

// GetActiveSession retrieves the active session, if any.
func (s *SQLiteStore) GetActiveSession(ctx context.Context) (*domain.Session, error) {
	return s.scanSession(s.db.QueryRowContext(ctx,
		`SELECT session_id, status, started_at, ended_at, categories_covered FROM sessions WHERE status = ? ORDER BY started_at DESC LIMIT 1`,
		domain.SessionActive))
}

func (s *SQLiteStore) scanSession(row *sql.Row) (*domain.Session, error) {
	var session domain.Session
	var endedAt sql.NullTime
	var covered sql.NullString
	err := row.Scan(&session.SessionID, &session.Status, &session.StartedAt, &endedAt, &covered)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}
	session.CategoriesCovered = []string{}
	if covered.Valid && covered.String != "" {
		if err := json.Unmarshal([]byte(covered.String), &session.CategoriesCovered); err != nil {
			return nil, fmt.Errorf("corrupt categories_covered for %s: %w", session.SessionID, err)
		}
	}
	return &session, nil
}

// EndSession transitions a session to ended. The guarded WHERE keeps the call
// idempotent: ending an already-ended session affects no rows.
func (s *SQLiteStore) EndSession(ctx context.Context, sessionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, ended_at = ? WHERE session_id = ? AND status = ?`,
		domain.SessionEnded, time.Now(), sessionID, domain.SessionActive)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// EndActiveSessions ends every active session and returns how many it ended.
func (s *SQLiteStore) EndActiveSessions(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, ended_at = ? WHERE status = ?`,
		domain.SessionEnded, time.Now(), domain.SessionActive)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// AddCoveredCategory records that a category was touched in a session.
func (s *SQLiteStore) AddCoveredCategory(ctx context.Context, sessionID string, category domain.UpdateCategory) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	for _, c := range session.CategoriesCovered {
		if c == string(category) {
			return nil
		}
	}
	covered, _ := json.Marshal(append(session.CategoriesCovered, string(category)))
	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET categories_covered = ? WHERE session_id = ?`,
		string(covered), sessionID)
	return err
}

// CreateMessage appends a transcript entry.
func (s *SQLiteStore) CreateMessage(ctx context.Context, message *domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		message.MessageID, message.SessionID, message.Role, message.Content, message.CreatedAt)
	return err
}

// GetMessages retrieves a session's transcript, oldest first.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY created_at ASC, message_id ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreatePendingUpdate inserts a new draft.
func (s *SQLiteStore) CreatePendingUpdate(ctx context.Context, update *domain.PendingUpdate) error {
	payload := "{}"
	if len(update.Payload) > 0 {
		payload = string(update.Payload)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_updates (update_id, session_id, category, summary, raw_text, payload, confidence, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		update.UpdateID, nullString(update.SessionID), update.Category, update.Summary, nullString(update.RawText),
		payload, update.Confidence, update.Status, update.CreatedAt, update.UpdatedAt)
	return err
}

// GetPendingUpdate retrieves a draft by ID. Returns nil when not found.
func (s *SQLiteStore) GetPendingUpdate(ctx context.Context, updateID string) (*domain.PendingUpdate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT update_id, session_id, category, summary, raw_text, payload, confidence, status, entity_id, created_at, updated_at
		 FROM pending_updates WHERE update_id = ?`,
		updateID)

	update, err := scanPendingUpdate(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return update, nil
}

// ListPendingUpdates retrieves drafts matching the filter, newest first.
// An empty or StatusAll status means no status constraint; the default-to-
// pending rule lives in the service layer.
func (s *SQLiteStore) ListPendingUpdates(ctx context.Context, filter domain.ListFilter) ([]domain.PendingUpdate, error) {
	query := `SELECT update_id, session_id, category, summary, raw_text, payload, confidence, status, entity_id, created_at, updated_at
		 FROM pending_updates WHERE 1=1`
	var args []interface{}

	if filter.Status != "" && filter.Status != domain.StatusAll {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.SessionID != "" {
		query += ` AND session_id = ?`
		args = append(args, filter.SessionID)
	}
	query += ` ORDER BY created_at DESC, update_id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []domain.PendingUpdate
	for rows.Next() {
		update, err := scanPendingUpdate(rows.Scan)
		if err != nil {
			return nil, err
		}
		updates = append(updates, *update)
	}
	return updates, rows.Err()
}

func scanPendingUpdate(scan func(dest ...interface{}) error) (*domain.PendingUpdate, error) {
	var update domain.PendingUpdate
	var sessionID, rawText, payload, entityID sql.NullString
	err := scan(&update.UpdateID, &sessionID, &update.Category, &update.Summary, &rawText,
		&payload, &update.Confidence, &update.Status, &entityID, &update.CreatedAt, &update.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if sessionID.Valid {
		update.SessionID = sessionID.String
	}
	if rawText.Valid {
		update.RawText = rawText.String
	}
	if payload.Valid {
		update.Payload = json.RawMessage(payload.String)
	}
	if entityID.Valid {
		update.EntityID = entityID.String
	}
	return &update, nil
}

// UpdateDraftContent replaces a pending draft's summary and payload. The
// status guard rejects edits after the draft reached a terminal status.
func (s *SQLiteStore) UpdateDraftContent(ctx context.Context, updateID string, summary string, payload []byte) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pending_updates SET summary = ?, payload = ?, updated_at = ? WHERE update_id = ? AND status = ?`,
		summary, string(payload), time.Now(), updateID, domain.StatusPending)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkAccepted flips a pending draft to accepted and records the created
// entity id. The status guard serializes concurrent accepts on one draft: the
// losing caller affects no rows.
func (s *SQLiteStore) MarkAccepted(ctx context.Context, updateID string, entityID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pending_updates SET status = ?, entity_id = ?, updated_at = ? WHERE update_id = ? AND status = ?`,
		domain.StatusAccepted, entityID, time.Now(), updateID, domain.StatusPending)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkRejected flips a pending draft to rejected.
func (s *SQLiteStore) MarkRejected(ctx context.Context, updateID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pending_updates SET status = ?, updated_at = ? WHERE update_id = ? AND status = ?`,
		domain.StatusRejected, time.Now(), updateID, domain.StatusPending)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeletePendingUpdate hard-removes a draft regardless of status.
func (s *SQLiteStore) DeletePendingUpdate(ctx context.Context, updateID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_updates WHERE update_id = ?`, updateID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
