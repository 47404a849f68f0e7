package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding interactions, settings, sessions,
// the knowledge base, and training examples.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "coach.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- Interactions ---

// SaveInteraction appends one audit row. Rows are never updated or deleted.
func (s *Store) SaveInteraction(i Interaction) error {
	createdAt := i.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO interactions (id, user_id, session_id, interaction_type, request_data, response_data, model_used, response_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.UserID, i.SessionID, i.Type, i.RequestData, i.ResponseData,
		i.ModelUsed, i.ResponseTimeMs, createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

// RecentInteractions returns the newest interactions, newest first.
func (s *Store) RecentInteractions(limit int) ([]Interaction, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, session_id, interaction_type, request_data, response_data, model_used, response_time_ms, created_at
		FROM interactions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Interaction
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, i)
	}
	return results, rows.Err()
}

// InteractionsForUser returns a user's interactions, newest first.
func (s *Store) InteractionsForUser(userID string, limit int) ([]Interaction, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, session_id, interaction_type, request_data, response_data, model_used, response_time_ms, created_at
		FROM interactions WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Interaction
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, i)
	}
	return results, rows.Err()
}

func scanInteraction(rows *sql.Rows) (Interaction, error) {
	var i Interaction
	var sessionID, requestData, responseData, modelUsed sql.NullString
	var createdAt string
	if err := rows.Scan(&i.ID, &i.UserID, &sessionID, &i.Type, &requestData, &responseData, &modelUsed, &i.ResponseTimeMs, &createdAt); err != nil {
		return Interaction{}, err
	}
	i.SessionID = sessionID.String
	i.RequestData = requestData.String
	i.ResponseData = responseData.String
	i.ModelUsed = modelUsed.String
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Interaction{}, fmt.Errorf("parsing created_at: %w", err)
	}
	i.CreatedAt = t
	return i, nil
}

// --- API usage ---

// BumpAPIUsage increments the request counter for one key/endpoint pair,
// creating the row on first use.
func (s *Store) BumpAPIUsage(apiKeyHash, endpoint string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`
		INSERT INTO api_usage (api_key_hash, endpoint, request_count, last_request_at, created_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(api_key_hash, endpoint) DO UPDATE SET
			request_count = request_count + 1,
			last_request_at = excluded.last_request_at`,
		apiKeyHash, endpoint, now, now,
	)
	return err
}

// APIUsageCount returns the recorded request count for one key/endpoint pair.
func (s *Store) APIUsageCount(apiKeyHash, endpoint string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT request_count FROM api_usage WHERE api_key_hash = ? AND endpoint = ?`,
		apiKeyHash, endpoint).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return count, err
}

// --- Knowledge base ---

// SaveKnowledgeDoc stores one content record. Re-ingesting identical
// content (same hash) is a no-op.
func (s *Store) SaveKnowledgeDoc(doc KnowledgeDoc) error {
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO knowledge_base (id, source_file, content, content_hash, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING`,
		doc.ID, doc.SourceFile, doc.Content, doc.ContentHash, doc.Metadata,
		createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

// SearchKnowledge returns docs whose content contains the query substring,
// newest first, capped at limit.
func (s *Store) SearchKnowledge(query string, limit int) ([]KnowledgeDoc, error) {
	rows, err := s.db.Query(`
		SELECT id, source_file, content, content_hash, metadata, created_at
		FROM knowledge_base
		WHERE content LIKE '%' || ? || '%'
		ORDER BY created_at DESC LIMIT ?`, query, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []KnowledgeDoc
	for rows.Next() {
		var d KnowledgeDoc
		var metadata sql.NullString
		var createdAt string
		if err := rows.Scan(&d.ID, &d.SourceFile, &d.Content, &d.ContentHash, &metadata, &createdAt); err != nil {
			return nil, err
		}
		d.Metadata = metadata.String
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		d.CreatedAt = t
		results = append(results, d)
	}
	return results, rows.Err()
}

// CountKnowledgeDocs returns the number of stored knowledge docs.
func (s *Store) CountKnowledgeDocs() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM knowledge_base`).Scan(&n)
	return n, err
}

// --- Training examples ---

func (s *Store) SaveTrainingExample(e TrainingExample) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO training_examples (id, question, answer, context, source_file, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Question, e.Answer, e.Context, e.SourceFile, e.Category,
		createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) ListTrainingExamples(limit int) ([]TrainingExample, error) {
	rows, err := s.db.Query(`
		SELECT id, question, answer, context, source_file, category, created_at
		FROM training_examples ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []TrainingExample
	for rows.Next() {
		var e TrainingExample
		var ctx, sourceFile, category sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &ctx, &sourceFile, &category, &createdAt); err != nil {
			return nil, err
		}
		e.Context = ctx.String
		e.SourceFile = sourceFile.String
		e.Category = category.String
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		e.CreatedAt = t
		results = append(results, e)
	}
	return results, rows.Err()
}

// --- AI settings ---

func (s *Store) CreateSetting(set Setting) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO ai_settings (id, name, description, model_name, temperature, max_tokens, system_prompt, context_window, response_style, include_sources, max_response_length, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		set.ID, set.Name, set.Description, set.ModelName, set.Temperature, set.MaxTokens,
		set.SystemPrompt, set.ContextWindow, set.ResponseStyle, boolToInt(set.IncludeSources),
		set.MaxResponseLength, now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetSetting(id string) (Setting, error) {
	row := s.db.QueryRow(selectSetting+` WHERE id = ?`, id)
	set, err := scanSetting(row)
	if err == sql.ErrNoRows {
		return Setting{}, ErrNotFound
	}
	return set, err
}

// GetSettingByName looks a setting up by its unique name.
func (s *Store) GetSettingByName(name string) (Setting, error) {
	row := s.db.QueryRow(selectSetting+` WHERE name = ?`, name)
	set, err := scanSetting(row)
	if err == sql.ErrNoRows {
		return Setting{}, ErrNotFound
	}
	return set, err
}

// ListSettings returns all active settings, oldest first.
func (s *Store) ListSettings() ([]Setting, error) {
	rows, err := s.db.Query(selectSetting + ` WHERE is_active = 1 ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Setting
	for rows.Next() {
		set, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, set)
	}
	return results, rows.Err()
}

// UpdateSetting overwrites the mutable fields of a setting.
func (s *Store) UpdateSetting(set Setting) error {
	res, err := s.db.Exec(`
		UPDATE ai_settings SET name = ?, description = ?, model_name = ?, temperature = ?, max_tokens = ?,
			system_prompt = ?, context_window = ?, response_style = ?, include_sources = ?,
			max_response_length = ?, updated_at = ?
		WHERE id = ?`,
		set.Name, set.Description, set.ModelName, set.Temperature, set.MaxTokens,
		set.SystemPrompt, set.ContextWindow, set.ResponseStyle, boolToInt(set.IncludeSources),
		set.MaxResponseLength, time.Now().UTC().Format(time.RFC3339), set.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateSetting soft-deletes a setting.
func (s *Store) DeactivateSetting(id string) error {
	res, err := s.db.Exec(`UPDATE ai_settings SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const selectSetting = `SELECT id, name, description, model_name, temperature, max_tokens, system_prompt, context_window, response_style, include_sources, max_response_length, is_active, created_at, updated_at FROM ai_settings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSetting(r rowScanner) (Setting, error) {
	var set Setting
	var description, systemPrompt sql.NullString
	var includeSources, isActive int
	var createdAt, updatedAt string
	err := r.Scan(&set.ID, &set.Name, &description, &set.ModelName, &set.Temperature, &set.MaxTokens,
		&systemPrompt, &set.ContextWindow, &set.ResponseStyle, &includeSources,
		&set.MaxResponseLength, &isActive, &createdAt, &updatedAt)
	if err != nil {
		return Setting{}, err
	}
	set.Description = description.String
	set.SystemPrompt = systemPrompt.String
	set.IncludeSources = includeSources != 0
	set.IsActive = isActive != 0
	if set.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Setting{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if set.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Setting{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return set, nil
}

// --- Chat sessions ---

func (s *Store) CreateSession(sess ChatSession) error {
	now := time.Now().UTC()
	title := sess.Title
	if title == "" {
		title = "New Chat"
	}
	_, err := s.db.Exec(`
		INSERT INTO chat_sessions (id, user_id, title, settings_id, message_count, is_active, created_at, last_activity)
		VALUES (?, ?, ?, ?, 0, 1, ?, ?)`,
		sess.ID, sess.UserID, title, sess.SettingsID,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetSession(id string) (ChatSession, error) {
	var sess ChatSession
	var userID, settingsID sql.NullString
	var isActive int
	var createdAt, lastActivity string
	err := s.db.QueryRow(`
		SELECT id, user_id, title, settings_id, message_count, is_active, created_at, last_activity
		FROM chat_sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &userID, &sess.Title, &settingsID, &sess.MessageCount, &isActive, &createdAt, &lastActivity)
	if err == sql.ErrNoRows {
		return ChatSession{}, ErrNotFound
	}
	if err != nil {
		return ChatSession{}, err
	}
	sess.UserID = userID.String
	sess.SettingsID = settingsID.String
	sess.IsActive = isActive != 0
	if sess.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return ChatSession{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if sess.LastActivity, err = time.Parse(time.RFC3339, lastActivity); err != nil {
		return ChatSession{}, fmt.Errorf("parsing last_activity: %w", err)
	}
	return sess, nil
}

// ListSessions returns a user's active sessions, most recent activity first.
func (s *Store) ListSessions(userID string) ([]ChatSession, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, title, settings_id, message_count, is_active, created_at, last_activity
		FROM chat_sessions WHERE user_id = ? AND is_active = 1
		ORDER BY last_activity DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ChatSession
	for rows.Next() {
		var sess ChatSession
		var uid, settingsID sql.NullString
		var isActive int
		var createdAt, lastActivity string
		if err := rows.Scan(&sess.ID, &uid, &sess.Title, &settingsID, &sess.MessageCount, &isActive, &createdAt, &lastActivity); err != nil {
			return nil, err
		}
		sess.UserID = uid.String
		sess.SettingsID = settingsID.String
		sess.IsActive = isActive != 0
		if sess.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if sess.LastActivity, err = time.Parse(time.RFC3339, lastActivity); err != nil {
			return nil, fmt.Errorf("parsing last_activity: %w", err)
		}
		results = append(results, sess)
	}
	return results, rows.Err()
}

// TouchSession bumps the message counter and refreshes last_activity.
// Unknown session ids are ignored so interaction logging never fails on a
// client-invented session.
func (s *Store) TouchSession(id string) error {
	_, err := s.db.Exec(`
		UPDATE chat_sessions SET message_count = message_count + 1, last_activity = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	return err
}

// Ping verifies the database connection is alive.
func (s *Store) Ping() error {
	return s.db.Ping()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
