// Package store is the SQLite persistence layer: users, admin-managed
// keywords, message history and per-user conversation context.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

// DefaultContextLimit is the per-user conversation retention when the user
// never changed their settings.
const DefaultContextLimit = 10

// Context limits users may configure.
const (
	MinContextLimit = 1
	MaxContextLimit = 50
)

// User is a row in the users table.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	IsRegistered bool
	IsAdmin      bool
	JoinDate     time.Time
	LastSeen     time.Time
	MessageCount int
}

// Keyword is an admin-managed canned response.
type Keyword struct {
	Keyword    string
	Response   string
	CreatedBy  int64
	CreatedAt  time.Time
	UsageCount int
	IsActive   bool
}

// HistoryEntry is one logged exchange.
type HistoryEntry struct {
	UserID       int64
	MessageText  string
	ResponseText string
	MessageType  string
	Timestamp    time.Time
}

// Turn is one conversation-context exchange, ordered oldest first by callers.
type Turn struct {
	MessageText  string
	ResponseText string
	Timestamp    time.Time
}

// ContextSettings is a user's conversation-memory configuration.
type ContextSettings struct {
	Enabled          bool
	MaxMessages      int
	LastContextClear time.Time
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand
}

// New opens or creates the database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id       INTEGER PRIMARY KEY,
		username      TEXT,
		first_name    TEXT,
		last_name     TEXT,
		is_registered INTEGER NOT NULL DEFAULT 0,
		is_admin      INTEGER NOT NULL DEFAULT 0,
		join_date     TEXT NOT NULL,
		last_seen     TEXT NOT NULL,
		message_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS keywords (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword     TEXT UNIQUE NOT NULL,
		response    TEXT NOT NULL,
		created_by  INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		usage_count INTEGER NOT NULL DEFAULT 0,
		is_active   INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS message_history (
		id            TEXT PRIMARY KEY,
		user_id       INTEGER NOT NULL,
		message_text  TEXT NOT NULL,
		response_text TEXT NOT NULL,
		message_type  TEXT NOT NULL DEFAULT 'text',
		timestamp     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_user ON message_history(user_id, timestamp DESC);

	CREATE TABLE IF NOT EXISTS conversation_context (
		id            TEXT PRIMARY KEY,
		user_id       INTEGER NOT NULL,
		message_text  TEXT NOT NULL,
		response_text TEXT NOT NULL,
		timestamp     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_context_user ON conversation_context(user_id, timestamp);

	CREATE TABLE IF NOT EXISTS user_conversation_settings (
		user_id              INTEGER PRIMARY KEY,
		context_enabled      INTEGER NOT NULL DEFAULT 1,
		max_context_messages INTEGER NOT NULL DEFAULT 10,
		last_context_clear   TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Fixed-width timestamp so lexicographic ORDER BY matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpsertUser records a user sighting: inserts on first contact, otherwise
// refreshes names and last_seen.
func (s *Store) UpsertUser(id int64, username, firstName, lastName string) error {
	_, err := s.db.Exec(`
		INSERT INTO users (user_id, username, first_name, last_name, join_date, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			last_seen = excluded.last_seen`,
		id, username, firstName, lastName, now(), now())
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// RegisterUser marks the user as registered.
func (s *Store) RegisterUser(id int64) error {
	res, err := s.db.Exec(`UPDATE users SET is_registered = 1 WHERE user_id = ?`, id)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsRegistered reports the registration flag; unknown users are unregistered.
func (s *Store) IsRegistered(id int64) (bool, error) {
	var registered bool
	err := s.db.QueryRow(`SELECT is_registered FROM users WHERE user_id = ?`, id).Scan(&registered)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is registered: %w", err)
	}
	return registered, nil
}

// IsAdmin reports the admin flag; unknown users are not admins.
func (s *Store) IsAdmin(id int64) (bool, error) {
	var admin bool
	err := s.db.QueryRow(`SELECT is_admin FROM users WHERE user_id = ?`, id).Scan(&admin)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is admin: %w", err)
	}
	return admin, nil
}

// SetAdmin flips the admin flag on an existing user.
func (s *Store) SetAdmin(id int64, admin bool) error {
	res, err := s.db.Exec(`UPDATE users SET is_admin = ? WHERE user_id = ?`, admin, id)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUser fetches a single user.
func (s *Store) GetUser(id int64) (*User, error) {
	row := s.db.QueryRow(`
		SELECT user_id, username, first_name, last_name, is_registered, is_admin,
		       join_date, last_seen, message_count
		FROM users WHERE user_id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// AllUsers lists every known user.
func (s *Store) AllUsers() ([]User, error) {
	return s.listUsers(`SELECT user_id, username, first_name, last_name, is_registered,
		is_admin, join_date, last_seen, message_count FROM users ORDER BY user_id`)
}

// RegisteredUsers lists only registered users.
func (s *Store) RegisteredUsers() ([]User, error) {
	return s.listUsers(`SELECT user_id, username, first_name, last_name, is_registered,
		is_admin, join_date, last_seen, message_count FROM users
		WHERE is_registered = 1 ORDER BY user_id`)
}

func (s *Store) listUsers(query string) ([]User, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*User, error) {
	var u User
	var username, firstName, lastName sql.NullString
	var joinDate, lastSeen string
	if err := row.Scan(&u.ID, &username, &firstName, &lastName, &u.IsRegistered,
		&u.IsAdmin, &joinDate, &lastSeen, &u.MessageCount); err != nil {
		return nil, err
	}
	u.Username = username.String
	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.JoinDate = parseTime(joinDate)
	u.LastSeen = parseTime(lastSeen)
	return &u, nil
}

// IncrementMessageCount bumps the user's lifetime message counter.
func (s *Store) IncrementMessageCount(id int64) error {
	_, err := s.db.Exec(`UPDATE users SET message_count = message_count + 1 WHERE user_id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment message count: %w", err)
	}
	return nil
}

// AddKeyword stores a keyword reply. Keywords are matched case-insensitively,
// so they are stored lowercased.
func (s *Store) AddKeyword(keyword, response string, createdBy int64) error {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return fmt.Errorf("add keyword: empty keyword")
	}
	_, err := s.db.Exec(`
		INSERT INTO keywords (keyword, response, created_by, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(keyword) DO UPDATE SET response = excluded.response, is_active = 1`,
		keyword, response, createdBy, now())
	if err != nil {
		return fmt.Errorf("add keyword: %w", err)
	}
	return nil
}

// KeywordResponse returns the reply for an active keyword and bumps its usage
// counter. ErrNotFound when the keyword is unknown or inactive.
func (s *Store) KeywordResponse(keyword string) (string, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	var response string
	err := s.db.QueryRow(`SELECT response FROM keywords WHERE keyword = ? AND is_active = 1`,
		keyword).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyword response: %w", err)
	}

	if _, err := s.db.Exec(`UPDATE keywords SET usage_count = usage_count + 1 WHERE keyword = ?`, keyword); err != nil {
		return "", fmt.Errorf("bump keyword usage: %w", err)
	}
	return response, nil
}

// DeleteKeyword removes a keyword outright.
func (s *Store) DeleteKeyword(keyword string) error {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	res, err := s.db.Exec(`DELETE FROM keywords WHERE keyword = ?`, keyword)
	if err != nil {
		return fmt.Errorf("delete keyword: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AllKeywords lists every keyword, active or not.
func (s *Store) AllKeywords() ([]Keyword, error) {
	rows, err := s.db.Query(`
		SELECT keyword, response, created_by, created_at, usage_count, is_active
		FROM keywords ORDER BY keyword`)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		var k Keyword
		var createdAt string
		if err := rows.Scan(&k.Keyword, &k.Response, &k.CreatedBy, &createdAt, &k.UsageCount, &k.IsActive); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		k.CreatedAt = parseTime(createdAt)
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// LogMessage appends one exchange to the permanent history log.
func (s *Store) LogMessage(userID int64, messageText, responseText, messageType string) error {
	if messageType == "" {
		messageType = "text"
	}
	_, err := s.db.Exec(`
		INSERT INTO message_history (id, user_id, message_text, response_text, message_type, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.newID(), userID, messageText, responseText, messageType, now())
	if err != nil {
		return fmt.Errorf("log message: %w", err)
	}
	return nil
}

// UserHistory returns the user's most recent exchanges, newest first.
func (s *Store) UserHistory(userID int64, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.listHistory(`
		SELECT user_id, message_text, response_text, message_type, timestamp
		FROM message_history WHERE user_id = ?
		ORDER BY timestamp DESC LIMIT ?`, userID, limit)
}

// GlobalHistory returns the most recent exchanges across all users.
func (s *Store) GlobalHistory(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.listHistory(`
		SELECT user_id, message_text, response_text, message_type, timestamp
		FROM message_history
		ORDER BY timestamp DESC LIMIT ?`, limit)
}

func (s *Store) listHistory(query string, args ...any) ([]HistoryEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ts string
		if err := rows.Scan(&e.UserID, &e.MessageText, &e.ResponseText, &e.MessageType, &ts); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Timestamp = parseTime(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AppendConversation records an exchange in the rolling conversation context
// and prunes rows beyond the user's retention limit.
func (s *Store) AppendConversation(userID int64, messageText, responseText string) error {
	limit := s.ContextLimit(userID)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("append conversation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO conversation_context (id, user_id, message_text, response_text, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		s.newID(), userID, messageText, responseText, now()); err != nil {
		return fmt.Errorf("append conversation: %w", err)
	}

	if _, err := tx.Exec(`
		DELETE FROM conversation_context
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM conversation_context
			WHERE user_id = ?
			ORDER BY timestamp DESC LIMIT ?
		)`, userID, userID, limit); err != nil {
		return fmt.Errorf("prune conversation: %w", err)
	}

	return tx.Commit()
}

// ConversationContext returns up to limit retained turns, oldest first.
// A non-positive limit means the user's configured retention.
func (s *Store) ConversationContext(userID int64, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = s.ContextLimit(userID)
	}
	rows, err := s.db.Query(`
		SELECT message_text, response_text, timestamp
		FROM conversation_context WHERE user_id = ?
		ORDER BY timestamp ASC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation context: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var ts string
		if err := rows.Scan(&t.MessageText, &t.ResponseText, &ts); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Timestamp = parseTime(ts)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ClearConversation wipes the user's context and stamps the clear time.
func (s *Store) ClearConversation(userID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM conversation_context WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO user_conversation_settings (user_id, last_context_clear)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET last_context_clear = excluded.last_context_clear`,
		userID, now()); err != nil {
		return fmt.Errorf("stamp context clear: %w", err)
	}

	return tx.Commit()
}

// ContextLimit returns the user's retention limit, defaulting when unset.
func (s *Store) ContextLimit(userID int64) int {
	var limit int
	err := s.db.QueryRow(`SELECT max_context_messages FROM user_conversation_settings WHERE user_id = ?`,
		userID).Scan(&limit)
	if err != nil || limit < MinContextLimit {
		return DefaultContextLimit
	}
	if limit > MaxContextLimit {
		return MaxContextLimit
	}
	return limit
}

// SetContextSettings updates the user's conversation-memory configuration.
// The limit is clamped to [MinContextLimit, MaxContextLimit].
func (s *Store) SetContextSettings(userID int64, enabled bool, maxMessages int) error {
	if maxMessages < MinContextLimit {
		maxMessages = MinContextLimit
	}
	if maxMessages > MaxContextLimit {
		maxMessages = MaxContextLimit
	}
	_, err := s.db.Exec(`
		INSERT INTO user_conversation_settings (user_id, context_enabled, max_context_messages)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			context_enabled = excluded.context_enabled,
			max_context_messages = excluded.max_context_messages`,
		userID, enabled, maxMessages)
	if err != nil {
		return fmt.Errorf("set context settings: %w", err)
	}
	return nil
}

// ContextEnabled reports whether conversation memory is on; default is on.
func (s *Store) ContextEnabled(userID int64) bool {
	var enabled bool
	err := s.db.QueryRow(`SELECT context_enabled FROM user_conversation_settings WHERE user_id = ?`,
		userID).Scan(&enabled)
	if err != nil {
		return true
	}
	return enabled
}

// Stats is a snapshot of database-wide counters.
type Stats struct {
	TotalUsers      int
	RegisteredUsers int
	TotalMessages   int
	TotalKeywords   int
}

// Stats aggregates basic counters for the status endpoints.
func (s *Store) Stats() (*Stats, error) {
	var st Stats
	row := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_registered = 1),
			(SELECT COUNT(*) FROM message_history),
			(SELECT COUNT(*) FROM keywords WHERE is_active = 1)`)
	if err := row.Scan(&st.TotalUsers, &st.RegisteredUsers, &st.TotalMessages, &st.TotalKeywords); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &st, nil
}
