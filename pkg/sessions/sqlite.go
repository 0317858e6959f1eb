package sessions

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"pwshare/pkg/logger"
)

// SQLiteStore implements Store using a SQLite backend
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-backed session store
func NewSQLiteStore(dbPath string) (Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{
		db: db,
	}

	if err := store.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initDB initializes the database schema
func (s *SQLiteStore) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folder TEXT NOT NULL,
		ip TEXT NOT NULL,
		token TEXT NOT NULL,
		expire INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_folder ON sessions(folder);
	CREATE INDEX IF NOT EXISTS idx_sessions_expire ON sessions(expire);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Insert records a newly issued session
func (s *SQLiteStore) Insert(folder, ip, token string, expire int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO sessions (folder, ip, token, expire) VALUES (?, ?, ?, ?)",
		folder, ip, token, expire,
	)
	return err
}

// CountMatching counts valid sessions matching folder, token and ip
func (s *SQLiteStore) CountMatching(folder, token, ip string, now int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(
		"SELECT count(token) FROM sessions WHERE folder = ? AND expire > ? AND token = ? AND ip = ?",
		folder, now, token, ip,
	).Scan(&count)
	return count, err
}

// ListValid returns all unexpired sessions in insertion order
func (s *SQLiteStore) ListValid(now int64) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list("SELECT id, folder, ip, token, expire FROM sessions WHERE expire > ? ORDER BY id", now)
}

// ListAll returns every session row in insertion order
func (s *SQLiteStore) ListAll() ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list("SELECT id, folder, ip, token, expire FROM sessions ORDER BY id")
}

func (s *SQLiteStore) list(query string, args ...any) ([]Row, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Folder, &r.IP, &r.Token, &r.Expire); err != nil {
			logger.Get().Warn("error scanning session row", "error", err)
			continue
		}
		sessions = append(sessions, r)
	}
	return sessions, rows.Err()
}

// DeleteAll terminates all sessions
func (s *SQLiteStore) DeleteAll() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM sessions")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes rows whose expiry has passed
func (s *SQLiteStore) DeleteExpired(now int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM sessions WHERE expire < ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
