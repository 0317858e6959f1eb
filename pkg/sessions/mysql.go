package sessions

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore implements Store using a MySQL backend
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore creates a new MySQL-backed session store
func NewMySQLStore(dsn string) (Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	s := &MySQLStore{db: db}
	if err := s.initDB(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// initDB initializes the database schema
func (s *MySQLStore) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		folder VARCHAR(255) NOT NULL,
		ip VARCHAR(64) NOT NULL,
		token VARCHAR(64) NOT NULL,
		expire BIGINT NOT NULL,
		INDEX idx_sessions_folder (folder),
		INDEX idx_sessions_expire (expire)
	)`

	_, err := s.db.Exec(schema)
	return err
}

// Insert records a newly issued session
func (s *MySQLStore) Insert(folder, ip, token string, expire int64) error {
	_, err := s.db.Exec(
		"INSERT INTO sessions (folder, ip, token, expire) VALUES (?, ?, ?, ?)",
		folder, ip, token, expire,
	)
	return err
}

// CountMatching counts valid sessions matching folder, token and ip
func (s *MySQLStore) CountMatching(folder, token, ip string, now int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT count(token) FROM sessions WHERE folder = ? AND expire > ? AND token = ? AND ip = ?",
		folder, now, token, ip,
	).Scan(&count)
	return count, err
}

// ListValid returns all unexpired sessions in insertion order
func (s *MySQLStore) ListValid(now int64) ([]Row, error) {
	return s.list("SELECT id, folder, ip, token, expire FROM sessions WHERE expire > ? ORDER BY id", now)
}

// ListAll returns every session row in insertion order
func (s *MySQLStore) ListAll() ([]Row, error) {
	return s.list("SELECT id, folder, ip, token, expire FROM sessions ORDER BY id")
}

func (s *MySQLStore) list(query string, args ...any) ([]Row, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Folder, &r.IP, &r.Token, &r.Expire); err != nil {
			continue
		}
		sessions = append(sessions, r)
	}
	return sessions, rows.Err()
}

// DeleteAll terminates all sessions
func (s *MySQLStore) DeleteAll() (int64, error) {
	res, err := s.db.Exec("DELETE FROM sessions")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpired removes rows whose expiry has passed
func (s *MySQLStore) DeleteExpired(now int64) (int64, error) {
	res, err := s.db.Exec("DELETE FROM sessions WHERE expire < ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
