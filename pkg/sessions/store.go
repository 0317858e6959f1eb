package sessions

// Row is one issued session as persisted in the store.
//
// Rows are immutable once inserted: expiry is fixed at issuance and
// re-authentication creates a new row rather than renewing an old one.
type Row struct {
	ID     int64
	Folder string
	IP     string
	Token  string
	Expire int64 // epoch seconds; the row is valid iff Expire > now
}

// Store defines the interface for persistent session storage.
//
// Every operation is a single atomic statement; no operation reads and then
// conditionally writes the same rows, so concurrent sweeps, bulk deletes and
// request-path inserts/counts are safe without extra locking.
type Store interface {
	// Insert records a newly issued session
	Insert(folder, ip, token string, expire int64) error

	// CountMatching counts valid sessions matching folder, token and ip
	CountMatching(folder, token, ip string, now int64) (int, error)

	// ListValid returns all unexpired sessions in insertion order
	ListValid(now int64) ([]Row, error)

	// ListAll returns every session row, expired or not, in insertion order
	ListAll() ([]Row, error)

	// DeleteAll terminates all sessions, returning the number removed
	DeleteAll() (int64, error)

	// DeleteExpired removes rows with expire < now, returning the number removed
	DeleteExpired(now int64) (int64, error)

	// Lifecycle
	Close() error
}
