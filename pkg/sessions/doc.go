// Package sessions provides persistent storage for issued session tokens.
//
// This package defines the Store interface and its SQLite and MySQL
// implementations, plus the Sweeper that periodically removes expired rows.
// The primary implementation uses SQLite for reliability and simplicity.
//
// Usage:
//
//	store, err := sessions.NewSQLiteStore("./serve.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	// Record an issued session
//	err = store.Insert("docs", "10.0.0.1", token, expire)
//
//	// Revalidate on access
//	count, err := store.CountMatching("docs", token, "10.0.0.1", time.Now().Unix())
//
// The Store interface allows for alternative backends while maintaining
// API compatibility; sessions.New selects one from configuration.
package sessions
