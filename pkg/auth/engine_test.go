package auth

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pwshare/pkg/sessions"
	"pwshare/pkg/shares"
)

const testTimeout = 1800 * time.Second

type fixture struct {
	engine *Engine
	store  sessions.Store
	shares *shares.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sessions.NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Failed to create session store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	shareStore := shares.NewStore(t.TempDir(), t.TempDir())
	return &fixture{
		engine: NewEngine(store, shareStore, testTimeout),
		store:  store,
		shares: shareStore,
	}
}

func (f *fixture) addShare(t *testing.T, folder, password, expiresDays string) shares.Config {
	t.Helper()
	if _, err := f.shares.Add(folder, password, expiresDays); err != nil {
		t.Fatalf("Failed to add share: %v", err)
	}
	cfg, ok := f.shares.Read(folder)
	if !ok {
		t.Fatalf("Failed to read back share %q", folder)
	}
	return cfg
}

func TestComputeExpirationNever(t *testing.T) {
	f := newFixture(t)
	cfg := shares.Config{Name: "docs", Expires: shares.NeverExpires}

	got := f.engine.ComputeExpiration(cfg)
	want := time.Now().Add(testTimeout).Unix()
	if got < want-2 || got > want+2 {
		t.Errorf("Expected expiration near now+%v, got delta %d", testTimeout, got-want)
	}
}

func TestComputeExpirationAbsolute(t *testing.T) {
	f := newFixture(t)
	expiry := time.Now().Add(90 * 24 * time.Hour).Truncate(time.Second)
	cfg := shares.Config{Name: "docs", Expires: shares.FormatExpires(expiry)}

	// The share cutoff wins over the session timeout, in both directions.
	if got := f.engine.ComputeExpiration(cfg); got != expiry.Unix() {
		t.Errorf("Expected %d, got %d", expiry.Unix(), got)
	}
}

func TestComputeExpirationUnparsable(t *testing.T) {
	f := newFixture(t)
	cfg := shares.Config{Name: "docs", Expires: "soon"}
	if got := f.engine.ComputeExpiration(cfg); got != 0 {
		t.Errorf("Unparsable expiry should read as already past, got %d", got)
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	f := newFixture(t)
	cfg := f.addShare(t, "docs", "hunter2", "")
	scope := NewScope()

	if !f.engine.Authenticate(scope, cfg, "hunter2", "10.0.0.1") {
		t.Fatal("Authentication should succeed")
	}

	token, ok := scope.Token("docs")
	if !ok || token == "" {
		t.Fatal("Scope should hold a token for the folder")
	}

	rows, err := f.store.ListValid(time.Now().Unix())
	if err != nil {
		t.Fatalf("ListValid failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected exactly 1 session row, got %d", len(rows))
	}
	row := rows[0]
	if row.Folder != "docs" || row.IP != "10.0.0.1" || row.Token != token {
		t.Errorf("Unexpected row: %+v", row)
	}
	want := time.Now().Add(testTimeout).Unix()
	if row.Expire < want-5 || row.Expire > want+5 {
		t.Errorf("Expected expire near now+1800, got delta %d", row.Expire-want)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	f := newFixture(t)
	cfg := f.addShare(t, "docs", "hunter2", "")
	scope := NewScope()

	if f.engine.Authenticate(scope, cfg, "wrong", "10.0.0.1") {
		t.Fatal("Authentication should fail")
	}
	if _, ok := scope.Token("docs"); ok {
		t.Error("No token should be bound on failure")
	}
	rows, err := f.store.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("No session row should be inserted on failure, got %d", len(rows))
	}
}

func TestAuthenticateMissingShare(t *testing.T) {
	f := newFixture(t)
	cfg, _ := f.shares.Read("ghost")
	if f.engine.Authenticate(NewScope(), cfg, "whatever", "10.0.0.1") {
		t.Fatal("Authentication against a missing share should fail")
	}
}

func TestAuthenticateExpiredShare(t *testing.T) {
	f := newFixture(t)
	f.addShare(t, "temp", "hunter2", "")
	// Push the expiry one day into the past, as an admin edit would.
	if _, err := f.shares.Edit("temp", "", "-1"); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	cfg, _ := f.shares.Read("temp")

	if f.engine.Authenticate(NewScope(), cfg, "hunter2", "10.0.0.1") {
		t.Fatal("Authentication against an expired share should fail even with the right password")
	}
}

func TestAuthenticateNoPasswordHash(t *testing.T) {
	f := newFixture(t)
	if err := f.shares.Write("open", shares.Config{Expires: shares.NeverExpires}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	cfg, _ := f.shares.Read("open")

	if f.engine.Authenticate(NewScope(), cfg, "", "10.0.0.1") {
		t.Fatal("A share without a password hash must never authenticate")
	}
}

func TestAuthenticateClearsStaleBinding(t *testing.T) {
	f := newFixture(t)
	cfg := f.addShare(t, "docs", "hunter2", "")
	scope := NewScope()
	scope.Bind("docs", "stale-token")

	if f.engine.Authenticate(scope, cfg, "wrong", "10.0.0.1") {
		t.Fatal("Authentication should fail")
	}
	if _, ok := scope.Token("docs"); ok {
		t.Error("Failed re-auth should still clear the stale binding")
	}
}

func TestReauthenticateKeepsOldRows(t *testing.T) {
	f := newFixture(t)
	cfg := f.addShare(t, "docs", "hunter2", "")
	scope := NewScope()

	if !f.engine.Authenticate(scope, cfg, "hunter2", "10.0.0.1") {
		t.Fatal("First authentication should succeed")
	}
	first, _ := scope.Token("docs")

	if !f.engine.Authenticate(scope, cfg, "hunter2", "10.0.0.1") {
		t.Fatal("Second authentication should succeed")
	}
	second, _ := scope.Token("docs")
	if first == second {
		t.Error("Re-authentication must issue a fresh token")
	}

	// Old rows persist until TTL or sweep; only the new one is scope-bound.
	rows, err := f.store.ListValid(time.Now().Unix())
	if err != nil {
		t.Fatalf("ListValid failed: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 store rows after re-auth, got %d", len(rows))
	}
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	cfg := f.addShare(t, "docs", "hunter2", "")
	scope := NewScope()

	if !f.engine.Authenticate(scope, cfg, "hunter2", "10.0.0.1") {
		t.Fatal("Authentication should succeed")
	}

	if !f.engine.Validate(scope, "docs", "10.0.0.1") {
		t.Error("Validation should succeed for the issuing IP")
	}
	if f.engine.Validate(scope, "docs", "10.0.0.2") {
		t.Error("Validation must fail for a different source IP")
	}
	if f.engine.Validate(scope, "other", "10.0.0.1") {
		t.Error("Validation must fail for an unbound folder")
	}
}

func TestValidateStaleClientToken(t *testing.T) {
	f := newFixture(t)
	scope := NewScope()
	scope.Bind("docs", "token-the-store-never-issued")

	if f.engine.Validate(scope, "docs", "10.0.0.1") {
		t.Error("A scope-bound token absent from the store must not validate")
	}
}

// recordingStore wraps a Store and counts queries, to show that validation
// without a scope binding never touches the store.
type recordingStore struct {
	sessions.Store
	countCalls int
}

func (r *recordingStore) CountMatching(folder, token, ip string, now int64) (int, error) {
	r.countCalls++
	return r.Store.CountMatching(folder, token, ip, now)
}

func TestValidateUnboundSkipsStore(t *testing.T) {
	f := newFixture(t)
	rec := &recordingStore{Store: f.store}
	engine := NewEngine(rec, f.shares, testTimeout)

	if engine.Validate(NewScope(), "docs", "10.0.0.1") {
		t.Error("Validation without a binding should fail")
	}
	if rec.countCalls != 0 {
		t.Errorf("Store should not be queried without a binding, got %d calls", rec.countCalls)
	}
}

// failingStore errors on every operation, to exercise the fail-closed paths.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Insert(folder, ip, token string, expire int64) error { return errStoreDown }
func (failingStore) CountMatching(folder, token, ip string, now int64) (int, error) {
	return 0, errStoreDown
}
func (failingStore) ListValid(now int64) ([]sessions.Row, error) { return nil, errStoreDown }
func (failingStore) ListAll() ([]sessions.Row, error)            { return nil, errStoreDown }
func (failingStore) DeleteAll() (int64, error)                   { return 0, errStoreDown }
func (failingStore) DeleteExpired(now int64) (int64, error)      { return 0, errStoreDown }
func (failingStore) Close() error                                { return nil }

func TestFailClosedOnStoreErrors(t *testing.T) {
	f := newFixture(t)
	cfg := f.addShare(t, "docs", "hunter2", "")
	engine := NewEngine(failingStore{}, f.shares, testTimeout)

	scope := NewScope()
	if engine.Authenticate(scope, cfg, "hunter2", "10.0.0.1") {
		t.Error("Authentication must fail when the insert fails")
	}

	scope.Bind("docs", "some-token")
	if engine.Validate(scope, "docs", "10.0.0.1") {
		t.Error("Validation must fail closed on store errors")
	}
	if got := engine.ActiveSessions(scope, "10.0.0.1"); len(got) != 0 {
		t.Errorf("Session listing must be empty on store errors, got %d", len(got))
	}
}

func TestIssueSessionCeiling(t *testing.T) {
	f := newFixture(t)
	scope := NewScope()

	// Ceiling below now+timeout caps the effective expiry.
	ceiling := time.Now().Add(60 * time.Second).Unix()
	if _, err := f.engine.IssueSession(scope, "docs", "10.0.0.1", ceiling); err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	rows, err := f.store.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].Expire != ceiling {
		t.Errorf("Expected expire %d (the ceiling), got %d", ceiling, rows[0].Expire)
	}
}

func TestActiveSessions(t *testing.T) {
	f := newFixture(t)
	cfg := f.addShare(t, "docs", "hunter2", "")
	f.addShare(t, "pics", "hunter2", "2")
	picsCfg, _ := f.shares.Read("pics")

	scope := NewScope()
	if !f.engine.Authenticate(scope, cfg, "hunter2", "10.0.0.1") {
		t.Fatal("Authentication should succeed")
	}
	if !f.engine.Authenticate(scope, picsCfg, "hunter2", "10.0.0.1") {
		t.Fatal("Authentication should succeed")
	}

	// A row for this IP whose token is not scope-bound must be excluded.
	if err := f.store.Insert("docs", "10.0.0.1", "foreign-token", time.Now().Add(time.Hour).Unix()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	// Another visitor's session must be excluded.
	if err := f.store.Insert("docs", "10.0.0.9", "other-ip", time.Now().Add(time.Hour).Unix()); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	active := f.engine.ActiveSessions(scope, "10.0.0.1")
	if len(active) != 2 {
		t.Fatalf("Expected 2 active sessions, got %d", len(active))
	}
	for _, cs := range active {
		if cs.MinutesLeft < 28 || cs.MinutesLeft > 30 {
			t.Errorf("Session %s: expected about 29 minutes left, got %d", cs.Folder, cs.MinutesLeft)
		}
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	cfg := f.addShare(t, "docs", "hunter2", "")
	scope := NewScope()

	if !f.engine.Authenticate(scope, cfg, "hunter2", "10.0.0.1") {
		t.Fatal("Authentication should succeed")
	}

	f.engine.Logout(scope)
	if _, ok := scope.Token("docs"); ok {
		t.Error("Logout should clear all bindings")
	}

	// Store rows survive logout; only the client-side presentation is revoked.
	rows, err := f.store.ListValid(time.Now().Unix())
	if err != nil {
		t.Fatalf("ListValid failed: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Logout must not delete store rows, got %d rows", len(rows))
	}
	if f.engine.Validate(scope, "docs", "10.0.0.1") {
		t.Error("Validation must fail after logout despite the surviving row")
	}
}

func TestTokenUniqueness(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		token, err := generateToken()
		if err != nil {
			t.Fatalf("generateToken failed: %v", err)
		}
		if seen[token] {
			t.Fatalf("Duplicate token after %d draws", i)
		}
		seen[token] = true
	}
}
