package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"pwshare/pkg/logger"
	"pwshare/pkg/sessions"
	"pwshare/pkg/shares"
)

// Engine computes session expiry, verifies passwords, issues tokens and
// revalidates them against the session store. Store handles are injected at
// construction; the engine keeps no ambient state and never reads
// transport-level state directly — the client IP and scope arrive as
// arguments on every call.
type Engine struct {
	store    sessions.Store
	shares   *shares.Store
	verifier *PasswordVerifier
	timeout  time.Duration
}

// ClientSession describes one of the caller's valid sessions
type ClientSession struct {
	Folder      string
	MinutesLeft int
	Note        string // share-level expiry, for display
}

// NewEngine creates an auth engine over the given stores
func NewEngine(store sessions.Store, shareStore *shares.Store, timeout time.Duration) *Engine {
	return &Engine{
		store:    store,
		shares:   shareStore,
		verifier: NewPasswordVerifier(),
		timeout:  timeout,
	}
}

// ComputeExpiration returns the session expiry ceiling for a share, in epoch
// seconds. Shares that never expire get now + session timeout; shares with
// an absolute expiry get that timestamp regardless of the timeout setting.
// An unparsable expiry reads as already past, so authentication fails closed.
func (e *Engine) ComputeExpiration(cfg shares.Config) int64 {
	if cfg.Expires == shares.NeverExpires {
		return time.Now().Add(e.timeout).Unix()
	}
	t, err := shares.ParseExpires(cfg.Expires)
	if err != nil {
		logger.Get().Warn("unparsable share expiry", "folder", cfg.Name, "expires", cfg.Expires)
		return 0
	}
	return t.Unix()
}

// Authenticate verifies a password against a share config and, on success,
// issues a session bound to ip and records it in the caller's scope.
//
// It fails when the share does not exist (empty Name), the share has already
// expired, no password hash is on record, or the password does not match.
// Any stale binding the caller holds for this folder is cleared first, so
// re-authentication is idempotent. Older store rows from previous logins are
// deliberately left to expire: they are unreachable without a scope binding.
func (e *Engine) Authenticate(scope Scope, cfg shares.Config, password, ip string) bool {
	if cfg.Name == "" {
		return false
	}

	expiration := e.ComputeExpiration(cfg)
	scope.Clear(cfg.Name)

	if expiration <= time.Now().Unix() {
		return false
	}
	if cfg.PasswordHash == "" || !e.verifier.Verify(cfg.PasswordHash, password) {
		return false
	}

	if _, err := e.IssueSession(scope, cfg.Name, ip, expiration); err != nil {
		logger.Get().ErrorWithErr("failed to issue session", err, "folder", cfg.Name)
		return false
	}
	return true
}

// IssueSession generates a fresh token, persists it with an effective expiry
// of min(ceiling, now + session timeout), and binds it into the scope.
func (e *Engine) IssueSession(scope Scope, folder, ip string, ceiling int64) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	expire := time.Now().Add(e.timeout).Unix()
	if ceiling < expire {
		expire = ceiling
	}

	if err := e.store.Insert(folder, ip, token, expire); err != nil {
		return "", err
	}

	scope.Bind(folder, token)
	return token, nil
}

// Validate reports whether the caller holds a live session for the folder.
// Without a scope binding it fails immediately, without touching the store.
// Token, IP or expiry mismatches fail; so do store errors (fail closed).
func (e *Engine) Validate(scope Scope, folder, ip string) bool {
	token, ok := scope.Token(folder)
	if !ok {
		return false
	}

	count, err := e.store.CountMatching(folder, token, ip, time.Now().Unix())
	if err != nil {
		logger.Get().ErrorWithErr("session validation query failed", err, "folder", folder)
		return false
	}
	return count > 0
}

// ActiveSessions lists the caller's valid sessions: unexpired store rows for
// this IP whose token is also bound in the scope. Rows the store considers
// valid but the client no longer presents are excluded. Store errors yield
// an empty list.
func (e *Engine) ActiveSessions(scope Scope, ip string) []ClientSession {
	now := time.Now()
	rows, err := e.store.ListValid(now.Unix())
	if err != nil {
		logger.Get().ErrorWithErr("session listing query failed", err)
		return nil
	}

	bound := make(map[string]bool)
	for _, token := range scope.Tokens() {
		bound[token] = true
	}

	var active []ClientSession
	for _, row := range rows {
		if row.IP != ip || !bound[row.Token] {
			continue
		}
		active = append(active, ClientSession{
			Folder:      row.Folder,
			MinutesLeft: int(row.Expire-now.Unix()) / 60,
			Note:        e.shareNote(row.Folder),
		})
	}
	return active
}

// Logout clears every folder binding from the caller's scope. Store rows are
// left untouched and expire naturally or are swept.
func (e *Engine) Logout(scope Scope) {
	scope.ClearAll()
}

// shareNote renders the share-level expiry for display
func (e *Engine) shareNote(folder string) string {
	cfg, ok := e.shares.Read(folder)
	if !ok || cfg.DaysLeft == nil {
		return "until session end"
	}
	return fmt.Sprintf("%.1f days left", *cfg.DaysLeft)
}

// generateToken produces a cryptographically random, URL-safe session token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
