package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// scopePrefix namespaces session-token bindings inside a scope.
const scopePrefix = "auth/"

// Scope is the client-carried session state: a mapping from folder-scoped
// keys to session tokens. The boundary layer transports it as a signed
// payload; the engine only ever sees the decoded map.
type Scope map[string]string

// NewScope returns an empty scope
func NewScope() Scope {
	return make(Scope)
}

// Token returns the session token bound for a folder, if any
func (s Scope) Token(folder string) (string, bool) {
	token, ok := s[scopePrefix+folder]
	return token, ok
}

// Bind binds a session token for a folder
func (s Scope) Bind(folder, token string) {
	s[scopePrefix+folder] = token
}

// Clear removes the binding for a folder
func (s Scope) Clear(folder string) {
	delete(s, scopePrefix+folder)
}

// ClearAll removes every folder binding. Underlying store rows are left to
// expire naturally; a cleared scope alone is enough to deny access because
// validation requires both store membership and a scope-bound token.
func (s Scope) ClearAll() {
	for key := range s {
		if strings.HasPrefix(key, scopePrefix) {
			delete(s, key)
		}
	}
}

// Tokens returns all bound session tokens
func (s Scope) Tokens() []string {
	var tokens []string
	for key, token := range s {
		if strings.HasPrefix(key, scopePrefix) {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// ScopeCodec signs and verifies the client-carried scope payload so that it
// is tamper-evident in transit: JSON, HMAC-SHA256, URL-safe base64.
type ScopeCodec struct {
	key []byte
}

// NewScopeCodec creates a codec with the given signing key
func NewScopeCodec(key string) *ScopeCodec {
	return &ScopeCodec{key: []byte(key)}
}

// Encode serializes and signs a scope
func (c *ScopeCodec) Encode(scope Scope) (string, error) {
	payload, err := json.Marshal(scope)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, c.key)
	mac.Write(payload)
	sig := mac.Sum(nil)

	return base64.RawURLEncoding.EncodeToString(payload) + "." +
		base64.RawURLEncoding.EncodeToString(sig), nil
}

// Decode verifies and deserializes a scope payload. Anything malformed or
// with a bad signature decodes to an empty scope: a forged cookie is the
// same as no cookie.
func (c *ScopeCodec) Decode(encoded string) Scope {
	parts := strings.SplitN(encoded, ".", 2)
	if len(parts) != 2 {
		return NewScope()
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return NewScope()
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return NewScope()
	}

	mac := hmac.New(sha256.New, c.key)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return NewScope()
	}

	var scope Scope
	if err := json.Unmarshal(payload, &scope); err != nil {
		return NewScope()
	}
	if scope == nil {
		scope = NewScope()
	}
	return scope
}
