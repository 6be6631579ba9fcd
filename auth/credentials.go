// Package auth binds bearer credentials to sessions. The server does not
// implement authentication policy; it propagates whatever credential the
// caller supplied to the upstream API, scoped strictly per session.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
)

// ErrCredentialMissing is returned when a handler that requires a credential
// executes against a session with no binding.
var ErrCredentialMissing = errors.New("no credential bound to session")

// CredentialStore is the process-wide map from session identifier to bearer
// credential. Bindings are never shared across sessions even when the header
// values are identical; the key is always the session ID.
type CredentialStore struct {
	creds sync.Map // session ID -> token
}

// NewCredentialStore returns an empty store. Inject one per process (or per
// test) rather than sharing a package-level singleton.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

// Set binds token to the session. Empty tokens are ignored so a request
// without an Authorization header never clears an existing binding.
func (s *CredentialStore) Set(sessionID, token string) {
	if sessionID == "" || token == "" {
		return
	}
	s.creds.Store(sessionID, token)
}

// Get returns the credential bound to the session, if any.
func (s *CredentialStore) Get(sessionID string) (string, bool) {
	v, ok := s.creds.Load(sessionID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Remove drops the binding for a closing session.
func (s *CredentialStore) Remove(sessionID string) {
	s.creds.Delete(sessionID)
}

// ParseBearer extracts the token from an Authorization header value. The
// second return is false for a missing or non-Bearer header.
func ParseBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	if tok == "" {
		return "", false
	}
	return tok, true
}

// Scope derives a short non-reversible identifier from a credential, used to
// key rate-limit buckets and cache namespaces without holding raw tokens in
// those structures.
func Scope(token string) string {
	if token == "" {
		return "anonymous"
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
