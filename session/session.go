// Package session holds the auth session store and the identity resolver:
// the single place that decides whether cart operations run as a guest or as
// an authenticated user.
package session

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"storefront/domain"
)

const (
	authKey       = "auth"
	guestIDKey    = "guest-id"
	schemaVersion = 1
)

// authRecord is the persisted session tuple.
type authRecord struct {
	SchemaVersion int             `json:"schemaVersion"`
	User          domain.AuthUser `json:"user"`
	AccessToken   string          `json:"accessToken"`
	RefreshToken  string          `json:"refreshToken"`
}

// Store restores the session from durable storage on construction and keeps
// it persisted across mutations. Corrupt or missing records yield an
// unauthenticated session, never an error.
type Store struct {
	mu     sync.Mutex
	kv     domain.KeyValueStore
	record *authRecord
}

// NewStore constructs a Store, restoring any persisted session record.
func NewStore(kv domain.KeyValueStore) *Store {
	s := &Store{kv: kv}
	s.restore()
	return s
}

func (s *Store) restore() {
	b, ok, err := s.kv.Get(authKey)
	if err != nil || !ok {
		return
	}
	var rec authRecord
	if err := json.Unmarshal(b, &rec); err != nil || rec.SchemaVersion > schemaVersion {
		slog.Warn("auth record corrupt, treating session as unauthenticated", "error", err)
		_ = s.kv.Delete(authKey)
		return
	}
	s.record = &rec
}

// Resolve returns the active session identity. With a stored non-empty
// access token the session is authenticated; otherwise it is a guest keyed
// by a stable generated guest id. No network calls.
func (s *Store) Resolve() domain.SessionIdentity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record != nil && s.record.AccessToken != "" {
		return domain.AuthenticatedIdentity(s.record.User, s.record.AccessToken, s.record.RefreshToken)
	}
	return domain.GuestIdentity(s.guestID())
}

// guestID loads the persisted guest id, generating and persisting one on
// first use. Callers hold s.mu.
func (s *Store) guestID() string {
	b, ok, err := s.kv.Get(guestIDKey)
	if err == nil && ok {
		var id string
		if err := json.Unmarshal(b, &id); err == nil && id != "" {
			return id
		}
		slog.Warn("guest id corrupt, generating a new one")
	}
	id := uuid.NewString()
	if b, err := json.Marshal(id); err == nil {
		if err := s.kv.Set(guestIDKey, b); err != nil {
			slog.Warn("persisting guest id failed", "error", err)
		}
	}
	return id
}

// Session returns the current user, or nil when unauthenticated.
func (s *Store) Session() *domain.AuthUser {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return nil
	}
	u := s.record.User
	return &u
}

// SetSession persists the full session tuple and marks the session
// authenticated. The guest id is dropped: after the transition the client
// stops sending guestId and starts sending the bearer token.
func (s *Store) SetSession(user domain.AuthUser, accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := authRecord{
		SchemaVersion: schemaVersion,
		User:          user,
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.kv.Set(authKey, b); err != nil {
		return err
	}
	s.record = &rec
	return s.kv.Delete(guestIDKey)
}

// ClearSession removes the durable record and marks the session
// unauthenticated; the next Resolve returns a fresh guest identity.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = nil
	return s.kv.Delete(authKey)
}

// PatchUser merges a partial profile update into the current user and
// re-persists. Token fields are never touched. No-op when unauthenticated.
func (s *Store) PatchUser(patch domain.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return nil
	}
	if patch.Username != nil {
		s.record.User.Username = *patch.Username
	}
	if patch.Email != nil {
		s.record.User.Email = *patch.Email
	}
	if patch.Phone != nil {
		s.record.User.Phone = *patch.Phone
	}
	if patch.Gender != nil {
		s.record.User.Gender = *patch.Gender
	}
	b, err := json.Marshal(*s.record)
	if err != nil {
		return err
	}
	return s.kv.Set(authKey, b)
}
