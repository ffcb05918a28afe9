// Package session holds the persisted authentication state: the bearer
// token issued at login plus the claims decoded from it. It is the single
// source for "who is the current user": everything that needs the user id,
// roles, or token receives a *Session rather than re-reading storage.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hgdelgado/timedeck/internal/config"
)

var ErrNotLoggedIn = errors.New("session: not logged in")

type Session struct {
	Token  string    `json:"token"`
	UserID string    `json:"userId"`
	Name   string    `json:"name"`
	Roles  []string  `json:"roles"`
	Expiry time.Time `json:"expiry"`
}

// Decode builds a Session from a bearer token by reading its claims.
// The signature is not verified client-side; the backend is the authority
// and rejects tampered tokens with a 401.
func Decode(token string) (*Session, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("decode token: missing sub claim")
	}

	s := &Session{
		Token:  token,
		UserID: sub,
		Roles:  rolesClaim(claims["roles"]),
	}

	if name, ok := claims["name"].(string); ok {
		s.Name = name
	}
	if exp, ok := claims["exp"].(float64); ok {
		s.Expiry = time.Unix(int64(exp), 0)
	}

	return s, nil
}

// rolesClaim tolerates both a list and a single string, the two shapes
// backends emit for the roles claim.
func rolesClaim(v any) []string {
	switch roles := v.(type) {
	case []any:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{roles}
	}
	return nil
}

func (s *Session) Expired() bool {
	if s == nil || s.Token == "" {
		return true
	}
	if s.Expiry.IsZero() {
		return false
	}
	return s.Expiry.Before(time.Now())
}

func (s *Session) HasRole(role string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *Session) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if s.HasRole(r) {
			return true
		}
	}
	return false
}

// Load reads the persisted session. A missing file is ErrNotLoggedIn.
func Load() (*Session, error) {
	path, err := config.SessionPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if s.Token == "" {
		return nil, ErrNotLoggedIn
	}

	return &s, nil
}

// Save persists the session. Only the login flow calls this.
func Save(s *Session) error {
	if err := config.EnsureDirectories(); err != nil {
		return err
	}

	path, err := config.SessionPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Clear removes the persisted session. Only the logout flow calls this.
func Clear() error {
	path, err := config.SessionPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
