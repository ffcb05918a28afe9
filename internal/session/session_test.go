package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestDecode(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	token := signToken(t, jwt.MapClaims{
		"sub":   "u1",
		"name":  "alice",
		"roles": []string{"Admin", "User"},
		"exp":   exp.Unix(),
	})

	s, err := Decode(token)
	if err != nil {
		t.Fatal(err)
	}

	if s.UserID != "u1" {
		t.Errorf("UserID = %q, expected u1", s.UserID)
	}
	if s.Name != "alice" {
		t.Errorf("Name = %q, expected alice", s.Name)
	}
	if len(s.Roles) != 2 || s.Roles[0] != "Admin" || s.Roles[1] != "User" {
		t.Errorf("Roles = %v", s.Roles)
	}
	if s.Token != token {
		t.Error("raw token not kept")
	}
	if s.Expiry.Unix() != exp.Unix() {
		t.Errorf("Expiry = %v, expected %v", s.Expiry, exp)
	}
}

func TestDecodeSingleStringRole(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":   "u1",
		"roles": "User",
	})

	s, err := Decode(token)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Roles) != 1 || s.Roles[0] != "User" {
		t.Errorf("Roles = %v, expected [User]", s.Roles)
	}
}

func TestDecodeMissingSub(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"name": "alice"})
	if _, err := Decode(token); err == nil {
		t.Fatal("expected error for missing sub claim")
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestExpired(t *testing.T) {
	tests := []struct {
		name     string
		sess     *Session
		expected bool
	}{
		{"nil session", nil, true},
		{"empty token", &Session{}, true},
		{"no expiry claim", &Session{Token: "t"}, false},
		{"future expiry", &Session{Token: "t", Expiry: time.Now().Add(time.Hour)}, false},
		{"past expiry", &Session{Token: "t", Expiry: time.Now().Add(-time.Hour)}, true},
	}

	for _, test := range tests {
		if got := test.sess.Expired(); got != test.expected {
			t.Errorf("%s: Expired() = %v, expected %v", test.name, got, test.expected)
		}
	}
}

func TestHasRole(t *testing.T) {
	s := &Session{Roles: []string{"Admin"}}

	if !s.HasRole("Admin") {
		t.Error("HasRole(Admin) = false")
	}
	if s.HasRole("User") {
		t.Error("HasRole(User) = true")
	}

	var nilSess *Session
	if nilSess.HasRole("Admin") {
		t.Error("nil session HasRole = true")
	}

	if !s.HasAnyRole("User", "Admin") {
		t.Error("HasAnyRole(User, Admin) = false")
	}
	if s.HasAnyRole("User", "Viewer") {
		t.Error("HasAnyRole(User, Viewer) = true")
	}
}

func TestSaveLoadClear(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := Load(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("Load on fresh home = %v, expected ErrNotLoggedIn", err)
	}

	token := signToken(t, jwt.MapClaims{"sub": "u1", "name": "alice"})
	sess, err := Decode(token)
	if err != nil {
		t.Fatal(err)
	}

	if err := Save(sess); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.UserID != "u1" || loaded.Token != token {
		t.Errorf("loaded = %+v", loaded)
	}

	if err := Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("Load after Clear = %v, expected ErrNotLoggedIn", err)
	}

	// Clearing twice is fine.
	if err := Clear(); err != nil {
		t.Errorf("second Clear = %v", err)
	}
}
