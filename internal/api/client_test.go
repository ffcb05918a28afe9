package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hgdelgado/timedeck/internal/models"
	"github.com/hgdelgado/timedeck/internal/session"
)

func testClient(handler http.Handler, sess *session.Session) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 5*time.Second, sess), srv
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.User{})
	})

	c, srv := testClient(handler, &session.Session{Token: "tok123"})
	defer srv.Close()

	if _, _, err := c.GetAllUsers(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q, expected Bearer tok123", gotAuth)
	}
}

func TestNoBearerWithoutSession(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode("token")
	})

	c, srv := testClient(handler, nil)
	defer srv.Close()

	if _, err := c.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "x"}); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, expected empty", gotAuth)
	}
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, srv := testClient(handler, &session.Session{Token: "stale"})
	defer srv.Close()

	_, _, err := c.GetAllUsers(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, expected ErrUnauthorized", err)
	}
	if !Unauthorized(err) {
		t.Error("Unauthorized() = false")
	}
}

func TestCanceledContextMapsToSentinel(t *testing.T) {
	blocked := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	})

	c, srv := testClient(handler, nil)
	defer srv.Close()
	defer close(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, _, err := c.GetAllUsers(ctx)
	if !errors.Is(err, ErrCanceled) {
		t.Errorf("err = %v, expected ErrCanceled", err)
	}
}

func TestServerErrorMessageSurfaced(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "name already taken"})
	})

	c, srv := testClient(handler, nil)
	defer srv.Close()

	_, err := c.CreateRole(context.Background(), models.RoleDraft{Name: "Admin", RoleGroup: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "name already taken") {
		t.Errorf("err = %q, expected the server message", got)
	}
}

func TestGetListBareArray(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.User{
			{ID: "1", UserName: "alice"},
			{ID: "2", UserName: "bob"},
		})
	})

	c, srv := testClient(handler, nil)
	defer srv.Close()

	users, total, err := c.GetAllUsers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Errorf("users = %d, expected 2", len(users))
	}
	if total != 2 {
		t.Errorf("total = %d, expected the array length", total)
	}
}

func TestGetListEnvelope(t *testing.T) {
	var gotQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"items":      []models.User{{ID: "1"}},
			"totalCount": 41,
		})
	})

	c, srv := testClient(handler, nil)
	defer srv.Close()

	users, total, err := c.GetUsersPage(context.Background(), 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 {
		t.Errorf("users = %d, expected 1", len(users))
	}
	if total != 41 {
		t.Errorf("total = %d, expected envelope totalCount", total)
	}
	if gotQuery != "page=3&pageSize=10" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestGetListEmptyEnvelope(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"items":      []models.User{},
			"totalCount": 0,
		})
	})

	c, srv := testClient(handler, nil)
	defer srv.Close()

	users, total, err := c.GetUsersPage(context.Background(), 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 0 || total != 0 {
		t.Errorf("got %d users / total %d, expected 0/0", len(users), total)
	}
}

func TestGetListMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object without items", `{"totalCount": 3}`},
		{"scalar", `42`},
		{"string", `"nope"`},
	}

	for _, test := range tests {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(test.body))
		})

		c, srv := testClient(handler, nil)

		_, _, err := c.GetAllUsers(context.Background())
		if !errors.Is(err, ErrMalformedList) {
			t.Errorf("%s: err = %v, expected ErrMalformedList", test.name, err)
		}
		srv.Close()
	}
}

func TestLoginDecodesTokenString(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "a@b.c" {
			t.Errorf("email = %q", req.Email)
		}
		json.NewEncoder(w).Encode("the-token")
	})

	c, srv := testClient(handler, nil)
	defer srv.Close()

	token, err := c.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "pw"})
	if err != nil {
		t.Fatal(err)
	}
	if token != "the-token" {
		t.Errorf("token = %q", token)
	}
}

func TestDeleteSendsNoBody(t *testing.T) {
	var gotMethod, gotPath string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})

	c, srv := testClient(handler, nil)
	defer srv.Close()

	if err := c.DeleteUser(context.Background(), "u9"); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/users/delete/u9" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}
