package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hgdelgado/timedeck/internal/models"
)

type userContextKey struct{}
type rolesContextKey struct{}

type Auth struct {
	secret []byte
	expiry time.Duration
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret), expiry: 24 * time.Hour}
}

// IssueToken signs an HS256 token carrying the claims the dashboard
// decodes client-side: sub, name, roles, exp.
func (a *Auth) IssueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"name":  user.UserName,
		"roles": user.Roles,
		"exp":   time.Now().Add(a.expiry).Unix(),
		"iat":   time.Now().Unix(),
	})
	return token.SignedString(a.secret)
}

func (a *Auth) parse(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// Middleware validates the bearer token and stores the caller's id and
// roles on the request context. Missing or bad tokens get a 401.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(w, r)
			return
		}

		claims, err := a.parse(parts[1])
		if err != nil {
			unauthorized(w, r)
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			unauthorized(w, r)
			return
		}

		var roles []string
		if list, ok := claims["roles"].([]any); ok {
			for _, v := range list {
				if s, ok := v.(string); ok {
					roles = append(roles, s)
				}
			}
		}

		ctx := context.WithValue(r.Context(), userContextKey{}, sub)
		ctx = context.WithValue(ctx, rolesContextKey{}, roles)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route subtree to callers holding the role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roles, _ := r.Context().Value(rolesContextKey{}).([]string)
			for _, have := range roles {
				if have == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			forbidden(w, r)
		})
	}
}

// CallerID returns the authenticated user id from the request context.
func CallerID(r *http.Request) string {
	id, _ := r.Context().Value(userContextKey{}).(string)
	return id
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
