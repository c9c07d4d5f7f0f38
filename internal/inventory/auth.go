package inventory

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Auth configures how API requests are authenticated.
// With a JWTSecret set, bearer tokens are required and their subject is the
// user ID. Otherwise Basic auth applies when Username is set, and the user ID
// comes from the X-User-ID header or the request body.
type Auth struct {
	JWTSecret string
	Username  string
	// Password is compared as a bcrypt hash when it starts with "$2"
	Password string
}

type userIDKey struct{}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the authenticated user ID, if any
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// authenticate validates the request and returns the user ID it carries
func (a Auth) authenticate(r *http.Request) (string, bool) {
	if a.JWTSecret != "" {
		return a.bearerSubject(r)
	}

	if a.Username != "" && !a.checkBasic(r) {
		return "", false
	}
	return strings.TrimSpace(r.Header.Get("X-User-ID")), true
}

func (a Auth) bearerSubject(r *http.Request) (string, bool) {
	tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		// Browsers cannot set headers on websocket upgrades.
		tokenString = r.URL.Query().Get("access_token")
	}
	if tokenString == "" {
		return "", false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

func (a Auth) checkBasic(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	encoded, ok := strings.CutPrefix(header, "Basic ")
	if !ok {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found || subtle.ConstantTimeCompare([]byte(username), []byte(a.Username)) != 1 {
		return false
	}

	if strings.HasPrefix(a.Password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(a.Password)) == 1
}
