package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionCookie = "admin_session"

var errNoSession = errors.New("no admin session")

// AuthManager mints and verifies admin sessions. A session is an HS256
// JWT carried either as a Bearer header or in the admin_session cookie.
type AuthManager struct {
	secret []byte
	domain string
	secure bool
	ttl    time.Duration
}

// NewAuthManager wires the admin auth layer. An empty secret disables
// admin access entirely: login never succeeds and no token verifies.
func NewAuthManager(secret string, secure bool, domain string, ttl time.Duration) *AuthManager {
	return &AuthManager{secret: []byte(secret), domain: domain, secure: secure, ttl: ttl}
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// VerifySecret compares the presented login secret in constant time.
func (a *AuthManager) VerifySecret(presented string) bool {
	if len(a.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), a.secret) == 1
}

// Mint signs a fresh admin token and installs it as the session cookie.
func (a *AuthManager) Mint(w http.ResponseWriter) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", err
	}
	a.setCookie(w, signed, int(a.ttl.Seconds()))
	return signed, nil
}

// Clear expires the session cookie.
func (a *AuthManager) Clear(w http.ResponseWriter) {
	a.setCookie(w, "", -1)
}

func (a *AuthManager) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		Domain:   a.domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// sessionClaims resolves admin claims from the Authorization header
// first, then the session cookie.
func (a *AuthManager) sessionClaims(r *http.Request) (*AdminClaims, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if len(hdr) > 7 && strings.EqualFold(hdr[:7], "bearer ") {
			return a.decode(strings.TrimSpace(hdr[7:]))
		}
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return a.decode(c.Value)
	}
	return nil, errNoSession
}

func (a *AuthManager) decode(tok string) (*AdminClaims, error) {
	if len(a.secret) == 0 {
		return nil, errNoSession
	}
	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, errors.New("invalid admin token")
	}
	return claims, nil
}

// RequireAdmin rejects requests lacking a valid admin session.
func (a *AuthManager) RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.sessionClaims(r)
			if err != nil || claims.Role != "admin" {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
