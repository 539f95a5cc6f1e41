// Package session signs the cookie that ties a browser to its client session.
package session

import (
	"crypto/rand"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "depths_session"
	issuer     = "depths-of-dread"
	lifetime   = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid session token")

// Claims identify a client session and the account it plays as.
type Claims struct {
	Player string `json:"player"`
	jwt.RegisteredClaims
}

// Signer issues and verifies session tokens.
type Signer struct {
	key []byte
	now func() time.Time
}

// NewSigner returns a signer for secret. An empty secret draws a random
// key, which invalidates sessions on restart.
func NewSigner(secret string) *Signer {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &Signer{key: key, now: time.Now}
}

// Sign returns a token for session id playing as player.
func (s *Signer) Sign(id, player string) (string, error) {
	now := s.now()
	claims := Claims{
		Player: player,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify parses tok and returns its claims.
func (s *Signer) Verify(tok string) (*Claims, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !t.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SetCookie writes the session cookie.
func (s *Signer) SetCookie(w http.ResponseWriter, id, player string) error {
	tok, err := s.Sign(id, player)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(lifetime),
	})
	return nil
}

// FromRequest returns the verified claims of the request's session cookie.
func (s *Signer) FromRequest(r *http.Request) (*Claims, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	claims, err := s.Verify(cookie.Value)
	if err != nil {
		return nil, false
	}
	return claims, true
}
