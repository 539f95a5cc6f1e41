package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"depths/internal/dojo"
	"depths/internal/game"
	"depths/internal/models"
	"depths/internal/screen"
	"depths/internal/session"
)

// requestTimeout bounds every route but the stream. Dispatches wait for
// their receipt within it.
const requestTimeout = 30 * time.Second

// Systems is the subset of contract calls the handlers dispatch.
type Systems interface {
	CreatePlayer(ctx context.Context, username string) (dojo.TxHash, error)
	CreateGame(ctx context.Context) (dojo.TxHash, error)
	Move(ctx context.Context, direction models.Direction) (dojo.TxHash, error)
	EndGame(ctx context.Context) (dojo.TxHash, error)
}

// Deps are shared by the menu and game handlers.
type Deps struct {
	Store  *game.Store
	Calls  Systems
	Signer *session.Signer
	// Player is the account address every new session plays as.
	Player string
	Policy screen.ErrorPolicy
	// BaseURL is the public origin prefixed to redirect targets. Empty
	// keeps them relative.
	BaseURL string
}

func (d Deps) url(path string) string {
	return d.BaseURL + path
}

// resolve returns the request's session, creating one and setting its
// cookie when the cookie is missing, invalid or refers to a swept session.
func (d Deps) resolve(w http.ResponseWriter, r *http.Request) *game.Session {
	if claims, ok := d.Signer.FromRequest(r); ok {
		if sess, ok := d.Store.GetSession(claims.Subject); ok {
			return sess
		}
	}
	sess := d.Store.CreateSession(d.Player)
	if err := d.Signer.SetCookie(w, sess.ID, sess.Player); err != nil {
		log.Error().Err(err).Msg("set session cookie")
	}
	return sess
}

// dispatchFailed logs a failed dispatch and reports whether the failure
// should stop the flow.
func (d Deps) dispatchFailed(err error, action string) bool {
	if err == nil {
		return false
	}
	log.Error().Err(err).Str("action", action).Msg("dispatch failed")
	return d.Policy == screen.SurfaceErrors
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("Hx-Request") == "true"
}
