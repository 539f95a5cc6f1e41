package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"depths/internal/models"
	"depths/internal/screen"
	"depths/internal/viewmodel"
	"depths/views/pages"
)

type MenuHandler struct {
	Deps
}

func NewMenuHandler(deps Deps) *MenuHandler {
	return &MenuHandler{Deps: deps}
}

func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/", h.home)
		r.Post("/players", h.createPlayer)
		r.Post("/games", h.createGame)
	})
}

func (h *MenuHandler) home(w http.ResponseWriter, r *http.Request) {
	sess := h.resolve(w, r)
	if sess.View() == screen.GameScreen {
		http.Redirect(w, r, h.url("/game"), http.StatusSeeOther)
		return
	}
	if _, err := h.Store.Refresh(r.Context(), sess); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("refresh snapshot")
	}
	snap := sess.Snapshot()
	render(w, r, pages.MainPage(viewmodel.MainPage{
		Title:         "Depths of Dread",
		HasPlayer:     snap.HasPlayer,
		Username:      models.FeltToString(snap.PlayerData.Username),
		HasActiveGame: snap.HasGame && !snap.GameOver(),
		Loading:       sess.Loading(),
		Notice:        sess.Notice(),
	}))
}

func (h *MenuHandler) createPlayer(w http.ResponseWriter, r *http.Request) {
	sess := h.resolve(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	if username == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}
	if len(username) > models.MaxShortString {
		username = username[:models.MaxShortString]
	}

	sess.SetNotice("")
	if _, err := h.Calls.CreatePlayer(r.Context(), username); h.dispatchFailed(err, "create_player") {
		sess.SetNotice(err.Error())
	}
	http.Redirect(w, r, h.url("/"), http.StatusSeeOther)
}

func (h *MenuHandler) createGame(w http.ResponseWriter, r *http.Request) {
	sess := h.resolve(w, r)
	sess.SetNotice("")
	sess.SetLoading(true)
	if _, err := h.Calls.CreateGame(r.Context()); h.dispatchFailed(err, "create_game") {
		sess.SetLoading(false)
		sess.SetNotice(err.Error())
		http.Redirect(w, r, h.url("/"), http.StatusSeeOther)
		return
	}
	// The game screen clears loading on its first render.
	sess.Navigate(screen.GameScreen)
	http.Redirect(w, r, h.url("/game"), http.StatusSeeOther)
}
