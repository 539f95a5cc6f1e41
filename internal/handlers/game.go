package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"depths/internal/game"
	"depths/internal/models"
	"depths/internal/screen"
	"depths/internal/viewmodel"
	"depths/views/components"
	"depths/views/pages"
)

type GameHandler struct {
	Deps
}

func NewGameHandler(deps Deps) *GameHandler {
	return &GameHandler{Deps: deps}
}

func (h *GameHandler) RegisterRoutes(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Get("/stream", h.stream)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Get("/", h.gamePage)
			r.Get("/screen", h.screenFragment)
			r.Post("/continue", h.continueGame)
			r.Post("/exit", h.openExit)
			r.Post("/confirm/cancel", h.cancelConfirm)
			r.Post("/confirm/end", h.endGame)
			r.Post("/hint/close", h.closeHint)
			r.Post("/floor/next", h.nextFloor)
			r.Post("/move/{dir}", h.move)
			r.Post("/menu", h.mainMenu)
		})
	})
}

// gameSession resolves the session and its mounted screen. Sessions on the
// main menu are sent back to it.
func (h *GameHandler) gameSession(w http.ResponseWriter, r *http.Request) (*game.Session, *screen.Screen, bool) {
	sess := h.resolve(w, r)
	scr := sess.Screen()
	if sess.View() != screen.GameScreen || scr == nil {
		h.respond(w, r, sess)
		return nil, nil, false
	}
	return sess, scr, true
}

func (h *GameHandler) gamePage(w http.ResponseWriter, r *http.Request) {
	sess, scr, ok := h.gameSession(w, r)
	if !ok {
		return
	}
	if _, err := h.Store.Refresh(r.Context(), sess); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("refresh snapshot")
	}
	scr.Mount(sess.SetLoading)
	loop := context.WithoutCancel(r.Context())
	h.Store.StartGameOver(loop, sess)
	h.Store.EnsurePollLoop(loop, sess.ID)

	vm, _ := buildScreen(sess)
	render(w, r, pages.GamePage(viewmodel.GamePage{Title: "Depths of Dread", Screen: vm}))
}

func (h *GameHandler) continueGame(w http.ResponseWriter, r *http.Request) {
	sess := h.resolve(w, r)
	sess.SetNotice("")
	sess.Navigate(screen.GameScreen)
	http.Redirect(w, r, h.url("/game"), http.StatusSeeOther)
}

func (h *GameHandler) screenFragment(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.gameSession(w, r)
	if !ok {
		return
	}
	vm, _ := buildScreen(sess)
	render(w, r, components.GameScreen(vm))
}

func (h *GameHandler) openExit(w http.ResponseWriter, r *http.Request) {
	sess, scr, ok := h.gameSession(w, r)
	if !ok {
		return
	}
	scr.OpenExit()
	h.respond(w, r, sess)
}

func (h *GameHandler) cancelConfirm(w http.ResponseWriter, r *http.Request) {
	sess, scr, ok := h.gameSession(w, r)
	if !ok {
		return
	}
	scr.CancelConfirm()
	h.respond(w, r, sess)
}

func (h *GameHandler) endGame(w http.ResponseWriter, r *http.Request) {
	sess, scr, ok := h.gameSession(w, r)
	if !ok {
		return
	}
	loading := func(on bool) {
		sess.SetLoading(on)
		h.Store.Publish(sess.ID, game.EventScreen)
	}
	// A surfaced error stays on the confirmation overlay.
	_ = scr.Confirm(r.Context(), h.Calls, loading, sess.Navigate)
	h.respond(w, r, sess)
}

func (h *GameHandler) closeHint(w http.ResponseWriter, r *http.Request) {
	sess, scr, ok := h.gameSession(w, r)
	if !ok {
		return
	}
	scr.CloseHint()
	h.respond(w, r, sess)
}

func (h *GameHandler) nextFloor(w http.ResponseWriter, r *http.Request) {
	sess, scr, ok := h.gameSession(w, r)
	if !ok {
		return
	}
	scr.NextFloor()
	h.respond(w, r, sess)
}

func (h *GameHandler) move(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.gameSession(w, r)
	if !ok {
		return
	}
	dir, err := models.ParseDirection(chi.URLParam(r, "dir"))
	if err != nil || dir == models.DirectionNone {
		http.Error(w, "unknown direction", http.StatusBadRequest)
		return
	}
	if _, err := h.Calls.Move(r.Context(), dir); h.dispatchFailed(err, "move") {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.Store.Wake(sess.ID)
	h.respond(w, r, sess)
}

func (h *GameHandler) mainMenu(w http.ResponseWriter, r *http.Request) {
	sess, _, ok := h.gameSession(w, r)
	if !ok {
		return
	}
	sess.Navigate(screen.MainScreen)
	h.respond(w, r, sess)
}

// respond finishes an action: htmx requests get 204 and the fresh screen
// arrives over the stream; plain form posts are redirected to the view the
// session is now on.
func (h *GameHandler) respond(w http.ResponseWriter, r *http.Request, sess *game.Session) {
	target := "/"
	if sess.View() == screen.GameScreen {
		target = "/game"
		h.Store.Publish(sess.ID, game.EventScreen)
	}
	if isHTMX(r) {
		if target == "/" {
			w.Header().Set("HX-Redirect", h.url(target))
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, h.url(target), http.StatusSeeOther)
}

func (h *GameHandler) stream(w http.ResponseWriter, r *http.Request) {
	sess := h.resolve(w, r)
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	hub, ok := h.Store.Broadcaster(sess.ID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	sendScreen := func() {
		vm, ok := buildScreen(sess)
		if !ok {
			return
		}
		writeSSE(w, string(game.EventScreen), renderToString(r, components.GameScreen(vm)))
		flusher.Flush()
	}

	sendScreen()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub:
			if !ok {
				return
			}
			if event == game.EventScreen {
				sendScreen()
			}
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func renderToString(r *http.Request, component templ.Component) string {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("render fragment")
	}
	return buf.String()
}

func writeSSE(w http.ResponseWriter, event string, data string) {
	_, _ = w.Write([]byte("event: " + event + "\n"))
	for _, line := range strings.Split(data, "\n") {
		_, _ = w.Write([]byte("data: " + line + "\n"))
	}
	_, _ = w.Write([]byte("\n"))
}
