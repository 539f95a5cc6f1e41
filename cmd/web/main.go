package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"depths/internal/config"
	"depths/internal/dojo"
	"depths/internal/game"
	"depths/internal/handlers"
	"depths/internal/screen"
	"depths/internal/session"
	"depths/internal/systems"
)

func main() {
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("parse log level")
	}
	zerolog.SetGlobalLevel(level)

	manifest, err := dojo.LoadManifest(cfg.ManifestPath())
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ManifestPath()).Msg("load manifest")
	}
	rpcClient, toriiClient := newHTTPClients()
	dispatcher := dojo.NewRPCDispatcher(cfg.RPCURL, cfg.AccountAddress, rpcClient)
	calls, err := systems.FromManifest(dispatcher, manifest)
	if err != nil {
		log.Fatal().Err(err).Msg("resolve actions contract")
	}
	torii := dojo.NewToriiClient(cfg.ToriiURL, toriiClient)

	policy := screen.SwallowErrors
	if cfg.SurfaceErrors {
		policy = screen.SurfaceErrors
	}
	store := game.NewStore(torii, game.Options{
		Policy:       policy,
		PollInterval: cfg.PollInterval,
		QueryTimeout: cfg.QueryTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchEntities(ctx, dojo.NewSubscriber(cfg.ToriiURL), store)
	go store.RunSweeper(ctx, time.Minute, 2*time.Hour)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("static files")
	}

	r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))

	deps := handlers.Deps{
		Store:   store,
		Calls:   calls,
		Signer:  session.NewSigner(cfg.SessionSecret),
		Player:  cfg.AccountAddress,
		Policy:  policy,
		BaseURL: cfg.BaseURL,
	}
	handlers.NewMenuHandler(deps).RegisterRoutes(r)
	handlers.NewGameHandler(deps).RegisterRoutes(r)

	// No write timeout: the screen stream stays open.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdown)
	}()

	log.Info().
		Str("addr", cfg.Addr).
		Str("rpc", cfg.RPCURL).
		Str("torii", cfg.ToriiURL).
		Str("relay", cfg.RelayURL).
		Bool("local", cfg.IsLocal()).
		Msg("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("serve")
	}
}

// newHTTPClients returns the RPC client and the indexer client. Indexer
// queries carry no client timeout; QUERY_TIMEOUT bounds them per request.
func newHTTPClients() (rpc, torii *http.Client) {
	return &http.Client{Timeout: 15 * time.Second}, &http.Client{}
}

// watchEntities wakes every poll loop on indexer entity updates,
// reconnecting with backoff until ctx is done.
func watchEntities(ctx context.Context, sub *dojo.Subscriber, store *game.Store) {
	backoff := time.Second
	for {
		err := sub.Subscribe(ctx, func(u dojo.EntityUpdate) {
			log.Debug().Str("entity", u.ID).Msg("entity updated")
			store.WakeAll()
		})
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Dur("retry", backoff).Msg("entity subscription ended")
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

//go:embed static/*
var embeddedStatic embed.FS
