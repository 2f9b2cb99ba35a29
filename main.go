// main.go
//
// Entry point for the crossword server.
// Wires config → logging → SQLite → dictionaries → engine → HTTP/websocket server,
// then runs the HTTP listener and the engine scheduler until SIGINT/SIGTERM.

package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/crossword/assets"
	"github.com/robalobadob/crossword/internal/auth"
	"github.com/robalobadob/crossword/internal/config"
	"github.com/robalobadob/crossword/internal/db"
	"github.com/robalobadob/crossword/internal/game"
	"github.com/robalobadob/crossword/internal/generator"
	"github.com/robalobadob/crossword/internal/httpserver"
	"github.com/robalobadob/crossword/internal/results"
	"github.com/robalobadob/crossword/internal/store"
	"github.com/robalobadob/crossword/internal/words"
)

func main() {
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer conn.Close()
	if err := db.Migrate(context.Background(), conn, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	var dicts fs.FS = assets.Dictionaries()
	if cfg.DictionariesDir != "" {
		dicts = os.DirFS(cfg.DictionariesDir)
	}
	lib, err := words.Open(dicts, cfg.GeneralTheme)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load dictionaries")
	}
	themes, entries := lib.Stats()
	log.Info().Int("themes", themes).Int("entries", entries).Str("general", lib.General()).Msg("dictionaries loaded")

	hub := httpserver.NewHub()
	rs := results.NewStore(conn)
	engine := game.NewEngine(
		store.NewMemoryStore[*game.Session](),
		lib,
		generator.New(),
		hub,
		game.WithRecorder(rs),
	)

	svc := auth.NewService(
		auth.NewUsers(conn),
		auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiresDays, cfg.CookieName, cfg.Production),
	)
	srv := httpserver.New(
		httpserver.Deps{Engine: engine, Hub: hub, Themes: lib, Results: rs, Auth: svc},
		httpserver.Options{ClientOrigin: cfg.ClientOrigin, WSRate: cfg.WSRate, WSBurst: cfg.WSBurst},
	)
	httpSrv := srv.HTTPServer(":" + cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("starting crossword server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return engine.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited")
		return
	}
	log.Info().Msg("bye")
}
