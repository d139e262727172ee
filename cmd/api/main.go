package main

import (
	"context"
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	backendcl "hotel_frontdesk/internal/adapters/backend"
	server "hotel_frontdesk/internal/adapters/http_server"
	"hotel_frontdesk/internal/adapters/observability"
	redisad "hotel_frontdesk/internal/adapters/redis"
	"hotel_frontdesk/internal/app"
	"hotel_frontdesk/internal/domain"
	"hotel_frontdesk/internal/shared"
	mysqlstore "hotel_frontdesk/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// property store: remote API when configured, local MySQL otherwise
	var store domain.Backend
	if cfg.BackendBase != "" {
		cl, err := backendcl.New(cfg.BackendBase, cfg.BackendKey, cfg.BackendRPS)
		if err != nil {
			log.Fatal().Err(err).Msg("backend client init failed")
		}
		store = cl
		log.Info().Str("base", cfg.BackendBase).Msg("using remote property store")
	} else {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.Ping(); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("database connection ok")
		store = mysqlstore.New(db)
	}

	// deps
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	catalog := app.NewCatalogService(store, cache, cfg.CacheTTL)
	desk := app.NewSessionManager(store, catalog, log.Logger)

	refresher := app.NewRefresher(catalog, cfg.RefreshIntv, desk.AnyInForm, cfg.Refreshers, log.Logger)
	go refresher.Run(context.Background())

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Catalog: catalog, Desk: desk})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("front desk API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
