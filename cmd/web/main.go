// cmd/web/main.go
//
// Sitelet – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load configuration (conf/.env → conf/global.yaml → SITELET_* env).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Open the control-plane DB and the resolution cache, and connect the
//     two object backends: the flat S3-compatible bucket for script and
//     style assets, the transformation provider for image and video.
//
//  4. Register each asset kind on the store router and wire the upload
//     workflow, the site publisher, and the subdomain registry.
//
//  5. Build the view-token issuer: Vault-backed keys when a path is
//     configured, static keys from config otherwise.
//
//  6. Expose Prometheus /metrics and mount the API route tree, wrapped in
//     security headers, request-info enrichment, and optional ForceHTTPS.
//
//  7. Serve with hardened timeouts until SIGINT/SIGTERM, then drain.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sitelet/sitelet/internal/config"
	"github.com/sitelet/sitelet/internal/database"
	"github.com/sitelet/sitelet/internal/logger"
	"github.com/sitelet/sitelet/internal/middleware"
	"github.com/sitelet/sitelet/internal/requestinfo"
	"github.com/sitelet/sitelet/internal/server"
	"github.com/sitelet/sitelet/internal/store"
	"github.com/sitelet/sitelet/internal/subdomain"
	"github.com/sitelet/sitelet/internal/token"
	"github.com/sitelet/sitelet/internal/upload"
	"github.com/sitelet/sitelet/internal/vault"
	"github.com/sitelet/sitelet/internal/web"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logOut, err := logger.New(cfg.Paths.Root, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 2.  Control-plane DB and resolution cache ───────────────────────
	//
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		logOut.Fatalw("connect control-plane DB", "err", err)
	}
	defer db.Close()
	logOut.Infow("control-plane DB online")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cache, err := subdomain.OpenCache(ctx, cfg.Redis)
	if err != nil {
		logOut.Fatalw("connect resolution cache", "err", err)
	}
	registry := subdomain.NewRegistry(db, cache, logOut)

	//
	// ── 3.  Object backends ─────────────────────────────────────────────
	//
	flat, err := store.NewFlatStore(cfg.FlatStore)
	if err != nil {
		logOut.Fatalw("connect flat store", "err", err)
	}
	media := store.NewMediaStore(cfg.MediaStore)

	router := store.NewRouter()
	router.Register(store.KindScript, flat)
	router.Register(store.KindStyle, flat)
	router.Register(store.KindImage, media)
	router.Register(store.KindVideo, media)

	workflow := upload.New(db, router, logOut)
	publisher := upload.NewPublisher(workflow, registry, flat)

	//
	// ── 4.  View-token issuer ───────────────────────────────────────────
	//
	var keys token.KeyProvider
	if cfg.Token.VaultPath != "" {
		vc, err := vault.New(ctx, logOut)
		if err != nil {
			logOut.Fatalw("connect vault", "err", err)
		}
		keys = token.VaultKeys{Client: vc, Path: cfg.Token.VaultPath}
	} else {
		keys = token.StaticKeys{
			ActiveID: cfg.Token.KeyID,
			Keys:     map[string][]byte{cfg.Token.KeyID: []byte(cfg.Token.SigningKey)},
		}
	}
	issuer := token.NewIssuer(keys, cfg.Token.Expiry, cfg.HTTP.PlatformDomain)

	//
	// ── 5.  Access-log enrichment (optional geo) ────────────────────────
	//
	if err := requestinfo.InitGeo(cfg.Geo.DBPath); err != nil {
		logOut.Warnw("geo database unavailable; continuing without", "err", err)
	}

	//
	// ── 6.  Route tree ──────────────────────────────────────────────────
	//
	api := web.NewHandler(db, workflow, publisher, registry, issuer, media,
		web.SQLTokenStore{DB: db}, logOut)

	mux := chi.NewRouter()
	mux.Use(middleware.Security)
	mux.Use(requestinfo.Enrich)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Mount("/", api.Routes())

	var handler http.Handler = mux
	if cfg.HTTP.ForceHTTPS {
		handler = middleware.ForceHTTPS(cfg.HTTP.PlatformDomain, registry, mux)
	}

	//
	// ── 7.  Serve until signalled, then drain ───────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, handler)
	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr, "platform", cfg.HTTP.PlatformDomain)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logOut.Fatalw("serve", "err", err)
		}
	}()

	<-ctx.Done()
	logOut.Infow("shutdown signal received; draining")

	drainCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		logOut.Errorw("shutdown", "err", err)
	}
	logOut.Infow("goodbye")
}
