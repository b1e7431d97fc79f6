// newsdesk is a single process: HTTP API plus the ingestion, extraction,
// front page, and maintenance workers, all over one embedded database
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"newsdesk/internal/platform/config"
	"newsdesk/internal/platform/logger"
	phttp "newsdesk/internal/platform/net/http"
	"newsdesk/internal/platform/net/middleware"
	"newsdesk/internal/platform/store"

	"newsdesk/internal/adapters/ingest/algolia"
	"newsdesk/internal/adapters/ingest/firebase"
	"newsdesk/internal/adapters/render/cloudflare"

	"newsdesk/internal/services/api"
	extractrepo "newsdesk/internal/services/extract/repo"
	extractsvc "newsdesk/internal/services/extract/service"
	frontpagerepo "newsdesk/internal/services/frontpage/repo"
	frontpagesvc "newsdesk/internal/services/frontpage/service"
	ingestrepo "newsdesk/internal/services/ingest/repo"
	ingestsvc "newsdesk/internal/services/ingest/service"
	janitorrepo "newsdesk/internal/services/janitor/repo"
	janitorsvc "newsdesk/internal/services/janitor/service"
	usagerepo "newsdesk/internal/services/usage/repo"
	usagesvc "newsdesk/internal/services/usage/service"
)

func main() {
	port := flag.Int("port", 8000, "server port")
	public := flag.Bool("public", false, "bind to all interfaces")
	reset := flag.Bool("reset", false, "clear stored stories and exit")
	workers := flag.Int("workers", 0, "content worker count (default from HN_CONTENT_WORKERS)")
	migrate := flag.Bool("migrate-compress", false, "compress stored content in place and exit")
	vacuum := flag.Bool("vacuum", false, "rebuild the database file and exit")
	flag.Parse()

	// config lives under HN_*; Cloudflare credentials keep their own names
	root := config.New()
	cfg := root.Prefix("HN_")
	l := logger.Get()

	host := "127.0.0.1"
	if *public {
		host = "0.0.0.0"
	}
	_ = os.Setenv("HN_API_PORT", fmt.Sprintf("%s:%d", host, *port))

	dataDir := cfg.MayString("DATA_DIR", ".hn_data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		l.Panic().Err(err).Str("dir", dataDir).Msg("create data dir failed")
	}

	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{
		AppName: "newsdesk",
		SQLite: store.SQLiteConfig{
			Path:   filepath.Join(dataDir, "hn.db"),
			LogSQL: cfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	cfAccount := root.MayString("CF_ACCOUNT_ID", "")
	cfToken := root.MayString("CF_API_TOKEN", "")
	if cfAccount == "" || cfToken == "" {
		l.Warn().Msg("CF_ACCOUNT_ID and CF_API_TOKEN not set; content extraction will not work")
	}
	renderer := cloudflare.NewClient(cloudflare.Options{
		AccountID:     cfAccount,
		APIToken:      cfToken,
		GotoTimeoutMs: root.MayInt("CF_BROWSER_TIMEOUT_MS", 2000),
	})

	usageSvc := usagesvc.New(st.DB, usagerepo.NewSQL())

	workerCount := *workers
	if workerCount <= 0 {
		workerCount = cfg.MayInt("CONTENT_WORKERS", 3)
	}
	extractSvc := extractsvc.New(st.DB, extractrepo.NewSQL(), renderer, usageSvc,
		extractsvc.Config{Workers: workerCount})

	hn := firebase.NewClient(firebase.Options{})
	ingestSvc := ingestsvc.New(st.DB, ingestrepo.NewSQL(),
		algolia.NewClient(algolia.Options{}), hn,
		ingestsvc.Config{Interval: time.Duration(cfg.MayInt("FETCH_INTERVAL", 60)) * time.Minute})

	frontSvc := frontpagesvc.New(st.DB, frontpagerepo.NewSQL(), hn, frontpagesvc.Config{})

	janitorSvc := janitorsvc.New(st.DB, janitorrepo.NewSQL(), st.Maint, usageSvc,
		janitorsvc.Config{
			DismissedAfter: time.Duration(root.MayInt("CLEANUP_DISMISSED_HOURS", 24)) * time.Hour,
			MaxAge:         time.Duration(root.MayInt("CLEANUP_STORY_DAYS", 14)) * 24 * time.Hour,
			CacheAfter:     time.Duration(root.MayInt("CLEANUP_CONTENT_CACHE_DAYS", 90)) * 24 * time.Hour,
			BackupDir:      filepath.Join(dataDir, "backups"),
		})

	// one-shot modes run against the open store and exit
	switch {
	case *reset:
		if err := st.Maint.Reset(ctx); err != nil {
			l.Panic().Err(err).Msg("reset failed")
		}
		l.Info().Msg("reset complete; next fetch will look back from now")
		return
	case *migrate:
		res, err := janitorSvc.MigrateCompress(ctx)
		if err != nil {
			l.Panic().Err(err).Msg("compression migration failed")
		}
		l.Info().Int("migrated", res.Migrated).Int("errors", res.Errors).
			Int("total_compressed", res.TotalCompressed).Str("backup", res.Backup).
			Msg("compression migration complete")
		return
	case *vacuum:
		if err := janitorSvc.Vacuum(ctx); err != nil {
			l.Panic().Err(err).Msg("vacuum failed")
		}
		l.Info().Msg("vacuum complete")
		return
	}

	srv := phttp.NewServer(cfg)
	api.Mount(srv.Router(), api.Options{
		Config: cfg,
		Store:  st,
		Logger: l,
		Auth: middleware.BasicAuthCreds{
			User: cfg.MayString("USER", ""),
			Pass: cfg.MayString("PASSWORD", ""),
		},
		Extract:        extractSvc,
		Ingest:         ingestSvc,
		EnableProfiler: cfg.MayBool("PROFILER", false),
	})

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error { return ingestSvc.Run(gctx) })
	g.Go(func() error { return extractSvc.Run(gctx) })
	g.Go(func() error { return frontSvc.Run(gctx) })
	g.Go(func() error { return janitorSvc.Run(gctx) })

	if err := g.Wait(); err != nil {
		l.Panic().Err(err).Msg("newsdesk stopped with error")
	}
	l.Info().Msg("newsdesk stopped")
}
