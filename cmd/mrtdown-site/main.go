package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foldaway/mrtdown-site-sub000/internal/cache"
	"github.com/foldaway/mrtdown-site-sub000/internal/catalogue"
	"github.com/foldaway/mrtdown-site-sub000/internal/config"
	"github.com/foldaway/mrtdown-site-sub000/internal/logger"
	"github.com/foldaway/mrtdown-site-sub000/internal/monitor"
	"github.com/foldaway/mrtdown-site-sub000/internal/search"
	"github.com/foldaway/mrtdown-site-sub000/internal/server"
	"github.com/foldaway/mrtdown-site-sub000/internal/tracing"
	"github.com/foldaway/mrtdown-site-sub000/internal/upstream"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file (YAML)")
		addr       = flag.String("addr", "", "address for the web server (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New("info").Fatal("load config", "error", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Setup(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		log.Fatal("initialise tracing", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown", "error", err)
		}
	}()

	store, err := cache.New(cfg, log)
	if err != nil {
		log.Fatal("initialise cache", "error", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	lines, err := catalogue.Load(cfg.CataloguePath, log)
	if err != nil {
		log.Fatal("load line catalogue", "error", err)
	}
	go func() {
		if err := lines.Watch(ctx); err != nil {
			log.Warn("line catalogue watcher stopped", "error", err)
		}
	}()

	index, err := search.New()
	if err != nil {
		log.Fatal("initialise search index", "error", err)
	}

	client := upstream.New(cfg, store, log.With("component", "upstream"))

	mon := monitor.New(client, monitor.Options{
		Interval:     cfg.PollInterval(),
		TimelineDays: cfg.TimelineDays,
		Location:     cfg.Location(),
		Lines:        lines,
		Index:        index,
		Logger:       log.With("component", "poller"),
	})
	mon.Start()
	defer mon.Stop()

	srv := server.New(client, server.Options{
		Addr:         cfg.Addr,
		Location:     cfg.Location(),
		TimelineDays: cfg.TimelineDays,
		MaxStaleness: 3 * cfg.PollInterval(),
		Feed:         mon,
		Index:        index,
		Lines:        lines,
		Logger:       log.With("component", "http"),
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown", "error", err)
		}
	}()

	log.Info("mrtdown-site listening",
		"addr", cfg.Addr,
		"upstream", cfg.Upstream.BaseURL,
		"cache", cfg.Cache.Backend,
		"poll_interval", cfg.PollInterval(),
	)
	if err := srv.Run(); err != nil {
		log.Fatal("server error", "error", err)
	}
}
