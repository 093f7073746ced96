package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/foldaway/mrtdown-site-sub000/internal/catalogue"
	"github.com/foldaway/mrtdown-site-sub000/internal/config"
	"github.com/foldaway/mrtdown-site-sub000/internal/locale"
	"github.com/foldaway/mrtdown-site-sub000/internal/logger"
	"github.com/foldaway/mrtdown-site-sub000/internal/metrics"
	"github.com/foldaway/mrtdown-site-sub000/internal/trend"
	"github.com/foldaway/mrtdown-site-sub000/internal/upstream"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file (YAML)")
		unit       = flag.String("unit", "", "trend bucket unit: day, month or year")
		count      = flag.String("count", "", "number of trend buckets")
		mode       = flag.String("mode", "count", "trend mode: count or duration")
		lang       = flag.String("lang", "en", "output language")
	)
	flag.Parse()

	if err := run(*configPath, *unit, *count, trend.Mode(*mode), *lang); err != nil {
		fmt.Fprintln(os.Stderr, "mrtdownctl:", err)
		os.Exit(1)
	}
}

func run(configPath, unit, count string, mode trend.Mode, lang string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	bucket, err := trend.ParseBucket(unit, count)
	if err != nil {
		return err
	}

	log := logger.NewNop()
	lines, err := catalogue.Load(cfg.CataloguePath, log)
	if err != nil {
		return fmt.Errorf("load line catalogue: %w", err)
	}
	client := upstream.New(cfg, nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.UpstreamTimeout())
	defer cancel()

	overview, err := client.FetchOverview(ctx)
	if err != nil {
		return err
	}
	stats, err := client.FetchStatistics(ctx)
	if err != nil {
		return err
	}

	f := locale.ForAcceptLanguage(lang)
	card, err := trend.BuildCard(stats.Dates, bucket, mode, trend.Options{
		Now:      time.Now(),
		Location: cfg.Location(),
		Labels:   f,
	})
	if err != nil {
		return err
	}

	r := newRenderer(lines, f)
	summary := metrics.SummariseAdvisories(overview.IssuesActiveNow, overview.IssuesActiveToday)
	fmt.Println(r.advisories(summary))
	fmt.Println(r.trendTable(card))
	return nil
}
