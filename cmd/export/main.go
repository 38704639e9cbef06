// Command export writes stored contact submissions to an xlsx or csv file.
//
//	export -out submissions.xlsx -since 2026-01-01 -limit 1000
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"portfolio-contact-backend/config"
	"portfolio-contact-backend/internal/bootstrap"
	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/internal/usecase"
	"portfolio-contact-backend/pkg/logger"
)

func main() {
	out := flag.String("out", "", "output file (.xlsx or .csv); defaults to a timestamped xlsx in the working directory")
	since := flag.String("since", "", "only export submissions created on or after this date (YYYY-MM-DD or RFC3339)")
	limit := flag.Int("limit", 0, "maximum number of submissions, 0 for all")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(logger.Options{Level: cfg.LogLevel})

	opts := domain.ListOptions{Limit: *limit}
	if *since != "" {
		t, err := parseSince(*since)
		if err != nil {
			log.Fatalf("Invalid -since: %v", err)
		}
		opts.Since = t
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Log.Error("Submission store unavailable", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	format := "xlsx"
	if strings.EqualFold(filepath.Ext(*out), ".csv") {
		format = "csv"
	}

	data, name, err := usecase.NewExportUsecase(store).Export(ctx, format, opts)
	if err != nil {
		logger.Log.Error("Export failed", "error", err)
		os.Exit(1)
	}
	if *out == "" {
		*out = name
	}
	if err := os.WriteFile(*out, data, 0o600); err != nil {
		logger.Log.Error("Failed to write export", "file", *out, "error", err)
		os.Exit(1)
	}
	logger.Log.Info("Export written", "file", *out, "bytes", len(data))
}

func parseSince(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
