// Command ingest loads both datasets into the database once and exits.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"scci_dashboard/internal/config"
	"scci_dashboard/internal/dataset"
	"scci_dashboard/internal/ingestion"
	"scci_dashboard/internal/logger"
	"scci_dashboard/internal/store"
)

func main() {
	truncate := flag.Bool("truncate", false, "clear each target table before importing")
	telemetry := flag.String("telemetry", "", "capacity dataset file (default TELEMETRY_FILE)")
	performance := flag.String("performance", "", "performance dataset file (default PERFORMANCE_FILE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger.Setup(cfg)

	db, err := config.InitDB(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}

	reader, err := dataset.NewReader(cfg.DataDir)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open dataset reader")
	}
	defer reader.Close()

	svc := ingestion.NewService(reader, store.New(db), cfg.TelemetryFile, cfg.PerformanceFile)
	summary, loadErr := svc.LoadAll(context.Background(), ingestion.LoadOptions{
		Truncate:        *truncate,
		TelemetryFile:   *telemetry,
		PerformanceFile: *performance,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(summary)

	if loadErr != nil {
		logrus.WithError(loadErr).Fatal("ingestion failed")
	}
}
