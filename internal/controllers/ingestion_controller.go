package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"scci_dashboard/internal/apperr"
	"scci_dashboard/internal/dataset"
	"scci_dashboard/internal/ingestion"
)

const (
	defaultPreviewLimit = 10
	defaultSampleSize   = 5
)

// DatasetReader reads and describes dataset files.
type DatasetReader interface {
	ReadAll(ctx context.Context, path string, limit int) ([]dataset.Row, error)
	Summarize(ctx context.Context, path string, sampleSize int) (*dataset.Summary, error)
}

// Loader runs the composite import of both datasets.
type Loader interface {
	LoadAll(ctx context.Context, opts ingestion.LoadOptions) (ingestion.LoadSummary, error)
}

type DatasetPreview struct {
	Limit int           `json:"limit"`
	Rows  []dataset.Row `json:"rows"`
}

type IngestionController struct {
	reader          DatasetReader
	loader          Loader
	telemetryFile   string
	performanceFile string
}

func NewIngestionController(reader DatasetReader, loader Loader, telemetryFile, performanceFile string) *IngestionController {
	return &IngestionController{
		reader:          reader,
		loader:          loader,
		telemetryFile:   telemetryFile,
		performanceFile: performanceFile,
	}
}

// Preview returns the leading rows of both configured datasets.
func (ic *IngestionController) Preview(c *gin.Context) {
	limit := positiveQuery(c, "limit", defaultPreviewLimit)

	var county, transearch DatasetPreview
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		rows, err := ic.reader.ReadAll(ctx, ic.telemetryFile, limit)
		county = DatasetPreview{Limit: limit, Rows: rows}
		return err
	})
	g.Go(func() error {
		rows, err := ic.reader.ReadAll(ctx, ic.performanceFile, limit)
		transearch = DatasetPreview{Limit: limit, Rows: rows}
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(c, "Preview", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"countyPairMoves": county, "transearch": transearch})
}

// Metadata returns schema, key/value metadata and a sample of both datasets.
func (ic *IngestionController) Metadata(c *gin.Context) {
	sampleSize := positiveQuery(c, "sampleSize", defaultSampleSize)

	var county, transearch *dataset.Summary
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		county, err = ic.reader.Summarize(ctx, ic.telemetryFile, sampleSize)
		return err
	})
	g.Go(func() (err error) {
		transearch, err = ic.reader.Summarize(ctx, ic.performanceFile, sampleSize)
		return err
	})
	if err := g.Wait(); err != nil {
		respondError(c, "Metadata", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"countyPairMoves": county, "transearch": transearch})
}

// Load imports both datasets. Each dataset commits or fails on its own;
// the response reports both and is 500 when either failed.
func (ic *IngestionController) Load(c *gin.Context) {
	var input struct {
		Truncate bool `json:"truncate"`
		Files    struct {
			Telemetry   string `json:"telemetry"`
			Performance string `json:"performance"`
		} `json:"files"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, "Load", apperr.Validation("Invalid request body"))
		return
	}

	summary, err := ic.loader.LoadAll(c.Request.Context(), ingestion.LoadOptions{
		Truncate:        input.Truncate,
		TelemetryFile:   input.Files.Telemetry,
		PerformanceFile: input.Files.Performance,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, summary)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// positiveQuery parses a positive integer query parameter, falling back to def.
func positiveQuery(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
