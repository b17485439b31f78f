// Package dataset streams rows out of the columnar (Parquet) extracts that
// feed ingestion. Files are read through an in-process DuckDB engine.
package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/marcboeker/go-duckdb"
	"github.com/sirupsen/logrus"

	"scci_dashboard/internal/apperr"
)

// ErrConsumed is yielded when a row sequence is ranged over a second time.
var ErrConsumed = errors.New("dataset: row sequence already consumed")

// Row is one record of a dataset, keyed by column name.
type Row map[string]any

// Summary describes a dataset without materializing it.
type Summary struct {
	Path     string            `json:"path"`
	Fields   []string          `json:"fields"`
	Metadata map[string]string `json:"metadata"`
	Sample   []Row             `json:"sample"`
}

// Reader resolves dataset paths against a data root and reads them.
type Reader struct {
	root string
	db   *sql.DB
}

// NewReader opens an in-memory DuckDB engine used only to scan files.
func NewReader(dataDir string) (*Reader, error) {
	root, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(0)

	return &Reader{root: root, db: db}, nil
}

func (r *Reader) Close() error {
	return r.db.Close()
}

// Resolve returns the absolute location of path, joined to the data root
// unless already absolute, and fails with apperr.ErrFileNotFound when the
// file does not exist.
func (r *Reader) Resolve(path string) (string, error) {
	resolved := path
	if !filepath.IsAbs(path) {
		resolved = filepath.Join(r.root, path)
	}
	resolved = filepath.Clean(resolved)

	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", apperr.ErrFileNotFound, resolved)
		}
		return "", fmt.Errorf("stat %s: %w", resolved, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", apperr.ErrFileNotFound, resolved)
	}
	return resolved, nil
}

// Rows returns a lazy, single-use sequence over the rows of path in file
// order. A limit <= 0 reads the whole file. The underlying cursor is closed
// when the sequence ends, when the consumer stops early, or on error.
func (r *Reader) Rows(ctx context.Context, path string, limit int) (iter.Seq2[Row, error], error) {
	resolved, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}

	query := "SELECT * FROM read_parquet(" + quoteLiteral(resolved) + ")"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var used atomic.Bool
	return func(yield func(Row, error) bool) {
		if used.Swap(true) {
			yield(nil, ErrConsumed)
			return
		}

		rows, err := r.db.QueryContext(ctx, query)
		if err != nil {
			yield(nil, fmt.Errorf("read %s: %w", resolved, err))
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			yield(nil, fmt.Errorf("columns %s: %w", resolved, err))
			return
		}

		for rows.Next() {
			row, err := scanRow(rows, cols)
			if !yield(row, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("read %s: %w", resolved, err))
		}
	}, nil
}

// ReadAll drains Rows into a slice.
func (r *Reader) ReadAll(ctx context.Context, path string, limit int) ([]Row, error) {
	seq, err := r.Rows(ctx, path, limit)
	if err != nil {
		return nil, err
	}

	out := []Row{}
	for row, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Summarize returns the schema, key/value metadata and up to sampleSize
// leading rows of path.
func (r *Reader) Summarize(ctx context.Context, path string, sampleSize int) (*Summary, error) {
	resolved, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}
	if sampleSize < 0 {
		sampleSize = 0
	}

	source := quoteLiteral(resolved)
	summary := &Summary{Path: resolved, Metadata: map[string]string{}, Sample: []Row{}}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM read_parquet(%s) LIMIT %d", source, sampleSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", resolved, err)
	}
	defer rows.Close()

	if summary.Fields, err = rows.Columns(); err != nil {
		return nil, fmt.Errorf("columns %s: %w", resolved, err)
	}
	for rows.Next() {
		row, err := scanRow(rows, summary.Fields)
		if err != nil {
			return nil, err
		}
		summary.Sample = append(summary.Sample, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", resolved, err)
	}

	meta, err := r.db.QueryContext(ctx, "SELECT key, value FROM parquet_kv_metadata("+source+")")
	if err != nil {
		logrus.WithError(err).WithField("path", resolved).Warn("Summarize: key/value metadata unavailable")
		return summary, nil
	}
	defer meta.Close()

	for meta.Next() {
		var key, value []byte
		if err := meta.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("metadata %s: %w", resolved, err)
		}
		summary.Metadata[string(key)] = string(value)
	}
	if err := meta.Err(); err != nil {
		return nil, fmt.Errorf("metadata %s: %w", resolved, err)
	}

	return summary, nil
}

func scanRow(rows *sql.Rows, cols []string) (Row, error) {
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	row := make(Row, len(cols))
	for i, col := range cols {
		row[col] = plain(values[i])
	}
	return row, nil
}

// plain turns engine-specific numeric types into float64/int64 so rows
// encode as ordinary JSON and coerce like any other number. NaN and
// infinities become nil.
func plain(v any) any {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case duckdb.Decimal:
		if n.Value == nil {
			return nil
		}
		f, _ := new(big.Float).SetInt(n.Value).Float64()
		return finite(f / math.Pow10(int(n.Scale)))
	case *big.Int:
		if n == nil {
			return nil
		}
		if n.IsInt64() {
			return n.Int64()
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return finite(f)
	default:
		return v
	}
}

func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
