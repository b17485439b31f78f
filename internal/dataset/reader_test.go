package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scci_dashboard/internal/apperr"
)

func newTestReader(t *testing.T) *Reader {
	t.Helper()
	r, err := NewReader(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// writeParquet materializes query as a Parquet file under the reader root.
func writeParquet(t *testing.T, r *Reader, name, query, options string) string {
	t.Helper()
	path := filepath.Join(r.root, name)
	stmt := fmt.Sprintf("COPY (%s) TO %s (FORMAT PARQUET%s)", query, quoteLiteral(path), options)
	_, err := r.db.Exec(stmt)
	require.NoError(t, err)
	return path
}

const sampleQuery = `SELECT 'R' || i::VARCHAR AS route_code, i AS week, i * 1.5 AS available
	FROM range(10) t(i) ORDER BY i`

func TestResolve(t *testing.T) {
	r := newTestReader(t)
	abs := writeParquet(t, r, "a.parquet", sampleQuery, "")

	got, err := r.Resolve("a.parquet")
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	got, err = r.Resolve(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	_, err = r.Resolve("missing.parquet")
	assert.ErrorIs(t, err, apperr.ErrFileNotFound)

	_, err = r.Resolve(".")
	assert.ErrorIs(t, err, apperr.ErrFileNotFound)
}

func TestRows_FileOrderAndLimit(t *testing.T) {
	r := newTestReader(t)
	writeParquet(t, r, "a.parquet", sampleQuery, "")

	rows, err := r.ReadAll(context.Background(), "a.parquet", 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, fmt.Sprintf("R%d", i), row["route_code"])
		assert.Equal(t, int64(i), row["week"])
		assert.InDelta(t, float64(i)*1.5, row["available"], 1e-9)
	}

	all, err := r.ReadAll(context.Background(), "a.parquet", 0)
	require.NoError(t, err)
	assert.Len(t, all, 10)
}

func TestRows_MissingFileFailsUpfront(t *testing.T) {
	r := newTestReader(t)

	seq, err := r.Rows(context.Background(), "nope.parquet", 0)
	assert.Nil(t, seq)
	assert.ErrorIs(t, err, apperr.ErrFileNotFound)
}

func TestRows_EarlyStopAndSingleUse(t *testing.T) {
	r := newTestReader(t)
	writeParquet(t, r, "a.parquet", sampleQuery, "")

	seq, err := r.Rows(context.Background(), "a.parquet", 0)
	require.NoError(t, err)

	seen := 0
	for row, err := range seq {
		require.NoError(t, err)
		require.NotNil(t, row)
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)

	for _, err := range seq {
		assert.ErrorIs(t, err, ErrConsumed)
	}

	// The cursor from the abandoned range must not block further reads.
	rows, err := r.ReadAll(context.Background(), "a.parquet", 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRows_NonFiniteDoublesBecomeNull(t *testing.T) {
	r := newTestReader(t)
	writeParquet(t, r, "nan.parquet", `SELECT 'R1' AS route_code,
		'NaN'::DOUBLE AS available, 'Infinity'::DOUBLE AS loaded, '-Infinity'::FLOAT AS used, 2.5::DOUBLE AS total`, "")

	rows, err := r.ReadAll(context.Background(), "nan.parquet", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["available"])
	assert.Nil(t, rows[0]["loaded"])
	assert.Nil(t, rows[0]["used"])
	assert.InDelta(t, 2.5, rows[0]["total"], 1e-9)

	_, err = json.Marshal(rows)
	assert.NoError(t, err)

	s, err := r.Summarize(context.Background(), "nan.parquet", 1)
	require.NoError(t, err)
	_, err = json.Marshal(s)
	assert.NoError(t, err)
}

func TestSummarize(t *testing.T) {
	r := newTestReader(t)
	writeParquet(t, r, "a.parquet", sampleQuery, ", KV_METADATA {source: 'orbcomm', version: '2'}")

	s, err := r.Summarize(context.Background(), "a.parquet", 4)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(r.root, "a.parquet"), s.Path)
	assert.Equal(t, []string{"route_code", "week", "available"}, s.Fields)
	assert.Equal(t, "orbcomm", s.Metadata["source"])
	assert.Equal(t, "2", s.Metadata["version"])
	assert.Len(t, s.Sample, 4)
	assert.Equal(t, "R0", s.Sample[0]["route_code"])
}

func TestSummarize_ZeroSampleStillReportsFields(t *testing.T) {
	r := newTestReader(t)
	writeParquet(t, r, "a.parquet", sampleQuery, "")

	s, err := r.Summarize(context.Background(), "a.parquet", 0)
	require.NoError(t, err)

	assert.Len(t, s.Fields, 3)
	assert.Empty(t, s.Sample)
	assert.NotNil(t, s.Metadata)
}
