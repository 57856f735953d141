package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

type memWriter struct {
	path        string
	contentType string
	body        []byte
	puts        int
}

func (w *memWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.path = path
	w.contentType = contentType
	w.body = b
	w.puts++
	return nil
}

type memFills struct {
	fills []domain.FillResult
	err   error
}

func (s *memFills) ListBefore(_ context.Context, _ time.Time) ([]domain.FillResult, error) {
	return s.fills, s.err
}

func fill(symbol string, price float64) domain.FillResult {
	return domain.FillResult{
		Mode:      domain.ModeLive,
		Kind:      domain.OrderMarket,
		Symbol:    symbol,
		Side:      domain.SideBuy,
		Quantity:  1,
		FillPrice: price,
		Status:    domain.StatusFilled,
	}
}

func TestArchiveFillsUploadsJSONL(t *testing.T) {
	w := &memWriter{}
	store := &memFills{fills: []domain.FillResult{
		fill("BTCUSDT", 30000),
		fill("ETHUSDT", 2000),
	}}
	a := NewArchiver(w, store)

	cutoff := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	n, err := a.ArchiveFills(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, "archive/fills/2026-08.jsonl", w.path)
	assert.Equal(t, "application/x-ndjson", w.contentType)

	lines := bytes.Split(bytes.TrimRight(w.body, "\n"), []byte("\n"))
	require.Len(t, lines, 2)
	var first domain.FillResult
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "BTCUSDT", first.Symbol)
	assert.Equal(t, 30000.0, first.FillPrice)
}

func TestArchiveFillsEmptyWindowSkipsUpload(t *testing.T) {
	w := &memWriter{}
	a := NewArchiver(w, &memFills{})

	n, err := a.ArchiveFills(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, w.puts)
}

func TestArchiveFillsQueryFailure(t *testing.T) {
	w := &memWriter{}
	a := NewArchiver(w, &memFills{err: errors.New("connection refused")})

	_, err := a.ArchiveFills(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive fills query")
	assert.Zero(t, w.puts)
}
