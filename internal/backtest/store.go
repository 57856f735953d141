// Package backtest implements the offline fill-simulation path: a tick store
// loaded from historical trade CSVs and a simulator that replays market and
// limit orders against it.
package backtest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

// Required CSV column headers, matching the export format of the historical
// trade dumps.
const (
	colTimestamp = "Timestamp"
	colPrice     = "Execution Price"
)

// TickStore is an immutable, timestamp-sorted sequence of executed-trade
// records. It is built once at load time; all queries are binary searches
// over the sorted slice and are safe for concurrent use.
//
// A store whose load failed is kept around in an unusable state: every query
// fails fast with the original load error instead of retrying the load.
type TickStore struct {
	ticks   []domain.Tick
	loadErr error
}

// LoadFile loads a tick store from a CSV file on disk. On failure the
// returned store is non-nil but unusable; the same error is also returned so
// callers can log it once up front.
func LoadFile(path string) (*TickStore, error) {
	f, err := os.Open(path)
	if err != nil {
		loadErr := fmt.Errorf("backtest: open %s: %w", path, domain.ErrDataUnavailable)
		return &TickStore{loadErr: loadErr}, loadErr
	}
	defer f.Close()

	return Load(f)
}

// LoadBlob loads a tick store from a CSV object in blob storage, for
// backtests that run against shared datasets instead of local files.
func LoadBlob(ctx context.Context, blobs domain.BlobReader, key string) (*TickStore, error) {
	rc, err := blobs.Get(ctx, key)
	if err != nil {
		loadErr := fmt.Errorf("backtest: fetch %s: %w", key, domain.ErrDataUnavailable)
		return &TickStore{loadErr: loadErr}, loadErr
	}
	defer rc.Close()

	return Load(rc)
}

// Load parses historical trades from r. The source must contain at least the
// "Timestamp" (epoch milliseconds) and "Execution Price" columns; a missing
// column is a SchemaError, checked once here rather than per query. Ticks are
// stable-sorted ascending by timestamp, preserving source order among equal
// timestamps.
func Load(r io.Reader) (*TickStore, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		loadErr := fmt.Errorf("backtest: read header: %w", domain.ErrDataUnavailable)
		return &TickStore{loadErr: loadErr}, loadErr
	}

	tsIdx, priceIdx := -1, -1
	for i, name := range header {
		switch name {
		case colTimestamp:
			tsIdx = i
		case colPrice:
			priceIdx = i
		}
	}
	if tsIdx < 0 {
		loadErr := &domain.SchemaError{Column: colTimestamp}
		return &TickStore{loadErr: loadErr}, loadErr
	}
	if priceIdx < 0 {
		loadErr := &domain.SchemaError{Column: colPrice}
		return &TickStore{loadErr: loadErr}, loadErr
	}

	var ticks []domain.Tick
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			loadErr := fmt.Errorf("backtest: line %d: %w", line, domain.ErrDataUnavailable)
			return &TickStore{loadErr: loadErr}, loadErr
		}

		ts, err := parseMillis(record[tsIdx])
		if err != nil {
			loadErr := fmt.Errorf("backtest: line %d: parse timestamp %q: %w", line, record[tsIdx], domain.ErrDataUnavailable)
			return &TickStore{loadErr: loadErr}, loadErr
		}
		price, err := strconv.ParseFloat(record[priceIdx], 64)
		if err != nil {
			loadErr := fmt.Errorf("backtest: line %d: parse price %q: %w", line, record[priceIdx], domain.ErrDataUnavailable)
			return &TickStore{loadErr: loadErr}, loadErr
		}

		ticks = append(ticks, domain.Tick{TS: ts, Price: price})
	}

	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].TS < ticks[j].TS
	})

	return &TickStore{ticks: ticks}, nil
}

// parseMillis accepts integer or fractional epoch-millisecond values.
func parseMillis(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// Err returns the load error for an unusable store, or nil.
func (s *TickStore) Err() error {
	return s.loadErr
}

// Len returns the number of loaded ticks.
func (s *TickStore) Len() int {
	return len(s.ticks)
}

// PriceAtOrBefore returns the price of the last tick with timestamp <= ts.
// It fails with ErrNoData when ts predates the earliest record.
func (s *TickStore) PriceAtOrBefore(ts int64) (float64, error) {
	if s.loadErr != nil {
		return 0, s.loadErr
	}
	// First index with TS > ts; the tick before it is the answer.
	idx := sort.Search(len(s.ticks), func(i int) bool {
		return s.ticks[i].TS > ts
	})
	if idx == 0 {
		return 0, domain.ErrNoData
	}
	return s.ticks[idx-1].Price, nil
}

// Latest returns the most recent tick, failing with ErrNoData on an empty
// store.
func (s *TickStore) Latest() (domain.Tick, error) {
	if s.loadErr != nil {
		return domain.Tick{}, s.loadErr
	}
	if len(s.ticks) == 0 {
		return domain.Tick{}, domain.ErrNoData
	}
	return s.ticks[len(s.ticks)-1], nil
}

// FirstAtOrAfter returns the first tick with timestamp >= ts, failing with
// ErrNoFutureData when no such tick exists.
func (s *TickStore) FirstAtOrAfter(ts int64) (domain.Tick, error) {
	if s.loadErr != nil {
		return domain.Tick{}, s.loadErr
	}
	idx := sort.Search(len(s.ticks), func(i int) bool {
		return s.ticks[i].TS >= ts
	})
	if idx == len(s.ticks) {
		return domain.Tick{}, domain.ErrNoFutureData
	}
	return s.ticks[idx], nil
}

// From returns the ascending run of ticks with timestamp >= ts. The returned
// slice aliases the store and must not be mutated.
func (s *TickStore) From(ts int64) []domain.Tick {
	idx := sort.Search(len(s.ticks), func(i int) bool {
		return s.ticks[i].TS >= ts
	})
	return s.ticks[idx:]
}
