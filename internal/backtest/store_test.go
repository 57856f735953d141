package backtest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spotbot/internal/domain"
)

const sampleCSV = `Timestamp,Execution Price
100,10
200,20
300,30
`

func TestLoadSortsByTimestamp(t *testing.T) {
	// Rows out of order; equal timestamps keep source order (stable sort).
	csv := `Timestamp,Execution Price
300,30
100,10
200,20.5
200,20
`
	store, err := Load(strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 4, store.Len())

	ticks := store.From(0)
	assert.Equal(t, []domain.Tick{
		{TS: 100, Price: 10},
		{TS: 200, Price: 20.5},
		{TS: 200, Price: 20},
		{TS: 300, Price: 30},
	}, ticks)
}

func TestLoadMissingColumn(t *testing.T) {
	testCases := []struct {
		desc    string
		csv     string
		missing string
	}{
		{"no timestamp", "Time,Execution Price\n100,10\n", "Timestamp"},
		{"no price", "Timestamp,Price\n100,10\n", "Execution Price"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			store, err := Load(strings.NewReader(tc.csv))
			require.Error(t, err)

			var schema *domain.SchemaError
			require.ErrorAs(t, err, &schema)
			assert.Equal(t, tc.missing, schema.Column)

			// The store survives but is unusable: queries repeat the error.
			_, qerr := store.PriceAtOrBefore(100)
			assert.ErrorAs(t, qerr, &schema)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	store, err := LoadFile("testdata/does-not-exist.csv")
	require.ErrorIs(t, err, domain.ErrDataUnavailable)

	_, qerr := store.Latest()
	assert.ErrorIs(t, qerr, domain.ErrDataUnavailable)
}

func TestLoadBadRow(t *testing.T) {
	_, err := Load(strings.NewReader("Timestamp,Execution Price\nabc,10\n"))
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)

	_, err = Load(strings.NewReader("Timestamp,Execution Price\n100,ten\n"))
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestLoadFractionalTimestamp(t *testing.T) {
	store, err := Load(strings.NewReader("Timestamp,Execution Price\n100.0,10\n"))
	require.NoError(t, err)

	price, err := store.PriceAtOrBefore(100)
	require.NoError(t, err)
	assert.Equal(t, 10.0, price)
}

func TestPriceAtOrBefore(t *testing.T) {
	store, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	price, err := store.PriceAtOrBefore(250)
	require.NoError(t, err)
	assert.Equal(t, 20.0, price)

	price, err = store.PriceAtOrBefore(300)
	require.NoError(t, err)
	assert.Equal(t, 30.0, price)

	_, err = store.PriceAtOrBefore(50)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestFirstAtOrAfter(t *testing.T) {
	store, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	tick, err := store.FirstAtOrAfter(150)
	require.NoError(t, err)
	assert.Equal(t, domain.Tick{TS: 200, Price: 20}, tick)

	tick, err = store.FirstAtOrAfter(300)
	require.NoError(t, err)
	assert.Equal(t, domain.Tick{TS: 300, Price: 30}, tick)

	_, err = store.FirstAtOrAfter(301)
	assert.ErrorIs(t, err, domain.ErrNoFutureData)
}

func TestLatest(t *testing.T) {
	store, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	tick, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, domain.Tick{TS: 300, Price: 30}, tick)

	empty, err := Load(strings.NewReader("Timestamp,Execution Price\n"))
	require.NoError(t, err)
	_, err = empty.Latest()
	assert.ErrorIs(t, err, domain.ErrNoData)
}
