package planlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridloom/bessarb/core/planlog"
)

func sampleRecords(base time.Time) []planlog.Record {
	return []planlog.Record{
		{Timestamp: base, Trigger: "startup", Success: true, NetBenefit: 12.5, CyclesUsed: 0.75},
		{Timestamp: base.Add(time.Hour), Trigger: "hourly", Success: false, Error: "no price data"},
		{Timestamp: base.Add(2 * time.Hour), Trigger: "manual", Success: true, NetBenefit: 10.1, CyclesUsed: 0.5},
	}
}

func runStoreTest(t *testing.T, store planlog.Store) {
	t.Helper()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range sampleRecords(base) {
		require.NoError(t, store.Append(r))
	}

	all, err := store.Query(planlog.Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "startup", all[0].Trigger)
	assert.True(t, all[0].Success)
	assert.InDelta(t, 12.5, all[0].NetBenefit, 1e-9)
	assert.Equal(t, "no price data", all[1].Error)

	ranged, err := store.Query(planlog.Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "hourly", ranged[0].Trigger)

	require.NoError(t, store.Close())
}

func TestJSONLStore(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "plans.jsonl"))
	require.NoError(t, err)
	runStoreTest(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	runStoreTest(t, store)
}

func TestJSONLStoreSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(planlog.Record{Timestamp: base, Trigger: "manual", Success: true}))

	appendRaw(t, path, "{not json\n")
	require.NoError(t, store.Append(planlog.Record{Timestamp: base.Add(time.Hour), Trigger: "daily", Success: true}))

	res, err := store.Query(planlog.Query{})
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func appendRaw(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(line)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
