package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
	"github.com/kozichsergey/SmetaAI/internal/llm"
)

func writeEstimate(t *testing.T, path string, rows [][]any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f := excelize.NewFile()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

type fakeExtractor struct {
	records []llm.ExtractedRecord
	err     error
	got     []llm.ExtractRequest
}

func (f *fakeExtractor) Extract(_ context.Context, req llm.ExtractRequest) ([]llm.ExtractedRecord, []byte, []byte, error) {
	f.got = append(f.got, req)
	return f.records, []byte("raw answer"), []byte(`[]`), f.err
}

func TestDiscover_NewAndChangedFiles(t *testing.T) {
	root := t.TempDir()
	writeEstimate(t, filepath.Join(root, "a.xlsx"), [][]any{{"Name"}, {"Fan"}})
	writeEstimate(t, filepath.Join(root, "sub", "b.xlsx"), [][]any{{"Name"}, {"Duct"}})
	require.NoError(t, os.WriteFile(filepath.Join(root, "~$a.xlsx"), []byte("lock"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	writeEstimate(t, filepath.Join(root, ".hidden", "c.xlsx"), [][]any{{"Name"}})

	ctx := context.Background()
	cands, stats, err := Discover(ctx, root, nil, nil)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "a.xlsx", cands[0].Name)
	assert.Equal(t, "sub/b.xlsx", cands[1].Name)
	assert.Len(t, cands[0].Meta.Hash, 64)
	assert.EqualValues(t, 2, stats.Changed)
	assert.Equal(t, 2, CountEligible(root))

	processed := map[string]entity.FileMeta{
		"a.xlsx":     cands[0].Meta,
		"sub/b.xlsx": {Hash: "stale"},
	}
	cands, stats, err = Discover(ctx, root, processed, nil)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "sub/b.xlsx", cands[0].Name)
	assert.EqualValues(t, 1, stats.Unchanged)
}

func TestDiscover_MissingRoot(t *testing.T) {
	cands, _, err := Discover(context.Background(), filepath.Join(t.TempDir(), "nope"), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, cands)
}

func TestFileExtractor_FiltersAndStamps(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "estimate.xlsx")
	writeEstimate(t, path, [][]any{{"Name", "Price"}, {"Fan X", 1000}})

	fake := &fakeExtractor{records: []llm.ExtractedRecord{
		{Name: "Fan X", Unit: "pcs", MaterialPrice: 1000},
		{Name: "Delivery", WorkPrice: 0},
		{Name: "Mounting", WorkPrice: 300},
	}}
	responses := filepath.Join(root, "responses")
	x := NewFileExtractor(fake, nil,
		WithResponsesDir(responses),
		WithClock(func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }),
	)

	items, err := x.Extract(context.Background(), Candidate{Path: path, Name: "estimate.xlsx"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Fan X", items[0].Name)
	assert.Equal(t, "estimate.xlsx", items[0].SourceFile)
	assert.Equal(t, "Mounting", items[1].Name)

	require.Len(t, fake.got, 1)
	assert.Contains(t, fake.got[0].Text, "Fan X")

	_, err = os.Stat(filepath.Join(responses, "estimate_20260501_120000_raw.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(responses, "estimate_20260501_120000_clean.json"))
	assert.NoError(t, err)
}

func TestFileExtractor_RejectsNegativePrices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e.xlsx")
	writeEstimate(t, path, [][]any{{"Name", "Price"}, {"Fan X", 1000}})

	fake := &fakeExtractor{records: []llm.ExtractedRecord{
		{Name: "Refund", MaterialPrice: -50},
		{Name: "Discounted mounting", MaterialPrice: -10, WorkPrice: 300},
		{Name: "Fan X", MaterialPrice: 1000},
	}}
	items, err := NewFileExtractor(fake, nil).Extract(context.Background(), Candidate{Path: path, Name: "e.xlsx"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Fan X", items[0].Name)
}

func TestFileExtractor_Failures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e.xlsx")
	writeEstimate(t, path, [][]any{{"Name"}, {"Fan"}})

	_, err := NewFileExtractor(nil, nil).Extract(context.Background(), Candidate{Path: path, Name: "e.xlsx"})
	assert.ErrorIs(t, err, common.ErrOracleUnavailable)

	boom := errors.Join(common.ErrOracleMalformedResponse, errors.New("no array"))
	_, err = NewFileExtractor(&fakeExtractor{err: boom}, nil).Extract(context.Background(), Candidate{Path: path, Name: "e.xlsx"})
	assert.ErrorIs(t, err, common.ErrOracleMalformedResponse)
}

func TestStartWatcher_EmitsDebouncedBatch(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	writeEstimate(t, filepath.Join(root, "new.xlsx"), [][]any{{"Name"}})
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("x"), 0o644))

	select {
	case batch := <-events:
		assert.Equal(t, []string{filepath.Join(root, "new.xlsx")}, batch)
	case <-time.After(5 * time.Second):
		t.Fatal("no watcher batch received")
	}
}

func TestStartWatcher_InitialScan(t *testing.T) {
	root := t.TempDir()
	writeEstimate(t, filepath.Join(root, "old.xlsx"), [][]any{{"Name"}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true}, nil)
	require.NoError(t, err)

	select {
	case batch := <-events:
		assert.Equal(t, []string{filepath.Join(root, "old.xlsx")}, batch)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial batch received")
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
