package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozichsergey/SmetaAI/internal/core/similarity"
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

func testCatalog() []entity.CatalogEntry {
	return []entity.CatalogEntry{
		{Name: "Axial fan 300", MaterialPrice: 1000},
		{Name: "Round duct 100", MaterialPrice: 50},
		{Name: "Copper cable 3x2.5", MaterialPrice: 10},
	}
}

type fakeMatcher struct {
	answers []string
	err     error
	gotCand []string
	calls   int
}

func (f *fakeMatcher) MatchBatch(_ context.Context, _, candidates []string) ([]string, error) {
	f.calls++
	f.gotCand = candidates
	return f.answers, f.err
}

func TestMatchOne(t *testing.T) {
	cat := testCatalog()

	got := MatchOne("axial fan 300 mm", cat, similarity.DefaultThreshold)
	require.NotNil(t, got)
	assert.Equal(t, "Axial fan 300", got.Name)
	assert.Same(t, &cat[0], got)

	assert.Nil(t, MatchOne("concrete", cat, similarity.DefaultThreshold))
	assert.Nil(t, MatchOne("fan", nil, similarity.DefaultThreshold))
}

func TestMatchBatch_OracleAnswersAndFallback(t *testing.T) {
	cat := testCatalog()
	oracle := &fakeMatcher{answers: []string{"Round duct 100", "", "Not in catalog"}}
	var stats MatchStats
	m := NewMatcher(oracle, similarity.DefaultThreshold, nil, WithStatsHook(func(s MatchStats) { stats = s }))

	got := m.MatchBatch(context.Background(), []string{"Duct d100", "axial fan 300", "gypsum board"}, cat)

	require.Len(t, got, 3)
	assert.Equal(t, "Round duct 100", got[0].Name)
	assert.Equal(t, "Axial fan 300", got[1].Name)
	assert.Nil(t, got[2])
	assert.Equal(t, MatchStats{Oracle: 1, Fallback: 1, Missed: 1}, stats)
	assert.Equal(t, []string{"Axial fan 300", "Round duct 100", "Copper cable 3x2.5"}, oracle.gotCand)
}

func TestMatchBatch_OracleFailureFallsBackPerName(t *testing.T) {
	cat := testCatalog()
	m := NewMatcher(&fakeMatcher{err: errors.New("429")}, similarity.DefaultThreshold, nil)

	got := m.MatchBatch(context.Background(), []string{"copper cable 3x2.5", "unrelated"}, cat)

	require.Len(t, got, 2)
	assert.Equal(t, "Copper cable 3x2.5", got[0].Name)
	assert.Nil(t, got[1])
}

func TestMatchBatch_ShortOracleAnswer(t *testing.T) {
	m := NewMatcher(&fakeMatcher{answers: []string{"Axial fan 300"}}, similarity.DefaultThreshold, nil)

	got := m.MatchBatch(context.Background(), []string{"fan", "round duct 100", "x"}, testCatalog())

	require.Len(t, got, 3)
	assert.Equal(t, "Axial fan 300", got[0].Name)
	assert.Equal(t, "Round duct 100", got[1].Name)
	assert.Nil(t, got[2])
}

func TestMatchBatch_NilOracleAndEmptyInputs(t *testing.T) {
	m := NewMatcher(nil, similarity.DefaultThreshold, nil)

	got := m.MatchBatch(context.Background(), []string{"round duct 100"}, testCatalog())
	require.Len(t, got, 1)
	assert.Equal(t, "Round duct 100", got[0].Name)

	oracle := &fakeMatcher{}
	m = NewMatcher(oracle, similarity.DefaultThreshold, nil)
	assert.Len(t, m.MatchBatch(context.Background(), []string{"a", "b"}, nil), 2)
	assert.Empty(t, m.MatchBatch(context.Background(), nil, testCatalog()))
	assert.Zero(t, oracle.calls)
}
