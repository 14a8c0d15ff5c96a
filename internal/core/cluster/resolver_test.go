package cluster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozichsergey/SmetaAI/internal/common"
	"github.com/kozichsergey/SmetaAI/internal/entity"
)

type fakeOracle struct {
	text  string
	err   error
	calls int
	got   []string
	block bool
}

func (f *fakeOracle) Group(ctx context.Context, names []string) (string, error) {
	f.calls++
	f.got = names
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func lineItems(names ...string) []entity.LineItem {
	out := make([]entity.LineItem, len(names))
	for i, n := range names {
		out[i] = entity.LineItem{Name: n, MaterialPrice: float64(100 + i), SourceFile: "a.xlsx"}
	}
	return out
}

func labels(cs []entity.Cluster) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Label
	}
	return out
}

func memberCount(cs []entity.Cluster) int {
	n := 0
	for _, c := range cs {
		n += len(c.Members)
	}
	return n
}

func TestResolve_ThrowingOracleFallsBackToSingletons(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("boom")}
	var hooked []string
	r := NewResolver(oracle, nil, WithFallbackHook(func(bucket string, _ error) {
		hooked = append(hooked, bucket)
	}))

	items := lineItems("fan a", "fan b", "fan c", "fan d", "fan e")
	got := r.Resolve(context.Background(), "ventilation", items)

	require.Len(t, got, 5)
	assert.Equal(t, 5, memberCount(got))
	assert.Equal(t, "ventilation: fan a", got[0].Label)
	assert.Equal(t, []string{"ventilation"}, hooked)
	assert.Equal(t, 1, oracle.calls)
}

func TestResolve_SingleItemSkipsOracle(t *testing.T) {
	oracle := &fakeOracle{}
	r := NewResolver(oracle, nil)

	got := r.Resolve(context.Background(), "other", lineItems("paint"))

	require.Len(t, got, 1)
	assert.Equal(t, "other: paint", got[0].Label)
	assert.Zero(t, oracle.calls)
	assert.Empty(t, r.Resolve(context.Background(), "other", nil))
}

func TestResolve_NilOracle(t *testing.T) {
	r := NewResolver(nil, nil)
	got := r.Resolve(context.Background(), "piping", lineItems("pipe 20", "pipe 25"))
	assert.Equal(t, []string{"piping: pipe 20", "piping: pipe 25"}, labels(got))
}

func TestResolve_JSONResponse(t *testing.T) {
	oracle := &fakeOracle{text: `Here you go:
{
  "Axial fan 300": ["1. Axial fan 300", "3. Fan axial 300"],
  "Duct 100": ["2. Duct 100", "9. Ghost item"]
}`}
	r := NewResolver(oracle, nil)

	items := lineItems("Axial fan 300", "Duct 100", "Fan axial 300", "Grille 200")
	got := r.Resolve(context.Background(), "ventilation", items)

	assert.Equal(t, []string{"1. Axial fan 300", "2. Duct 100", "3. Fan axial 300", "4. Grille 200"}, oracle.got)
	assert.Equal(t, []string{
		"ventilation: Axial fan 300",
		"ventilation: Duct 100",
		"ventilation: Grille 200",
	}, labels(got))
	require.Len(t, got[0].Members, 2)
	assert.Equal(t, "Fan axial 300", got[0].Members[1].Name)
	assert.Len(t, got[1].Members, 1)
	assert.Equal(t, 4, memberCount(got))
}

func TestResolve_DuplicateNamesClaimDistinctItems(t *testing.T) {
	oracle := &fakeOracle{text: `{"Fan X": ["Fan X", "Fan X"]}`}
	r := NewResolver(oracle, nil)

	items := lineItems("Fan X", "Fan X")
	items[1].MaterialPrice = 1100
	got := r.Resolve(context.Background(), "ventilation", items)

	require.Len(t, got, 1)
	require.Len(t, got[0].Members, 2)
	assert.Equal(t, 1100.0, got[0].Members[1].MaterialPrice)
}

func TestResolve_ItemReferencedTwiceStaysInFirstCluster(t *testing.T) {
	oracle := &fakeOracle{text: `{"A": ["1. cable a", "2. cable b"], "B": ["2. cable b"]}`}
	r := NewResolver(oracle, nil)

	got := r.Resolve(context.Background(), "electrical", lineItems("cable a", "cable b"))

	assert.Equal(t, []string{"electrical: A"}, labels(got))
	assert.Equal(t, 2, memberCount(got))
}

func TestResolve_LegacyResponse(t *testing.T) {
	oracle := &fakeOracle{text: `**Кластер 1: Кабели**
- 1. Кабель ВВГ 3x2.5
- 3. кабель ввг 3х2,5

**Cluster 2: Boxes**
• 2. Junction box
* 7. out of range
`}
	r := NewResolver(oracle, nil)

	got := r.Resolve(context.Background(), "electrical", lineItems("Кабель ВВГ 3x2.5", "Junction box", "кабель ввг 3х2,5"))

	assert.Equal(t, []string{"electrical: Кластер 1: Кабели", "electrical: Cluster 2: Boxes"}, labels(got))
	assert.Len(t, got[0].Members, 2)
	assert.Equal(t, 3, memberCount(got))
}

func TestResolve_UnparseableFallsBack(t *testing.T) {
	for _, text := range []string{"I could not group these.", "{}", `{"A": ["nobody"]}`} {
		oracle := &fakeOracle{text: text}
		fallbacks := 0
		r := NewResolver(oracle, nil, WithFallbackHook(func(string, error) { fallbacks++ }))

		got := r.Resolve(context.Background(), "other", lineItems("x1", "x2", "x3"))

		assert.Equal(t, []string{"other: x1", "other: x2", "other: x3"}, labels(got), text)
		assert.Equal(t, 1, fallbacks, text)
	}
}

func TestResolve_OracleTimeout(t *testing.T) {
	oracle := &fakeOracle{block: true}
	var reason error
	r := NewResolver(oracle, nil,
		WithOracleTimeout(20*time.Millisecond),
		WithFallbackHook(func(_ string, err error) { reason = err }))

	got := r.Resolve(context.Background(), "labor", lineItems("монтаж a", "монтаж b"))

	assert.Len(t, got, 2)
	assert.ErrorIs(t, reason, context.DeadlineExceeded)
}

func TestResolve_MalformedReasonIsTyped(t *testing.T) {
	oracle := &fakeOracle{text: "nothing useful"}
	var reason error
	r := NewResolver(oracle, nil, WithFallbackHook(func(_ string, err error) { reason = err }))

	r.Resolve(context.Background(), "other", lineItems("a", "b"))

	assert.ErrorIs(t, reason, common.ErrOracleMalformedResponse)
}
