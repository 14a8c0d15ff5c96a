package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kozichsergey/SmetaAI/internal/common"
)

func TestJSONParser_KeepsKeyOrder(t *testing.T) {
	text := "```json\n{\"zeta\": [\"1. a\"], \"alpha\": [\"2. b\", 3], \"mid\": \"4. d\"}\n```"

	got, err := JSONParser{}.Parse(text)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "zeta", got[0].Label)
	assert.Equal(t, "alpha", got[1].Label)
	assert.Equal(t, []Ref{{Name: "b", Position: 2}, {Position: 3}}, got[1].Refs)
	assert.Equal(t, []Ref{{Name: "d", Position: 4}}, got[2].Refs)
}

func TestJSONParser_Rejects(t *testing.T) {
	for _, text := range []string{"", "no json here", `{"a": [`, `{"a": {"b": 1}}`} {
		_, err := JSONParser{}.Parse(text)
		assert.ErrorIs(t, err, common.ErrOracleMalformedResponse, text)
	}
}

func TestParseNameRef(t *testing.T) {
	assert.Equal(t, Ref{Name: "Fan X", Position: 3}, parseNameRef("3. Fan X"))
	assert.Equal(t, Ref{Name: "Fan X"}, parseNameRef(" Fan X "))
	assert.Equal(t, Ref{Name: "v. 2 fan"}, parseNameRef("v. 2 fan"))
	assert.Equal(t, Ref{Name: "1.5 mm cable"}, parseNameRef("1.5 mm cable"))
}

func TestLegacyParser(t *testing.T) {
	text := `Some intro.
- 1. orphan bullet before any header
**Cluster A**
- 1. one
- two without number
**Кластер Б (пустой)**
**Cluster C**
  * 2. two
`
	got, err := LegacyParser{}.Parse(text)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Cluster A", got[0].Label)
	assert.Equal(t, []Ref{{Position: 1}}, got[0].Refs)
	assert.Equal(t, "Cluster C", got[1].Label)
	assert.Equal(t, []Ref{{Position: 2}}, got[1].Refs)
}

func TestLegacyParser_NoClusters(t *testing.T) {
	_, err := LegacyParser{}.Parse("just text\n- 1. item")
	assert.ErrorIs(t, err, ErrNoClusters)
	assert.ErrorIs(t, err, common.ErrOracleMalformedResponse)
}
