package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Fan X", "Fan X", 1},
		{"case insensitive", "FAN x", "fan X", 1},
		{"both empty", "", "", 0},
		{"whitespace only", "   ", "\t", 0},
		{"one empty", "fan", "", 0},
		{"disjoint", "cable", "duct", 0},
		{"half overlap", "round duct 100", "round duct 200", 0.5},
		{"duplicate tokens collapse", "fan fan", "fan", 1},
		{"cyrillic", "Воздуховод круглый", "воздуховод прямоугольный", 1.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"fan x", "fan y z"},
		{"", "cable"},
		{"Кабель ВВГнг 3x2.5", "кабель ввгнг 3x1.5"},
		{"a b c d", "d c"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "%q vs %q", p[0], p[1])
	}
}

func TestBestMatch(t *testing.T) {
	candidates := []Candidate[int]{
		{Name: "round duct 100", Payload: 1},
		{Name: "round duct 200", Payload: 2},
		{Name: "axial fan", Payload: 3},
	}

	t.Run("picks highest score", func(t *testing.T) {
		m, ok := BestMatch("axial fan 300", candidates, DefaultThreshold)
		require.True(t, ok)
		assert.Equal(t, 3, m.Payload)
		assert.InDelta(t, 2.0/3.0, m.Score, 1e-9)
	})

	t.Run("first wins on ties", func(t *testing.T) {
		m, ok := BestMatch("round duct", candidates, DefaultThreshold)
		require.True(t, ok)
		assert.Equal(t, 1, m.Payload)
	})

	t.Run("below threshold", func(t *testing.T) {
		_, ok := BestMatch("cable", candidates, DefaultThreshold)
		assert.False(t, ok)
	})

	t.Run("score equal to threshold is accepted", func(t *testing.T) {
		m, ok := BestMatch("round duct 100", candidates, 1)
		require.True(t, ok)
		assert.Equal(t, 1, m.Payload)
	})

	t.Run("no candidates", func(t *testing.T) {
		_, ok := BestMatch[int]("fan", nil, 0)
		assert.False(t, ok)
	})
}
