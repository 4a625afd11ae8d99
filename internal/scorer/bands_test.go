package scorer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markusj1201/SoHa-Priorities/internal/model"
)

func TestBands_Lookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hours float64
		want  model.Severity
	}{
		{-5, 1},
		{0, 1},
		{23.99, 1},
		{24, 2},
		{47.5, 2},
		{48, 3},
		{72, 4},
		{95.9, 4},
		{96, 5},
		{500, 5},
	}
	for _, tt := range tests {
		b, ok := floodBands.Lookup(tt.hours)
		assert.True(t, ok, "hours=%v", tt.hours)
		assert.Equal(t, tt.want, b.Severity, "hours=%v", tt.hours)
	}

	_, ok := floodBands.Lookup(math.NaN())
	assert.False(t, ok)
	_, ok = inspectionBands.Lookup(59)
	assert.False(t, ok)
}

func TestBands_NonOverlapping(t *testing.T) {
	t.Parallel()

	for name, bs := range map[string]Bands{
		"flood":      floodBands,
		"deferment":  defermentBands,
		"inspection": inspectionBands,
		"cumulative": cumulativeBands,
	} {
		for i := 1; i < len(bs); i++ {
			assert.Equal(t, bs[i-1].Hi, bs[i].Lo, "%s band %d is not contiguous", name, i)
			assert.Less(t, bs[i].Lo, bs[i].Hi, "%s band %d is empty", name, i)
		}
	}
}

func TestLastMatch(t *testing.T) {
	t.Parallel()

	rules := []Rule[int]{
		{When: func(v int) bool { return v > 0 }, Severity: 3},
		{When: func(v int) bool { return v > 10 }, Severity: 4},
	}
	assert.Equal(t, model.SeverityUnset, LastMatch(rules, 0))
	assert.Equal(t, model.Severity(3), LastMatch(rules, 5))
	assert.Equal(t, model.Severity(4), LastMatch(rules, 50))
}

func TestCompetitionRank(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{4, 2, 2, 1}, competitionRank([]float64{1, 5, 5, 9}))
	assert.Equal(t, []int{1}, competitionRank([]float64{3}))
	assert.Empty(t, competitionRank(nil))
}
