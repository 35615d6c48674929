package weighting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/cro/internal/checklist"
	"github.com/joescharf/cro/internal/models"
)

func TestShrink(t *testing.T) {
	assert.Equal(t, 0.0, Shrink(0))
	assert.Equal(t, 0.5, Shrink(5))
	assert.Equal(t, 1.0, Shrink(10))
	assert.Equal(t, 1.0, Shrink(250))
}

func TestWeight(t *testing.T) {
	assert.Equal(t, 0.0, Weight(models.TipStats{N: 0, MeanReward: 1}, 5))
	assert.Equal(t, 0.0, Weight(models.TipStats{N: 0, MeanReward: -0.7}, 1))
	assert.Equal(t, 1.0, Weight(models.TipStats{N: 10, MeanReward: 1}, 1))
	assert.InDelta(t, -0.15, Weight(models.TipStats{N: 3, MeanReward: -0.5}, 1), 1e-12)
	assert.InDelta(t, 2.0, Weight(models.TipStats{N: 20, MeanReward: 0.5}, 4), 1e-12)
}

func TestWeights(t *testing.T) {
	w := Weights(map[string]models.TipStats{
		"a": {N: 10, MeanReward: 1},
		"b": {N: 5, MeanReward: -1},
	}, 1)
	assert.Equal(t, 1.0, w["a"])
	assert.Equal(t, -0.5, w["b"])
	_, ok := w["c"]
	assert.False(t, ok)
}

func TestPriorityValue(t *testing.T) {
	assert.Equal(t, 2.0, PriorityValue(" 2 "))
	assert.Equal(t, 1.5, PriorityValue("1.5"))
	assert.Equal(t, float64(UnrankedPriority), PriorityValue("hoog"))
	assert.Equal(t, float64(UnrankedPriority), PriorityValue(""))
	assert.Equal(t, float64(UnrankedPriority), PriorityValue("NaN"))
}

func tips(cl *checklist.Checklist) []string {
	var out []string
	for _, it := range cl.Items {
		out = append(out, it.TipNorm)
	}
	return out
}

func list(hasPriority bool, rows ...[2]string) *checklist.Checklist {
	cl := &checklist.Checklist{HasPriority: hasPriority}
	for _, r := range rows {
		cl.Items = append(cl.Items, checklist.NewItem("", r[0], r[1], "", "", ""))
	}
	return cl
}

func TestReorder_ByPriorityMinusWeight(t *testing.T) {
	cl := list(true, [2]string{"a", "1"}, [2]string{"b", "2"}, [2]string{"c", "2"}, [2]string{"d", "x"})

	// No weights: plain priority order, ties stable, non-numeric last.
	assert.Equal(t, []string{"a", "b", "c", "d"}, tips(Reorder(cl, nil)))

	// A strong positive weight promotes c ahead of a; a negative one demotes a.
	got := Reorder(cl, map[string]float64{"c": 1.5, "a": -0.5})
	assert.Equal(t, []string{"c", "a", "b", "d"}, tips(got))

	assert.Equal(t, []string{"a", "b", "c", "d"}, tips(cl), "input is not modified")
}

func TestReorder_WithoutPriority(t *testing.T) {
	cl := list(false, [2]string{"a", ""}, [2]string{"b", ""}, [2]string{"c", ""})
	got := Reorder(cl, map[string]float64{"b": 0.3, "c": -0.2})
	assert.Equal(t, []string{"b", "a", "c"}, tips(got))
}

func TestReorder_KeepsItemCount(t *testing.T) {
	cl, err := checklist.Default()
	assert.NoError(t, err)
	got := Reorder(cl, map[string]float64{"favicon": 3})
	assert.Equal(t, cl.Len(), got.Len())
	assert.Equal(t, "favicon", got.Items[0].TipNorm)
}

func TestTable(t *testing.T) {
	stats := map[string]models.TipStats{
		"favicon":      {N: 10, MeanReward: -0.5},
		"logische url": {N: 5, MeanReward: 1},
		"sticky cta":   {N: 20, MeanReward: 1},
		"sticky":       {N: 0, MeanReward: 0},
	}
	got := Table(stats, 1)
	require.Len(t, got, 4)
	assert.Equal(t, "sticky cta", got[0].Tip)
	assert.InDelta(t, 1.0, got[0].Weight, 1e-9)
	assert.Equal(t, "logische url", got[1].Tip)
	assert.InDelta(t, 0.5, got[1].Weight, 1e-9)
	assert.Equal(t, "sticky", got[2].Tip)
	assert.Equal(t, "favicon", got[3].Tip)
	assert.InDelta(t, -0.5, got[3].Weight, 1e-9)

	assert.Empty(t, Table(nil, 1))
}
