package ann

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreeWayDistinct(t *testing.T) {
	idx := New(DefaultParams(), rand.New(rand.NewSource(42)))
	require.NoError(t, idx.Add("a", []float32{1, 0, 0}))
	require.NoError(t, idx.Add("b", []float32{0, 1, 0}))
	require.NoError(t, idx.Add("c", []float32{0, 0, 1}))

	results := idx.Search([]float32{0.9, 0.1, 0.0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
	assert.Greater(t, results[0].Score, 0.99)
	assert.Greater(t, results[1].Score, 0.0)
}

func TestDuplicateIDRejected(t *testing.T) {
	idx := New(DefaultParams(), rand.New(rand.NewSource(1)))
	require.NoError(t, idx.Add("a", []float32{1, 0}))
	err := idx.Add("a", []float32{0, 1})
	assert.Error(t, err)
}

func TestDimensionMismatchRejected(t *testing.T) {
	idx := New(DefaultParams(), rand.New(rand.NewSource(1)))
	require.NoError(t, idx.Add("a", []float32{1, 0, 0}))
	err := idx.Add("b", []float32{1, 0})
	assert.Error(t, err)
}

func TestEmptyIndexSearch(t *testing.T) {
	idx := New(DefaultParams(), rand.New(rand.NewSource(1)))
	assert.Empty(t, idx.Search([]float32{1, 0}, 5))
}

func TestRecallFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n = 1000
	const dim = 64

	ids := make([]string, n)
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		ids[i] = idFor(i)
		vectors[i] = randomUnitVector(rng, dim)
	}

	idx := New(DefaultParams(), rand.New(rand.NewSource(99)))
	for i := range ids {
		require.NoError(t, idx.Add(ids[i], vectors[i]))
	}

	var totalRecall float64
	const queries = 100
	for q := 0; q < queries; q++ {
		query := randomUnitVector(rng, dim)

		approx := idx.Search(query, 10)
		approxSet := make(map[string]struct{}, len(approx))
		for _, r := range approx {
			approxSet[r.ID] = struct{}{}
		}

		exact := bruteForceTopK(ids, vectors, query, 10)
		var hit int
		for _, e := range exact {
			if _, ok := approxSet[e]; ok {
				hit++
			}
		}
		totalRecall += float64(hit) / 10.0
	}

	avgRecall := totalRecall / queries
	assert.GreaterOrEqual(t, avgRecall, 0.9, "average top-10 recall should be >= 0.9, got %f", avgRecall)
}

func TestRebuildAfterPurge(t *testing.T) {
	idx := New(DefaultParams(), rand.New(rand.NewSource(3)))
	require.NoError(t, idx.Add("a", []float32{1, 0}))
	require.NoError(t, idx.Add("b", []float32{0, 1}))

	require.NoError(t, idx.Rebuild([]string{"b"}, [][]float32{{0, 1}}))
	assert.Equal(t, 1, idx.Count())
	assert.False(t, idx.Contains("a"))
	assert.True(t, idx.Contains("b"))
}

func TestQuantizerRoundTrip(t *testing.T) {
	vectors := [][]float32{
		{0.1, 10, -5},
		{0.9, -3, 5},
		{0.5, 0, 0},
	}
	q := Calibrate(QuantizeScalar8Bit, vectors)

	for _, v := range vectors {
		encoded := q.Quantize(v)
		decoded := q.Dequantize(encoded)
		for d := range v {
			maxErr := (q.MaxValues[d]-q.MinValues[d])/255.0 + 1e-5
			assert.LessOrEqual(t, math.Abs(float64(v[d]-decoded[d])), float64(maxErr)+1e-6)
		}
	}
}

func TestQuantizerNoneModeRoundTrip(t *testing.T) {
	q := &Quantizer{Method: QuantizeNone}
	v := []float32{1.5, -2.25, 0.0001}
	decoded := q.Dequantize(q.Quantize(v))
	require.Len(t, decoded, len(v))
	for i := range v {
		assert.InDelta(t, v[i], decoded[i], 1e-9)
	}
}

func idFor(i int) string {
	return "v" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var digits []byte
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func randomUnitVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	var norm float64
	for i := range v {
		f := rng.Float64()*2 - 1
		v[i] = float32(f)
		norm += f * f
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func bruteForceTopK(ids []string, vectors [][]float32, query []float32, k int) []string {
	type scored struct {
		id   string
		dist float64
	}
	scoredList := make([]scored, len(ids))
	for i := range ids {
		scoredList[i] = scored{ids[i], distance(Cosine, query, vectors[i])}
	}
	sort.Slice(scoredList, func(i, j int) bool { return scoredList[i].dist < scoredList[j].dist })
	if len(scoredList) > k {
		scoredList = scoredList[:k]
	}
	out := make([]string, len(scoredList))
	for i, s := range scoredList {
		out[i] = s.id
	}
	return out
}
