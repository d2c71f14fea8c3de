package preprocessing

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
)

var ErrTooFewSamples = errors.New("not enough samples for oversampling")

// SMOTE oversamples every class up to the size of the largest one by
// interpolating between a sample and one of its K nearest same-class neighbours.
type SMOTE struct {
	K    int
	Seed int64
}

func NewSMOTE(k int, seed int64) *SMOTE {
	return &SMOTE{K: k, Seed: seed}
}

// SafeNeighbors caps k at the smallest class count minus one.
func SafeNeighbors(y []int, maxK int) int {
	counts := ClassCounts(y)
	if len(counts) == 0 {
		return 0
	}

	minCount := -1
	for _, c := range counts {
		if minCount < 0 || c < minCount {
			minCount = c
		}
	}

	k := minCount - 1
	if maxK < k {
		k = maxK
	}
	return k
}

func ClassCounts(y []int) map[int]int {
	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}
	return counts
}

func sortedClasses(counts map[int]int) []int {
	classes := make([]int, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	sort.Ints(classes)
	return classes
}

// FitResample returns the original rows followed by the synthetic ones.
func (sm *SMOTE) FitResample(X [][]decimal.Decimal, y []int) ([][]decimal.Decimal, []int, error) {
	if len(X) != len(y) {
		return nil, nil, fmt.Errorf("x and y must have the same length")
	}
	if len(X) == 0 {
		return nil, nil, fmt.Errorf("cannot resample empty dataset")
	}
	if sm.K < 1 {
		return nil, nil, fmt.Errorf("%w: k_neighbors=%d", ErrTooFewSamples, sm.K)
	}

	counts := ClassCounts(y)
	classes := sortedClasses(counts)

	maxCount := 0
	for _, class := range classes {
		if counts[class] <= sm.K {
			return nil, nil, fmt.Errorf("%w: class %d has %d samples, k_neighbors=%d",
				ErrTooFewSamples, class, counts[class], sm.K)
		}
		if counts[class] > maxCount {
			maxCount = counts[class]
		}
	}

	XRes := make([][]decimal.Decimal, len(X))
	yRes := make([]int, len(y))
	for i := range X {
		XRes[i] = make([]decimal.Decimal, len(X[i]))
		copy(XRes[i], X[i])
	}
	copy(yRes, y)

	rng := rand.New(rand.NewSource(sm.Seed))

	for _, class := range classes {
		needed := maxCount - counts[class]
		if needed == 0 {
			continue
		}

		var members [][]float64
		var memberRows []int
		for i, label := range y {
			if label == class {
				members = append(members, toFloats(X[i]))
				memberRows = append(memberRows, i)
			}
		}

		neighbors := make([][]int, len(members))
		for i := range members {
			neighbors[i] = sm.findNeighbors(members, i)
		}

		for s := 0; s < needed; s++ {
			i := rng.Intn(len(members))
			nn := neighbors[i][rng.Intn(sm.K)]
			gap := rng.Float64()

			base := members[i]
			diff := make([]float64, len(base))
			floats.SubTo(diff, members[nn], base)

			synthetic := make([]float64, len(base))
			floats.AddScaledTo(synthetic, base, gap, diff)

			row := make([]decimal.Decimal, len(synthetic))
			for j, v := range synthetic {
				if v == base[j] {
					row[j] = X[memberRows[i]][j]
					continue
				}
				row[j] = decimal.NewFromFloat(v)
			}

			XRes = append(XRes, row)
			yRes = append(yRes, class)
		}
	}

	return XRes, yRes, nil
}

// findNeighbors returns the indices of the K nearest members to members[idx],
// excluding idx itself. Ties are broken by index so the result is stable.
func (sm *SMOTE) findNeighbors(members [][]float64, idx int) []int {
	type neighbor struct {
		index    int
		distance float64
	}

	neighbors := make([]neighbor, 0, len(members)-1)
	for i, other := range members {
		if i == idx {
			continue
		}
		neighbors = append(neighbors, neighbor{index: i, distance: floats.Distance(members[idx], other, 2)})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].distance == neighbors[j].distance {
			return neighbors[i].index < neighbors[j].index
		}
		return neighbors[i].distance < neighbors[j].distance
	})

	kNeighbors := make([]int, sm.K)
	for i := 0; i < sm.K; i++ {
		kNeighbors[i] = neighbors[i].index
	}
	return kNeighbors
}

func toFloats(row []decimal.Decimal) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j], _ = v.Float64()
	}
	return out
}
