package models

import (
	"math/rand"
	"sort"
)

type TreeNode struct {
	IsLeaf    bool
	Class     int
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	Samples   int
	Impurity  float64
}

type DecisionTree struct {
	BaseModel
	Root                *TreeNode
	MaxDepth            int
	MinSamplesSplit     int
	MinImpurityDecrease float64
	ClassWeight         string
	// MaxFeatures > 0 draws that many candidate features at every split.
	MaxFeatures int
	Seed        int64
}

func NewDecisionTree(maxDepth, minSamplesSplit int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = 10
	}

	if minSamplesSplit <= 0 {
		minSamplesSplit = 2
	}

	return &DecisionTree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		BaseModel: BaseModel{
			Name: "DecisionTree",
			Params: map[string]any{
				"max_depth":         maxDepth,
				"min_samples_split": minSamplesSplit,
			},
		},
	}
}

func (dt *DecisionTree) Fit(X [][]float64, y []int) error {
	if err := validateFitInput(X, y); err != nil {
		return err
	}

	weights := uniformWeights(len(y))
	if dt.ClassWeight == ClassWeightBalanced {
		weights = BalancedSampleWeights(y)
	}

	return dt.FitWeighted(X, y, weights)
}

// FitWeighted grows the tree using per-sample weights in the Gini impurity.
func (dt *DecisionTree) FitWeighted(X [][]float64, y []int, weights []float64) error {
	if err := validateFitInput(X, y); err != nil {
		return err
	}
	if len(weights) != len(y) {
		return errLengthMismatch
	}

	dt.Classes = ExtractClasses(y)

	classIdx := make(map[int]int, len(dt.Classes))
	for i, class := range dt.Classes {
		classIdx[class] = i
	}

	b := &treeBuilder{
		tree:      dt,
		X:         X,
		y:         make([]int, len(y)),
		w:         weights,
		nFeatures: len(X[0]),
		rng:       rand.New(rand.NewSource(dt.Seed)),
	}
	for i, label := range y {
		b.y[i] = classIdx[label]
	}

	indices := make([]int, len(y))
	for i := range indices {
		indices[i] = i
	}

	dt.Root = b.build(indices, 0)
	return nil
}

func (dt *DecisionTree) Predict(X [][]float64) []int {
	predictions := make([]int, len(X))

	for i, sample := range X {
		predictions[i] = dt.predictSample(sample, dt.Root)
	}

	return predictions
}

func (dt *DecisionTree) predictSample(sample []float64, node *TreeNode) int {
	for !node.IsLeaf {
		if sample[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Class
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (dt *DecisionTree) Depth() int {
	var depth func(n *TreeNode) int
	depth = func(n *TreeNode) int {
		if n == nil || n.IsLeaf {
			return 0
		}
		l, r := depth(n.Left), depth(n.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return depth(dt.Root)
}

type treeBuilder struct {
	tree      *DecisionTree
	X         [][]float64
	y         []int // class positions into tree.Classes
	w         []float64
	nFeatures int
	rng       *rand.Rand
}

func (b *treeBuilder) build(indices []int, depth int) *TreeNode {
	counts := b.classWeights(indices)
	node := &TreeNode{
		Samples:  len(indices),
		Impurity: gini(counts),
		Class:    b.tree.Classes[argmax(counts)],
	}

	if depth >= b.tree.MaxDepth ||
		len(indices) < b.tree.MinSamplesSplit ||
		node.Impurity == 0 {

		node.IsLeaf = true
		return node
	}

	feature, threshold, decrease, ok := b.findBestSplit(indices, counts, node.Impurity)
	if !ok || decrease <= b.tree.MinImpurityDecrease {
		node.IsLeaf = true
		return node
	}

	var left, right []int
	for _, idx := range indices {
		if b.X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}

	if len(left) == 0 || len(right) == 0 {
		node.IsLeaf = true
		return node
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = b.build(left, depth+1)
	node.Right = b.build(right, depth+1)

	return node
}

func (b *treeBuilder) findBestSplit(indices []int, parentCounts []float64, parentImpurity float64) (int, float64, float64, bool) {
	bestFeature := -1
	bestThreshold := 0.0
	bestDecrease := 0.0

	total := sum(parentCounts)
	nClasses := len(parentCounts)
	sorted := make([]int, len(indices))
	leftCounts := make([]float64, nClasses)
	rightCounts := make([]float64, nClasses)

	for _, feature := range b.candidateFeatures() {
		copy(sorted, indices)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.X[sorted[i]][feature] < b.X[sorted[j]][feature]
		})

		for c := range leftCounts {
			leftCounts[c] = 0
		}
		leftTotal := 0.0

		for p := 0; p < len(sorted)-1; p++ {
			idx := sorted[p]
			leftCounts[b.y[idx]] += b.w[idx]
			leftTotal += b.w[idx]

			current := b.X[idx][feature]
			next := b.X[sorted[p+1]][feature]
			if current == next {
				continue
			}

			for c := range rightCounts {
				rightCounts[c] = parentCounts[c] - leftCounts[c]
			}
			rightTotal := total - leftTotal

			weighted := (leftTotal/total)*gini(leftCounts) + (rightTotal/total)*gini(rightCounts)
			decrease := parentImpurity - weighted

			if decrease > bestDecrease {
				bestDecrease = decrease
				bestFeature = feature
				bestThreshold = current + (next-current)/2
				if bestThreshold >= next {
					bestThreshold = current
				}
			}
		}
	}

	return bestFeature, bestThreshold, bestDecrease, bestFeature >= 0
}

func (b *treeBuilder) candidateFeatures() []int {
	features := make([]int, b.nFeatures)
	for i := range features {
		features[i] = i
	}

	k := b.tree.MaxFeatures
	if k <= 0 || k >= b.nFeatures {
		return features
	}

	for i := 0; i < k; i++ {
		j := i + b.rng.Intn(b.nFeatures-i)
		features[i], features[j] = features[j], features[i]
	}

	selected := features[:k]
	sort.Ints(selected)
	return selected
}

func (b *treeBuilder) classWeights(indices []int) []float64 {
	counts := make([]float64, len(b.tree.Classes))
	for _, idx := range indices {
		counts[b.y[idx]] += b.w[idx]
	}
	return counts
}

func gini(counts []float64) float64 {
	total := sum(counts)
	if total == 0 {
		return 0
	}

	impurity := 1.0
	for _, c := range counts {
		p := c / total
		impurity -= p * p
	}
	if impurity < 1e-12 {
		return 0
	}
	return impurity
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// argmax breaks ties towards the lower index.
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
