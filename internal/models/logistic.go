package models

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is a multinomial (softmax) classifier trained with
// full-batch gradient descent and an L2 penalty of strength 1/C.
type LogisticRegression struct {
	BaseModel
	MaxIter      int
	LearningRate float64
	C            float64
	Tol          float64
	ClassWeight  string
	// Weights holds one row of coefficients per class in Classes order.
	Weights    [][]float64
	Intercepts []float64
	NIter      int
}

func NewLogisticRegression(maxIter int, learningRate, c float64) *LogisticRegression {
	return &LogisticRegression{
		MaxIter:      maxIter,
		LearningRate: learningRate,
		C:            c,
		Tol:          1e-4,
		BaseModel: BaseModel{
			Name: "LogisticRegression",
			Params: map[string]any{
				"max_iter":      maxIter,
				"learning_rate": learningRate,
				"C":             c,
			},
		},
	}
}

func (lr *LogisticRegression) Fit(X [][]float64, y []int) error {
	if err := validateFitInput(X, y); err != nil {
		return err
	}

	lr.Classes = ExtractClasses(y)
	n, d, k := len(X), len(X[0]), len(lr.Classes)

	classIdx := make(map[int]int, k)
	for i, class := range lr.Classes {
		classIdx[class] = i
	}

	sampleWeights := uniformWeights(n)
	if lr.ClassWeight == ClassWeightBalanced {
		sampleWeights = BalancedSampleWeights(y)
	}
	totalWeight := floats.Sum(sampleWeights)

	data := mat.NewDense(n, d, nil)
	for i, row := range X {
		data.SetRow(i, row)
	}

	W := mat.NewDense(d, k, nil)
	b := make([]float64, k)

	var (
		logits = mat.NewDense(n, k, nil)
		resid  = mat.NewDense(n, k, nil)
		gradW  = mat.NewDense(d, k, nil)
		gradB  = make([]float64, k)
		row    = make([]float64, k)
	)

	penalty := 0.0
	if lr.C > 0 {
		penalty = 1 / (lr.C * float64(n))
	}

	lr.NIter = 0
	for iter := 0; iter < lr.MaxIter; iter++ {
		lr.NIter = iter + 1

		logits.Mul(data, W)
		for i := 0; i < n; i++ {
			mat.Row(row, i, logits)
			floats.Add(row, b)
			softmax(row)
			row[classIdx[y[i]]] -= 1
			floats.Scale(sampleWeights[i]/totalWeight, row)
			resid.SetRow(i, row)
		}

		gradW.Mul(data.T(), resid)
		if penalty > 0 {
			gradW.Apply(func(r, c int, v float64) float64 {
				return v + penalty*W.At(r, c)
			}, gradW)
		}

		for c := range gradB {
			gradB[c] = mat.Sum(resid.ColView(c))
		}

		W.Apply(func(r, c int, v float64) float64 {
			return v - lr.LearningRate*gradW.At(r, c)
		}, W)
		floats.AddScaled(b, -lr.LearningRate, gradB)

		if math.Max(mat.Norm(gradW, math.Inf(1)), floats.Norm(gradB, math.Inf(1))) < lr.Tol {
			break
		}
	}

	lr.Weights = make([][]float64, k)
	for c := 0; c < k; c++ {
		lr.Weights[c] = mat.Col(nil, c, W)
	}
	lr.Intercepts = b

	return nil
}

func (lr *LogisticRegression) Predict(X [][]float64) []int {
	predictions := make([]int, len(X))

	for i, proba := range lr.PredictProba(X) {
		predictions[i] = lr.Classes[argmax(proba)]
	}

	return predictions
}

// PredictProba returns class probabilities in Classes order.
func (lr *LogisticRegression) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))

	for i, sample := range X {
		scores := make([]float64, len(lr.Classes))
		for c, w := range lr.Weights {
			scores[c] = floats.Dot(w, sample) + lr.Intercepts[c]
		}
		softmax(scores)
		out[i] = scores
	}

	return out
}

// softmax normalises scores in place.
func softmax(scores []float64) {
	maxScore := floats.Max(scores)
	total := 0.0
	for i, s := range scores {
		scores[i] = math.Exp(s - maxScore)
		total += scores[i]
	}
	floats.Scale(1/total, scores)
}
