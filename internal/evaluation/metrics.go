package evaluation

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

type ClassificationMetrics struct {
	Accuracy          float64              `json:"accuracy"`
	BalancedAccuracy  float64              `json:"balanced_accuracy"`
	MacroPrecision    float64              `json:"macro_precision"`
	MacroRecall       float64              `json:"macro_recall"`
	MacroF1           float64              `json:"macro_f1"`
	WeightedPrecision float64              `json:"weighted_precision"`
	WeightedRecall    float64              `json:"weighted_recall"`
	WeightedF1        float64              `json:"weighted_f1"`
	Classes           []int                `json:"classes"`
	PerClassMetrics   map[int]ClassMetrics `json:"per_class_metrics"`
	ConfusionMatrix   [][]int              `json:"confusion_matrix"`
	ClassSupport      map[int]int          `json:"class_support"`
	NumSamples        int                  `json:"num_samples"`
	NumClasses        int                  `json:"num_classes"`
}

type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// LabelsOf returns the sorted union of labels seen in yTrue and yPred.
func LabelsOf(yTrue, yPred []int) []int {
	seen := make(map[int]bool)
	for _, label := range yTrue {
		seen[label] = true
	}
	for _, label := range yPred {
		seen[label] = true
	}

	classes := make([]int, 0, len(seen))
	for class := range seen {
		classes = append(classes, class)
	}
	sort.Ints(classes)
	return classes
}

// CalculateMetrics scores predictions over classes. Undefined ratios count as
// zero, and the weighted averages weight each class by its support in yTrue.
func CalculateMetrics(yTrue, yPred []int, classes []int) *ClassificationMetrics {
	if len(yTrue) != len(yPred) || len(yTrue) == 0 {
		return nil
	}

	numSamples := len(yTrue)
	numClasses := len(classes)

	confusionMatrix := buildConfusionMatrix(yTrue, yPred, classes)

	classSupport := make(map[int]int)
	for _, class := range yTrue {
		classSupport[class]++
	}

	perClassMetrics := make(map[int]ClassMetrics)
	var macroPrec, macroRec, macroF1 float64
	var weightedPrec, weightedRec, weightedF1 float64
	totalSupport := 0

	for i, class := range classes {
		tp := confusionMatrix[i][i]
		fp := 0
		fn := 0

		for j := range classes {
			if j != i {
				fp += confusionMatrix[j][i]
				fn += confusionMatrix[i][j]
			}
		}

		precision := safeDivide(float64(tp), float64(tp+fp))
		recall := safeDivide(float64(tp), float64(tp+fn))
		f1 := safeDivide(2*precision*recall, precision+recall)

		support := classSupport[class]
		perClassMetrics[class] = ClassMetrics{
			Precision: precision,
			Recall:    recall,
			F1Score:   f1,
			Support:   support,
		}

		macroPrec += precision
		macroRec += recall
		macroF1 += f1

		weightedPrec += precision * float64(support)
		weightedRec += recall * float64(support)
		weightedF1 += f1 * float64(support)
		totalSupport += support
	}

	correct := 0
	for i, pred := range yPred {
		if pred == yTrue[i] {
			correct++
		}
	}

	balancedAccuracy := 0.0
	present := 0
	for _, class := range classes {
		if classSupport[class] > 0 {
			balancedAccuracy += perClassMetrics[class].Recall
			present++
		}
	}

	return &ClassificationMetrics{
		Accuracy:          float64(correct) / float64(numSamples),
		BalancedAccuracy:  safeDivide(balancedAccuracy, float64(present)),
		MacroPrecision:    safeDivide(macroPrec, float64(numClasses)),
		MacroRecall:       safeDivide(macroRec, float64(numClasses)),
		MacroF1:           safeDivide(macroF1, float64(numClasses)),
		WeightedPrecision: safeDivide(weightedPrec, float64(totalSupport)),
		WeightedRecall:    safeDivide(weightedRec, float64(totalSupport)),
		WeightedF1:        safeDivide(weightedF1, float64(totalSupport)),
		Classes:           classes,
		PerClassMetrics:   perClassMetrics,
		ConfusionMatrix:   confusionMatrix,
		ClassSupport:      classSupport,
		NumSamples:        numSamples,
		NumClasses:        numClasses,
	}
}

// Score computes metrics over the labels present in either slice.
func Score(yTrue, yPred []int) *ClassificationMetrics {
	return CalculateMetrics(yTrue, yPred, LabelsOf(yTrue, yPred))
}

func WeightedF1Score(yTrue, yPred []int) float64 {
	m := Score(yTrue, yPred)
	if m == nil {
		return 0
	}
	return m.WeightedF1
}

func buildConfusionMatrix(yTrue, yPred []int, classes []int) [][]int {
	numClasses := len(classes)
	matrix := make([][]int, numClasses)
	for i := range matrix {
		matrix[i] = make([]int, numClasses)
	}

	classToIdx := make(map[int]int)
	for i, class := range classes {
		classToIdx[class] = i
	}

	for i := range yTrue {
		trueIdx, trueOk := classToIdx[yTrue[i]]
		predIdx, predOk := classToIdx[yPred[i]]
		if trueOk && predOk {
			matrix[trueIdx][predIdx]++
		}
	}

	return matrix
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0.0
	}
	return result
}

func (m *ClassificationMetrics) FormatMetrics() string {
	result := fmt.Sprintf("Accuracy: %.4f\n", m.Accuracy)
	result += fmt.Sprintf("F1-Score: %.4f\n", m.WeightedF1)
	result += fmt.Sprintf("Balanced Accuracy: %.4f\n", m.BalancedAccuracy)
	return result
}

// ClassificationReport renders per-class precision, recall, f1 and support
// followed by the macro and weighted averages.
func (m *ClassificationMetrics) ClassificationReport() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%12s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	for _, class := range m.Classes {
		cm := m.PerClassMetrics[class]
		fmt.Fprintf(&b, "%12d %10.2f %10.2f %10.2f %10d\n",
			class, cm.Precision, cm.Recall, cm.F1Score, cm.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%12s %10s %10s %10.2f %10d\n", "accuracy", "", "", m.Accuracy, m.NumSamples)
	fmt.Fprintf(&b, "%12s %10.2f %10.2f %10.2f %10d\n", "macro avg",
		m.MacroPrecision, m.MacroRecall, m.MacroF1, m.NumSamples)
	fmt.Fprintf(&b, "%12s %10.2f %10.2f %10.2f %10d\n", "weighted avg",
		m.WeightedPrecision, m.WeightedRecall, m.WeightedF1, m.NumSamples)

	return b.String()
}
