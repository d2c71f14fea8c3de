package preprocessing

// Rare quality grades are folded into their nearest populated neighbour so the
// classifier only ever sees 5, 6 and 7.
var qualityMerges = map[int]int{
	3: 5,
	4: 5,
	8: 7,
	9: 7,
}

func NormalizeQuality(q int) int {
	if merged, ok := qualityMerges[q]; ok {
		return merged
	}
	return q
}

func NormalizeQualities(labels []int) []int {
	result := make([]int, len(labels))
	for i, label := range labels {
		result[i] = NormalizeQuality(label)
	}
	return result
}
