package analysis

// FindPeaks returns the indices of the local maxima of x. A peak must rise
// strictly into it and fall strictly out of it; a flat top counts once, at
// its middle sample (rounded down). The end points are never peaks.
func FindPeaks(x []float64) []int {
	peaks := make([]int, 0)
	last := len(x) - 1

	for i := 1; i < last; i++ {
		if !(x[i-1] < x[i]) {
			continue
		}
		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			peaks = append(peaks, (i+ahead-1)/2)
			i = ahead
		}
	}

	return peaks
}
