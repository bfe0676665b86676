package buybox

// subsets calls fn with the member indexes of every non-empty subset of n
// items, in increasing bitmask order. idx is reused between calls.
func subsets(n int, fn func(idx []int)) {
	if n <= 0 {
		return
	}
	idx := make([]int, 0, n)
	for mask := 1; mask < 1<<n; mask++ {
		idx = idx[:0]
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				idx = append(idx, i)
			}
		}
		fn(idx)
	}
}

// crossProduct calls fn with every combination taking one value from each
// choice list, using a mixed-radix counter. pick is reused between calls.
func crossProduct(choices [][]float64, fn func(pick []float64)) {
	for _, c := range choices {
		if len(c) == 0 {
			return
		}
	}
	counter := make([]int, len(choices))
	pick := make([]float64, len(choices))
	for {
		for i, c := range counter {
			pick[i] = choices[i][c]
		}
		fn(pick)

		pos := len(counter) - 1
		for pos >= 0 {
			counter[pos]++
			if counter[pos] < len(choices[pos]) {
				break
			}
			counter[pos] = 0
			pos--
		}
		if pos < 0 {
			return
		}
	}
}
