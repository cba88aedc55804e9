package reconcile

// findSubset returns the positions of a subset of values, of size minSize to
// maxSize, whose sum is within tol of target. Smaller subsets are tried first
// and, within a size, earlier positions win. values must be positive.
func findSubset(values []int64, target, tol int64, minSize, maxSize int) []int {
	for size := minSize; size <= maxSize && size <= len(values); size++ {
		picked := make([]int, 0, size)
		if found := pick(values, target, tol, size, 0, 0, picked); found != nil {
			return found
		}
	}

	return nil
}

func pick(values []int64, target, tol int64, size, start int, sum int64, picked []int) []int {
	if len(picked) == size {
		if abs(sum-target) <= tol {
			return append([]int(nil), picked...)
		}

		return nil
	}

	for i := start; i <= len(values)-(size-len(picked)); i++ {
		next := sum + values[i]
		if next > target+tol {
			continue
		}

		if found := pick(values, target, tol, size, i+1, next, append(picked, i)); found != nil {
			return found
		}
	}

	return nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}
