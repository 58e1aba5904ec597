package settlement

// SplitEqual divides total minor units into n shares that sum exactly to
// total. The first total%n shares carry one extra minor unit, so the
// distribution is deterministic for a fixed ordering.
func SplitEqual(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	base := total / int64(n)
	remainder := total % int64(n)

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares
}

// ShareHalfUp returns round-half-up(count * total / totalCount) using only
// integer arithmetic. Requires totalCount > 0 and non-negative operands.
func ShareHalfUp(count int, total int64, totalCount int) int64 {
	num := int64(count) * total
	den := int64(totalCount)
	return (2*num + den) / (2 * den)
}
