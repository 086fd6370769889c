package inventory

// RecomputeAvailableCopies applies a change in a book's total copy count to
// its available count. The delta between old and new totals is carried over
// so copies currently out on loan stay accounted for, clamped at zero so a
// stock reduction can never drive the count negative.
func RecomputeAvailableCopies(oldTotal, available, newTotal int) int {
	diff := newTotal - oldTotal
	next := available + diff
	if next < 0 {
		return 0
	}
	return next
}
