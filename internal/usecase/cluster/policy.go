package cluster

// Policy computes the adaptive recursion limits for one subtree. Pure and
// deterministic: identical inputs always yield identical limits.
type Policy struct {
	// MinSizeRatio is the fraction of the current subtree's sample count
	// used as the minimum-group-size floor. Larger subtrees may fragment
	// into relatively smaller pieces; small subtrees resist
	// over-fragmentation.
	MinSizeRatio float64
}

// Limits returns the effective maximum depth and minimum group size for a
// subtree of sampleCount segments at the given depth.
//
// The depth ceiling shrinks as recursion deepens: max(1, base - depth/2).
// The size floor grows with the subtree: max(baseMinSize, ceil(n*ratio)),
// where the ratio-derived value is clamped to at least 1 so the threshold
// can never reach zero on very small subtrees.
func (p Policy) Limits(sampleCount, depth, baseMaxDepth, baseMinSize int) (maxDepth, minSize int) {
	maxDepth = baseMaxDepth - depth/2
	if maxDepth < 1 {
		maxDepth = 1
	}

	ratioFloor := int(float64(sampleCount) * p.MinSizeRatio)
	if float64(ratioFloor) < float64(sampleCount)*p.MinSizeRatio {
		ratioFloor++ // ceil
	}
	if ratioFloor < 1 {
		ratioFloor = 1
	}

	minSize = baseMinSize
	if ratioFloor > minSize {
		minSize = ratioFloor
	}
	return maxDepth, minSize
}
