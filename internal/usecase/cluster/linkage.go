package cluster

import (
	"fmt"
	"sort"

	"github.com/thoughtflow/mindmap/internal/domain"
)

// Partition splits points into k groups via agglomerative Ward linkage.
//
// Merging is deterministic: at every step the pair of clusters with the
// smallest Ward merge cost is joined, and cost ties are broken by the
// lowest cluster-index pair in scan order. Group labels are assigned by
// the smallest original point index inside each final group, so label g
// always identifies the group whose earliest member comes g-th among the
// groups' earliest members.
//
// Returns domain.ErrClusterDegenerate when the input cannot be
// partitioned: fewer points than groups, k < 2, or all points identical.
func Partition(points [][]float64, k int) ([]int, error) {
	n := len(points)
	if k < 2 {
		return nil, fmt.Errorf("k=%d: %w", k, domain.ErrClusterDegenerate)
	}
	if n < k {
		return nil, fmt.Errorf("%d points for %d groups: %w", n, k, domain.ErrClusterDegenerate)
	}
	if allIdentical(points) {
		return nil, fmt.Errorf("all %d points identical: %w", n, domain.ErrClusterDegenerate)
	}

	// Active clusters: centroid + size + member list.
	type agg struct {
		centroid []float64
		size     int
		members  []int
	}
	clusters := make([]*agg, n)
	for i, p := range points {
		c := make([]float64, len(p))
		copy(c, p)
		clusters[i] = &agg{centroid: c, size: 1, members: []int{i}}
	}
	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	// Ward merge cost between clusters a and b:
	// (|a|*|b| / (|a|+|b|)) * ||centroid_a - centroid_b||^2
	cost := func(a, b *agg) float64 {
		var d2 float64
		for i := range a.centroid {
			diff := a.centroid[i] - b.centroid[i]
			d2 += diff * diff
		}
		return float64(a.size) * float64(b.size) / float64(a.size+b.size) * d2
	}

	for len(active) > k {
		bestI, bestJ := -1, -1
		bestCost := 0.0
		for ii := 0; ii < len(active); ii++ {
			for jj := ii + 1; jj < len(active); jj++ {
				c := cost(clusters[active[ii]], clusters[active[jj]])
				// strict < keeps the first pair in scan order on ties
				if bestI < 0 || c < bestCost {
					bestI, bestJ, bestCost = ii, jj, c
				}
			}
		}

		a, b := clusters[active[bestI]], clusters[active[bestJ]]
		total := a.size + b.size
		merged := make([]float64, len(a.centroid))
		for i := range merged {
			merged[i] = (a.centroid[i]*float64(a.size) + b.centroid[i]*float64(b.size)) / float64(total)
		}
		a.centroid = merged
		a.members = append(a.members, b.members...)
		a.size = total
		active = append(active[:bestJ], active[bestJ+1:]...)
	}

	// Stable relabeling: order groups by their smallest member index.
	order := make([]int, len(active))
	copy(order, active)
	sort.Slice(order, func(i, j int) bool {
		return minMember(clusters[order[i]].members) < minMember(clusters[order[j]].members)
	})

	labels := make([]int, n)
	for g, ci := range order {
		for _, m := range clusters[ci].members {
			labels[m] = g
		}
	}
	return labels, nil
}

func minMember(members []int) int {
	m := members[0]
	for _, v := range members[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func allIdentical(points [][]float64) bool {
	first := points[0]
	for _, p := range points[1:] {
		for i := range p {
			if p[i] != first[i] {
				return false
			}
		}
	}
	return true
}
