package domain

import (
	"math"
	"slices"
)

// Weights converts a rate matrix to −log(rate) edge weights. Missing edges
// (rate 0 or +Inf) become +Inf.
func Weights(cells []float64) []float64 {
	w := make([]float64, len(cells))
	for i, r := range cells {
		v := -math.Log(r)
		if math.IsInf(v, 0) || math.IsNaN(v) {
			v = math.Inf(1)
		}
		w[i] = v
	}
	return w
}

// FindCycle runs Bellman–Ford from src over the n×n rate matrix and returns a
// profitable round trip as token indices, or false when no negative-weight
// cycle is reachable. The trip starts and ends at src when src lies on it.
func FindCycle(cells []float64, n, src int) ([]int, bool) {
	if n < 2 || len(cells) != n*n || src < 0 || src >= n {
		return nil, false
	}
	w := Weights(cells)

	dist := make([]float64, n)
	pred := make([]int, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		pred[i] = -1
	}
	dist[src] = 0

	relax := func(u, v int) bool {
		if math.IsInf(dist[u], 1) {
			return false
		}
		return dist[u]+w[u*n+v] < dist[v]
	}

	for range n - 1 {
		changed := false
		for u := range n {
			for v := range n {
				if relax(u, v) {
					dist[v] = dist[u] + w[u*n+v]
					pred[v] = u
					changed = true
				}
			}
		}
		if !changed {
			return nil, false
		}
	}

	for u := range n {
		for v := range n {
			if !relax(u, v) {
				continue
			}
			pred[v] = u

			// Walking back n times lands inside the cycle.
			x := v
			for range n {
				if x = pred[x]; x < 0 {
					return nil, false
				}
			}

			cycle := []int{x}
			for y := pred[x]; y != x; y = pred[y] {
				if y < 0 || len(cycle) > n {
					return nil, false
				}
				cycle = append(cycle, y)
			}
			slices.Reverse(cycle)
			return closeAt(cycle, src), true
		}
	}
	return nil, false
}

// closeAt turns a cycle in forward order into a round trip. A cycle through
// src is rotated to start there; any other cycle is closed at its own head.
func closeAt(cycle []int, src int) []int {
	i := max(slices.Index(cycle, src), 0)
	path := append(slices.Clone(cycle[i:]), cycle[:i]...)
	return append(path, path[0])
}
