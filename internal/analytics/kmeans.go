package analytics

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

const (
	kmeansMaxIter   = 300
	kmeansTolerance = 1e-4
)

// kmeansResult is the best run of a k-means fit.
type kmeansResult struct {
	labels    []int
	centroids [][]float64
	inertia   float64
}

// kmeans clusters points into k groups using nInit k-means++ seeded runs
// drawn from rng and returns the run with the lowest inertia.
func kmeans(points [][]float64, k, nInit int, rng *rand.Rand) kmeansResult {
	if nInit < 1 {
		nInit = 1
	}
	best := kmeansResult{inertia: math.Inf(1)}
	for run := 0; run < nInit; run++ {
		res := lloyd(points, kmeansPlusPlus(points, k, rng))
		if res.inertia < best.inertia {
			best = res
		}
	}
	return best
}

// kmeansPlusPlus picks k initial centroids, each new one with probability
// proportional to its squared distance from the nearest chosen centroid.
func kmeansPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clonePoint(points[rng.Intn(n)]))

	dist := make([]float64, n)
	for i, p := range points {
		dist[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(dist)
		next := rng.Intn(n)
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range dist {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}
		c := clonePoint(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centroids
}

// lloyd iterates assignment and update steps until centroids settle.
func lloyd(points [][]float64, centroids [][]float64) kmeansResult {
	k := len(centroids)
	dim := len(points[0])
	labels := make([]int, len(points))

	for iter := 0; iter < kmeansMaxIter; iter++ {
		for i, p := range points {
			labels[i] = nearest(p, centroids)
		}

		next := make([][]float64, k)
		counts := make([]int, k)
		for c := range next {
			next[c] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(next[labels[i]], p)
			counts[labels[i]]++
		}

		shift := 0.0
		for c := range next {
			if counts[c] == 0 {
				// An empty cluster takes over the point farthest from its centroid.
				far := farthestPoint(points, labels, centroids)
				copy(next[c], points[far])
				labels[far] = c
			} else {
				floats.Scale(1/float64(counts[c]), next[c])
			}
			shift += sqDist(next[c], centroids[c])
		}
		centroids = next
		if shift <= kmeansTolerance*kmeansTolerance {
			break
		}
	}

	inertia := 0.0
	for i, p := range points {
		labels[i] = nearest(p, centroids)
		inertia += sqDist(p, centroids[labels[i]])
	}
	return kmeansResult{labels: labels, centroids: centroids, inertia: inertia}
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestD := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func farthestPoint(points [][]float64, labels []int, centroids [][]float64) int {
	far, farD := 0, -1.0
	for i, p := range points {
		if d := sqDist(p, centroids[labels[i]]); d > farD {
			far, farD = i, d
		}
	}
	return far
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clonePoint(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
