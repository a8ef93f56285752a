package kmeans

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Silhouette computes the mean silhouette coefficient of an assignment:
// per observation, (b-a)/max(a,b) where a is the mean distance to the other
// members of its own cluster and b the smallest mean distance to any other
// non-empty cluster. Observations in singleton clusters score 0, as does the
// whole dataset when fewer than two clusters are populated.
func Silhouette(data Dataset, assignment []int, k int) float64 {
	members := make([][]int, k)
	for i, c := range assignment {
		members[c] = append(members[c], i)
	}
	populated := 0
	for _, m := range members {
		if len(m) > 0 {
			populated++
		}
	}
	if populated < 2 {
		return 0
	}

	var total float64
	for i := range data {
		own := assignment[i]
		if len(members[own]) == 1 {
			continue // scores 0
		}

		a := meanDistance(data, i, members[own]) * float64(len(members[own])) / float64(len(members[own])-1)

		b := 0.0
		first := true
		for c := 0; c < k; c++ {
			if c == own || len(members[c]) == 0 {
				continue
			}
			if d := meanDistance(data, i, members[c]); first || d < b {
				b = d
				first = false
			}
		}

		if a < b {
			total += (b - a) / b
		} else if a > b {
			total += (b - a) / a
		}
	}
	return total / float64(len(data))
}

// meanDistance averages the Euclidean distance from data[i] to the listed
// observations; i itself contributes 0, which the caller corrects for when
// the list is i's own cluster.
func meanDistance(data Dataset, i int, idx []int) float64 {
	var s float64
	for _, j := range idx {
		s += EuclideanDistance(data[i], data[j])
	}
	return s / float64(len(idx))
}

// SweepResult summarizes one clustering run inside a sweep over k.
type SweepResult struct {
	K          int
	WCSS       float64
	Silhouette float64
	Iterations int
	Converged  bool
}

// Sweep fits the dataset once per k in [kmin, kmax] and returns the k with
// the highest silhouette score (smallest such k on ties) along with per-k
// results in ascending k order. The runs share the same options and seed and
// are independent, so they execute in parallel.
func Sweep(data Dataset, kmin, kmax int, options ...TrainerOption) (int, []SweepResult, error) {
	if err := validate(data, kmin); err != nil {
		return 0, nil, err
	}
	if kmax < kmin || kmax > len(data) {
		return 0, nil, fmt.Errorf("%w: sweep range [%d, %d] with %d observations", ErrInvalidParameter, kmin, kmax, len(data))
	}

	results := make([]SweepResult, kmax-kmin+1)
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for k := kmin; k <= kmax; k++ {
		g.Go(func() error {
			m, err := NewTrainer(k, options...).Fit(data)
			if err != nil {
				return err
			}
			results[k-kmin] = SweepResult{
				K:          k,
				WCSS:       m.WCSS(),
				Silhouette: Silhouette(data, m.Assignment(), k),
				Iterations: m.Iter(),
				Converged:  m.Converged(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Silhouette > best.Silhouette {
			best = r
		}
	}
	return best.K, results, nil
}
