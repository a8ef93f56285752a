// Package kmeans partitions numeric datasets with Lloyd's algorithm.
//
// The engine is deterministic: given the same dataset, k, iteration cap and
// seed it produces bit-identical centroids, assignments and history.
package kmeans

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Dataset is an ordered sequence of observations, all of the same dimensionality.
type Dataset [][]float64

// EmptyClusterPolicy decides what happens to a centroid that ends an
// iteration with no assigned observations.
type EmptyClusterPolicy int

const (
	// ZeroCentroid leaves the empty cluster's centroid at all-zero
	// coordinates. Degenerate but valid; it can distort WCSS.
	ZeroCentroid EmptyClusterPolicy = iota
	// KeepPrevious retains the centroid's value from the previous iteration.
	KeepPrevious
	// ReassignRandom moves the centroid onto a seeded-random observation.
	ReassignRandom
)

// Trainer holds clustering configuration. The zero value is not usable;
// construct with NewTrainer.
type Trainer struct {
	k             int
	maxIterations int
	distanceFn    DistanceFunc
	tolerance     float64
	seed          int64
	emptyPolicy   EmptyClusterPolicy
}

type TrainerOption func(*Trainer)

// IterationRecord is an immutable snapshot of one iteration: the centroids
// the assignment was computed against, the assignment itself, and its WCSS.
type IterationRecord struct {
	Centroids  Dataset
	Assignment []int
	WCSS       float64
}

// Model is a fitted clustering: final centroids, final assignment and the
// per-iteration history.
type Model struct {
	distanceFn DistanceFunc
	data       Dataset
	centroids  Dataset
	assignment []int
	history    []IterationRecord
	converged  bool
}

// NewTrainer create new Trainer for k clusters.
func NewTrainer(k int, options ...TrainerOption) Trainer {
	t := Trainer{
		k:             k,
		maxIterations: 100,
		distanceFn:    EuclideanDistance,
		tolerance:     1e-6,
		emptyPolicy:   ZeroCentroid,
	}
	for i := range options {
		options[i](&t)
	}
	return t
}

func WithDistanceFunc(fn DistanceFunc) TrainerOption {
	return func(t *Trainer) {
		t.distanceFn = fn
	}
}

func WithMaxIterations(i int) TrainerOption {
	return func(t *Trainer) {
		t.maxIterations = i
	}
}

// WithTolerance sets the per-coordinate relative tolerance under which two
// consecutive centroid sets count as converged.
func WithTolerance(tol float64) TrainerOption {
	return func(t *Trainer) {
		t.tolerance = tol
	}
}

// WithSeed fixes the pseudo-random source used for initialization (and for
// the ReassignRandom policy). Identical seeds yield identical runs.
func WithSeed(seed int64) TrainerOption {
	return func(t *Trainer) {
		t.seed = seed
	}
}

func WithEmptyClusterPolicy(p EmptyClusterPolicy) TrainerOption {
	return func(t *Trainer) {
		t.emptyPolicy = p
	}
}

func validate(data Dataset, k int) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty dataset", ErrInvalidInput)
	}
	dim := len(data[0])
	for i := range data {
		if len(data[i]) != dim {
			return fmt.Errorf("%w: row %d has %d coordinates, want %d", ErrInvalidInput, i, len(data[i]), dim)
		}
	}
	if k < 1 || k > len(data) {
		return fmt.Errorf("%w: k=%d with %d observations", ErrInvalidParameter, k, len(data))
	}
	return nil
}

// Initialize picks k distinct observations, sampled without replacement from
// a source seeded with seed, as the initial centroids.
func Initialize(data Dataset, k int, seed int64) (Dataset, error) {
	if err := validate(data, k); err != nil {
		return nil, err
	}
	return initialize(data, k, rand.New(rand.NewSource(seed))), nil
}

func initialize(data Dataset, k int, rng *rand.Rand) Dataset {
	centroids := make(Dataset, k)
	perm := rng.Perm(len(data))
	for i := 0; i < k; i++ {
		centroids[i] = clone(data[perm[i]])
	}
	return centroids
}

// Assign maps every observation to its nearest centroid. Ties go to the
// lowest-indexed centroid. Pure function of its inputs.
func Assign(data Dataset, centroids Dataset, fn DistanceFunc) []int {
	assignment := make([]int, len(data))
	for i := range data {
		best := 0
		m := fn(data[i], centroids[0])
		for j := 1; j < len(centroids); j++ {
			if d := fn(data[i], centroids[j]); d < m {
				m = d
				best = j
			}
		}
		assignment[i] = best
	}
	return assignment
}

// UpdateCentroids recomputes each centroid as the coordinate-wise mean of its
// assigned observations. A cluster with no observations gets an all-zero
// centroid; callers wanting different degenerate-cluster behavior apply it on
// top (see EmptyClusterPolicy).
func UpdateCentroids(data Dataset, assignment []int, k int) Dataset {
	dim := len(data[0])
	sums := make(Dataset, k)
	counts := make([]int, k)
	for i := 0; i < k; i++ {
		sums[i] = make([]float64, dim)
	}
	for i := range data {
		c := assignment[i]
		counts[c]++
		floats.Add(sums[c], data[i])
	}
	for i := 0; i < k; i++ {
		if counts[i] > 0 {
			floats.Scale(1/float64(counts[i]), sums[i])
		}
	}
	return sums
}

// WCSS is the within-cluster sum of squares: the sum over all observations of
// the squared Euclidean distance to their assigned centroid. Monitoring
// metric only, never a termination criterion by itself.
func WCSS(data Dataset, centroids Dataset, assignment []int) float64 {
	var s float64
	for i := range data {
		s += EuclideanDistanceSquared(data[i], centroids[assignment[i]])
	}
	return s
}

// converged reports whether every coordinate of every centroid moved by less
// than the relative tolerance. Coordinates below 1 in magnitude are compared
// on an absolute scale to avoid a vanishing denominator.
func converged(old, next Dataset, tol float64) bool {
	for i := range old {
		for j := range old[i] {
			scale := math.Abs(old[i][j])
			if scale < 1 {
				scale = 1
			}
			if math.Abs(next[i][j]-old[i][j]) >= tol*scale {
				return false
			}
		}
	}
	return true
}

// Fit runs Lloyd's algorithm: alternate assignment and centroid update until
// the centroids stop moving or the iteration cap is reached. Exhausting the
// cap is not an error; the last computed state is returned and callers can
// compare Iter against the cap (or check Converged) to detect it.
func (t Trainer) Fit(data Dataset) (*Model, error) {
	if err := validate(data, t.k); err != nil {
		return nil, err
	}
	if t.maxIterations < 1 {
		return nil, fmt.Errorf("%w: maxIterations=%d", ErrInvalidParameter, t.maxIterations)
	}

	rng := rand.New(rand.NewSource(t.seed))
	centroids := initialize(data, t.k, rng)

	m := &Model{
		distanceFn: t.distanceFn,
		data:       data,
		history:    make([]IterationRecord, 0, t.maxIterations),
	}

	var assignment []int
	for iter := 0; iter < t.maxIterations; iter++ {
		assignment = Assign(data, centroids, t.distanceFn)
		m.history = append(m.history, IterationRecord{
			Centroids:  cloneAll(centroids),
			Assignment: cloneInts(assignment),
			WCSS:       WCSS(data, centroids, assignment),
		})

		next := UpdateCentroids(data, assignment, t.k)
		t.fixEmpty(data, assignment, centroids, next, rng)

		if converged(centroids, next, t.tolerance) {
			// The pre-update state is the fixed point.
			m.centroids = centroids
			m.assignment = assignment
			m.converged = true
			return m, nil
		}
		centroids = next
	}

	m.centroids = centroids
	m.assignment = assignment
	return m, nil
}

// fixEmpty applies the empty-cluster policy to next in place. prev holds the
// centroids the assignment was computed against.
func (t Trainer) fixEmpty(data Dataset, assignment []int, prev, next Dataset, rng *rand.Rand) {
	if t.emptyPolicy == ZeroCentroid {
		return
	}
	counts := make([]int, t.k)
	for i := range assignment {
		counts[assignment[i]]++
	}
	for i := 0; i < t.k; i++ {
		if counts[i] > 0 {
			continue
		}
		switch t.emptyPolicy {
		case KeepPrevious:
			copy(next[i], prev[i])
		case ReassignRandom:
			copy(next[i], data[rng.Intn(len(data))])
		}
	}
}

// Centroids returns the final centroids.
func (m *Model) Centroids() Dataset {
	return m.centroids
}

// Assignment returns the mapping from observation index to cluster index.
func (m *Model) Assignment() []int {
	return m.assignment
}

// History returns the per-iteration snapshots, oldest first.
func (m *Model) History() []IterationRecord {
	return m.history
}

// Iter returns the number of completed iterations.
func (m *Model) Iter() int {
	return len(m.history)
}

// Converged reports whether the centroids reached a fixed point before the
// iteration cap.
func (m *Model) Converged() bool {
	return m.converged
}

// WCSS returns the objective value of the final state.
func (m *Model) WCSS() float64 {
	return WCSS(m.data, m.centroids, m.assignment)
}

// Predict returns the cluster to which the observation would be assigned.
func (m *Model) Predict(p []float64) int {
	best := 0
	n := m.distanceFn(p, m.centroids[0])
	for i := 1; i < len(m.centroids); i++ {
		if d := m.distanceFn(p, m.centroids[i]); d < n {
			n = d
			best = i
		}
	}
	return best
}

func clone(v []float64) []float64 {
	c := make([]float64, len(v))
	copy(c, v)
	return c
}

func cloneAll(d Dataset) Dataset {
	c := make(Dataset, len(d))
	for i := range d {
		c[i] = clone(d[i])
	}
	return c
}

func cloneInts(v []int) []int {
	c := make([]int, len(v))
	copy(c, v)
	return c
}
