// Package knn classifies observations by aggregating the labels of their
// nearest training neighbors. Like the clustering engine it is synchronous
// and pure: a fitted Classifier is read-only and Predict has no side effects.
package knn

import (
	"errors"
	"fmt"
	"sort"

	"kfit/internal/kmeans"
)

var (
	// ErrInvalidParameter indicates an unusable k.
	ErrInvalidParameter = errors.New("knn: invalid parameter")
	// ErrInvalidInput indicates an unusable training set or query point.
	ErrInvalidInput = errors.New("knn: invalid input")
)

// Neighbor is one entry of a ranked neighbor list.
type Neighbor struct {
	Index    int
	Label    string
	Distance float64
}

// Aggregator reduces a ranked neighbor list (nearest first) to a label.
type Aggregator interface {
	Aggregate(neighbors []Neighbor) string
}

// MajorityVote picks the most frequent label among the neighbors. Ties go to
// the tied label whose best-ranked neighbor comes first, which keeps the
// result deterministic.
type MajorityVote struct{}

func (MajorityVote) Aggregate(neighbors []Neighbor) string {
	counts := make(map[string]int, len(neighbors))
	max := 0
	for _, n := range neighbors {
		counts[n.Label]++
		if counts[n.Label] > max {
			max = counts[n.Label]
		}
	}
	for _, n := range neighbors {
		if counts[n.Label] == max {
			return n.Label
		}
	}
	return ""
}

// DistanceWeighted weighs each neighbor's vote by 1/distance. An exact match
// (distance zero) wins outright.
type DistanceWeighted struct{}

func (DistanceWeighted) Aggregate(neighbors []Neighbor) string {
	weights := make(map[string]float64, len(neighbors))
	for _, n := range neighbors {
		if n.Distance == 0 {
			return n.Label
		}
		weights[n.Label] += 1 / n.Distance
	}
	max := 0.0
	for _, w := range weights {
		if w > max {
			max = w
		}
	}
	for _, n := range neighbors {
		if weights[n.Label] == max {
			return n.Label
		}
	}
	return ""
}

// Classifier is a fitted k-nearest-neighbors model.
type Classifier struct {
	k          int
	distanceFn kmeans.DistanceFunc
	aggregator Aggregator
	data       kmeans.Dataset
	labels     []string
}

type Option func(*Classifier)

func WithDistanceFunc(fn kmeans.DistanceFunc) Option {
	return func(c *Classifier) {
		c.distanceFn = fn
	}
}

func WithAggregator(a Aggregator) Option {
	return func(c *Classifier) {
		c.aggregator = a
	}
}

// NewClassifier fits a classifier on the labeled dataset. The data is
// referenced, not copied; callers must not mutate it afterwards.
func NewClassifier(data kmeans.Dataset, labels []string, k int, options ...Option) (*Classifier, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty training set", ErrInvalidInput)
	}
	if len(labels) != len(data) {
		return nil, fmt.Errorf("%w: %d labels for %d observations", ErrInvalidInput, len(labels), len(data))
	}
	dim := len(data[0])
	for i := range data {
		if len(data[i]) != dim {
			return nil, fmt.Errorf("%w: row %d has %d coordinates, want %d", ErrInvalidInput, i, len(data[i]), dim)
		}
	}
	if k < 1 || k > len(data) {
		return nil, fmt.Errorf("%w: k=%d with %d observations", ErrInvalidParameter, k, len(data))
	}

	c := &Classifier{
		k:          k,
		distanceFn: kmeans.EuclideanDistance,
		aggregator: MajorityVote{},
		data:       data,
		labels:     labels,
	}
	for i := range options {
		options[i](c)
	}
	return c, nil
}

// Neighbors returns the k nearest training observations to p, nearest first.
// Equal distances are ordered by training index.
func (c *Classifier) Neighbors(p []float64) ([]Neighbor, error) {
	if len(p) != len(c.data[0]) {
		return nil, fmt.Errorf("%w: query has %d coordinates, want %d", ErrInvalidInput, len(p), len(c.data[0]))
	}
	ranked := make([]Neighbor, len(c.data))
	for i := range c.data {
		ranked[i] = Neighbor{
			Index:    i,
			Label:    c.labels[i],
			Distance: c.distanceFn(p, c.data[i]),
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Distance != ranked[j].Distance {
			return ranked[i].Distance < ranked[j].Distance
		}
		return ranked[i].Index < ranked[j].Index
	})
	return ranked[:c.k], nil
}

// Predict returns the label the aggregator derives from p's k nearest
// neighbors.
func (c *Classifier) Predict(p []float64) (string, error) {
	neighbors, err := c.Neighbors(p)
	if err != nil {
		return "", err
	}
	return c.aggregator.Aggregate(neighbors), nil
}
