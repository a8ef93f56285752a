package kmeans

import "errors"

var (
	// ErrInvalidParameter indicates an unusable clustering parameter,
	// such as k outside [1, len(dataset)].
	ErrInvalidParameter = errors.New("kmeans: invalid parameter")
	// ErrInvalidInput indicates an unusable dataset, such as an empty one
	// or one with rows of differing dimensionality.
	ErrInvalidInput = errors.New("kmeans: invalid input")
)
