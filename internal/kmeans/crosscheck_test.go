package kmeans

import (
	"testing"

	"github.com/muesli/clusters"
	mkmeans "github.com/muesli/kmeans"
	"github.com/stretchr/testify/require"
)

// TestCrossCheckMuesli fits the same two-group dataset with this engine and
// with muesli/kmeans. With an initialization pinned to one centroid per
// group our run reaches the global optimum, so its WCSS can never exceed the
// reference result no matter where the reference's random start lands.
func TestCrossCheckMuesli(t *testing.T) {
	var data Dataset
	for i := 0; i < 20; i++ {
		f := float64(i)
		data = append(data,
			[]float64{f * 0.05, f * 0.03},
			[]float64{20 + f*0.05, 10 + f*0.03},
		)
	}

	seed := findSeed(t, data, 2, func(c Dataset) bool {
		return (c[0][0] < 5) != (c[1][0] < 5)
	})
	m, err := NewTrainer(2, WithSeed(seed)).Fit(data)
	require.NoError(t, err)
	require.True(t, m.Converged())

	var obs clusters.Observations
	for _, row := range data {
		obs = append(obs, clusters.Coordinates(row))
	}
	km := mkmeans.New()
	partition, err := km.Partition(obs, 2)
	require.NoError(t, err)

	var reference float64
	for _, c := range partition {
		for _, o := range c.Observations {
			reference += EuclideanDistanceSquared(o.Coordinates(), c.Center)
		}
	}

	require.LessOrEqual(t, m.WCSS(), reference+1e-9)
}
