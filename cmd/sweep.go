package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"kfit/internal/dataset"
	"kfit/internal/kmeans"
)

type sweepFlags struct {
	Kmin  int
	Kmax  int
	Round int
	Seed  int64
	Tol   float64
	Empty string
	Cols  []string
	Chart string
}

func newSweepCommand() *cobra.Command {
	f := sweepFlags{
		Kmin:  2,
		Kmax:  10,
		Round: 100,
		Tol:   1e-6,
		Empty: "zero",
	}

	command := cobra.Command{
		Use:   "sweep [file]",
		Short: "Fit a range of cluster counts and pick the best by silhouette score",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			now := time.Now()
			policy, err := parsePolicy(f.Empty)
			if err != nil {
				slog.Error("Invalid empty-cluster policy", slog.Any("err", err))
				return
			}

			tab, err := dataset.Load(args[0], dataset.WithColumns(f.Cols...))
			if err != nil {
				slog.Error("Error loading dataset", slog.String("path", args[0]), slog.Any("err", err))
				return
			}
			slog.Info("Sweeping",
				slog.String("path", args[0]),
				slog.Int("rows", len(tab.Rows)),
				slog.Int("kmin", f.Kmin),
				slog.Int("kmax", f.Kmax),
			)

			best, results, err := kmeans.Sweep(tab.Rows, f.Kmin, f.Kmax,
				kmeans.WithMaxIterations(f.Round),
				kmeans.WithSeed(f.Seed),
				kmeans.WithTolerance(f.Tol),
				kmeans.WithEmptyClusterPolicy(policy))
			if err != nil {
				slog.Error("Error sweeping", slog.Any("err", err))
				return
			}

			for _, r := range results {
				slog.Info("Sweep point",
					slog.Int("k", r.K),
					slog.Float64("wcss", r.WCSS),
					slog.Float64("silhouette", r.Silhouette),
					slog.Int("iter", r.Iterations),
					slog.Bool("converged", r.Converged),
				)
			}

			if f.Chart != "" {
				if err := renderElbow(results, f.Chart+".elbow.png"); err != nil {
					slog.Error("Error rendering elbow chart", slog.Any("err", err))
				}
			}

			slog.Info("Sweep completed",
				slog.Int("bestK", best),
				slog.Duration("took", time.Since(now)),
			)
		},
	}

	command.Flags().IntVar(&f.Kmin, "kmin", f.Kmin, "Smallest cluster count to try")
	command.Flags().IntVar(&f.Kmax, "kmax", f.Kmax, "Largest cluster count to try")
	command.Flags().IntVarP(&f.Round, "round", "i", f.Round, "Maximum number of round before stop adjusting (number of kmeans iterations)")
	command.Flags().Int64Var(&f.Seed, "seed", f.Seed, "Seed for centroid initialization")
	command.Flags().Float64VarP(&f.Tol, "tol", "d", f.Tol, "Relative per-coordinate tolerance of convergence")
	command.Flags().StringVar(&f.Empty, "empty", f.Empty, "Empty-cluster policy [zero,keep,reassign]")
	command.Flags().StringSliceVarP(&f.Cols, "cols", "c", f.Cols, "Feature columns to cluster on (default all)")
	command.Flags().StringVar(&f.Chart, "chart", f.Chart, "Prefix for chart output files (empty disables charts)")
	command.Flags().SortFlags = false
	return &command
}
