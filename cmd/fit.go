package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"kfit/internal/dataset"
	"kfit/internal/kmeans"
)

type fitFlags struct {
	K     int
	Round int
	Seed  int64
	Tol   float64
	Empty string
	Cols  []string
	Out   string
	Chart string
}

func newFitCommand() *cobra.Command {
	f := fitFlags{
		K:     3,
		Round: 100,
		Tol:   1e-6,
		Empty: "zero",
		Out:   "assignments.csv",
	}

	command := cobra.Command{
		Use:   "fit [file]",
		Short: "Partition a dataset into k clusters",
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
			slog.Info("Processing",
				slog.String("path", args[0]),
				slog.Int("rows", len(tab.Rows)),
				slog.Int("dim", len(tab.Columns)),
				slog.Int("k", f.K),
				slog.Int("round", f.Round),
			)

			model, err := kmeans.NewTrainer(f.K,
				kmeans.WithMaxIterations(f.Round),
				kmeans.WithSeed(f.Seed),
				kmeans.WithTolerance(f.Tol),
				kmeans.WithEmptyClusterPolicy(policy)).
				Fit(tab.Rows)
			if err != nil {
				slog.Error("Error fitting model", slog.Any("err", err))
				return
			}

			if err := writeAssignments(f.Out, tab, model.Assignment()); err != nil {
				slog.Error("Error writing assignments", slog.String("out", f.Out), slog.Any("err", err))
				return
			}

			if f.Chart != "" {
				if err := renderScatter(tab, model, f.Chart+".scatter.png"); err != nil {
					slog.Error("Error rendering scatter chart", slog.Any("err", err))
				}
				if err := renderConvergence(model.History(), f.Chart+".wcss.png"); err != nil {
					slog.Error("Error rendering convergence chart", slog.Any("err", err))
				}
			}

			slog.Info("Fit completed",
				slog.String("out", f.Out),
				slog.Int("iter", model.Iter()),
				slog.Bool("converged", model.Converged()),
				slog.Float64("wcss", model.WCSS()),
				slog.Duration("took", time.Since(now)),
			)
		},
	}

	command.Flags().IntVarP(&f.K, "clusters", "k", f.K, "Number of clusters")
	command.Flags().IntVarP(&f.Round, "round", "i", f.Round, "Maximum number of round before stop adjusting (number of kmeans iterations)")
	command.Flags().Int64Var(&f.Seed, "seed", f.Seed, "Seed for centroid initialization")
	command.Flags().Float64VarP(&f.Tol, "tol", "d", f.Tol, "Relative per-coordinate tolerance of convergence")
	command.Flags().StringVar(&f.Empty, "empty", f.Empty, "Empty-cluster policy [zero,keep,reassign]")
	command.Flags().StringSliceVarP(&f.Cols, "cols", "c", f.Cols, "Feature columns to cluster on (default all)")
	command.Flags().StringVarP(&f.Out, "out", "o", f.Out, "Output assignments file")
	command.Flags().StringVar(&f.Chart, "chart", f.Chart, "Prefix for chart output files (empty disables charts)")
	command.Flags().SortFlags = false
	return &command
}

func parsePolicy(name string) (kmeans.EmptyClusterPolicy, error) {
	switch name {
	case "zero":
		return kmeans.ZeroCentroid, nil
	case "keep":
		return kmeans.KeepPrevious, nil
	case "reassign":
		return kmeans.ReassignRandom, nil
	}
	return 0, fmt.Errorf("unknown policy %q", name)
}
