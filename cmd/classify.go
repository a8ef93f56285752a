package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"kfit/internal/dataset"
	"kfit/internal/knn"
)

type classifyFlags struct {
	Train string
	Label string
	K     int
	Vote  string
	Cols  []string
	Out   string
}

func newClassifyCommand() *cobra.Command {
	f := classifyFlags{
		K:    5,
		Vote: "majority",
		Out:  "predictions.csv",
	}

	command := cobra.Command{
		Use:   "classify [file]",
		Short: "Label a dataset with k-nearest-neighbors against a labeled training set",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			now := time.Now()
			agg, err := parseAggregator(f.Vote)
			if err != nil {
				slog.Error("Invalid vote strategy", slog.Any("err", err))
				return
			}

			train, err := dataset.Load(f.Train,
				dataset.WithLabelColumn(f.Label),
				dataset.WithColumns(f.Cols...))
			if err != nil {
				slog.Error("Error loading training set", slog.String("path", f.Train), slog.Any("err", err))
				return
			}

			cls, err := knn.NewClassifier(train.Rows, train.Labels, f.K, knn.WithAggregator(agg))
			if err != nil {
				slog.Error("Error building classifier", slog.Any("err", err))
				return
			}

			// Load the query file with the training feature columns so both
			// sides share dimensionality even if it carries extra columns.
			input, err := dataset.Load(args[0], dataset.WithColumns(train.Columns...))
			if err != nil {
				slog.Error("Error loading dataset", slog.String("path", args[0]), slog.Any("err", err))
				return
			}
			slog.Info("Classifying",
				slog.String("path", args[0]),
				slog.Int("rows", len(input.Rows)),
				slog.Int("k", f.K),
				slog.String("vote", f.Vote),
			)

			labels := make([]string, len(input.Rows))
			for i, row := range input.Rows {
				labels[i], err = cls.Predict(row)
				if err != nil {
					slog.Error("Error predicting", slog.Int("row", i), slog.Any("err", err))
					return
				}
			}

			if err := writePredictions(f.Out, input, f.Label, labels); err != nil {
				slog.Error("Error writing predictions", slog.String("out", f.Out), slog.Any("err", err))
				return
			}

			slog.Info("Classify completed",
				slog.String("out", f.Out),
				slog.Duration("took", time.Since(now)),
			)
		},
	}

	command.Flags().StringVarP(&f.Train, "train", "t", f.Train, "Labeled training CSV file")
	command.Flags().StringVarP(&f.Label, "label", "l", f.Label, "Name of the label column in the training file")
	command.Flags().IntVarP(&f.K, "neighbors", "k", f.K, "Number of neighbors to vote")
	command.Flags().StringVar(&f.Vote, "vote", f.Vote, "Vote strategy [majority,weighted]")
	command.Flags().StringSliceVarP(&f.Cols, "cols", "c", f.Cols, "Feature columns (default all but the label)")
	command.Flags().StringVarP(&f.Out, "out", "o", f.Out, "Output predictions file")
	command.Flags().SortFlags = false
	_ = command.MarkFlagRequired("train")
	_ = command.MarkFlagRequired("label")
	return &command
}

func parseAggregator(name string) (knn.Aggregator, error) {
	switch name {
	case "majority":
		return knn.MajorityVote{}, nil
	case "weighted":
		return knn.DistanceWeighted{}, nil
	}
	return nil, fmt.Errorf("unknown vote strategy %q", name)
}
