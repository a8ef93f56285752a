package cmd

import (
	"encoding/csv"
	"log/slog"
	"os"
	"strconv"

	"kfit/internal/dataset"
)

func writeAssignments(path string, tab *dataset.Table, assignment []int) error {
	rows := make([][]string, 0, len(tab.Rows)+1)
	rows = append(rows, append(append([]string{}, tab.Columns...), "cluster"))
	for i, obs := range tab.Rows {
		rows = append(rows, append(formatRow(obs), strconv.Itoa(assignment[i])))
	}
	return writeCSV(path, rows)
}

func writePredictions(path string, tab *dataset.Table, labelCol string, labels []string) error {
	rows := make([][]string, 0, len(tab.Rows)+1)
	rows = append(rows, append(append([]string{}, tab.Columns...), labelCol))
	for i, obs := range tab.Rows {
		rows = append(rows, append(formatRow(obs), labels[i]))
	}
	return writeCSV(path, rows)
}

func formatRow(obs []float64) []string {
	out := make([]string, len(obs))
	for i, v := range obs {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}

func writeCSV(path string, rows [][]string) error {
	o, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err := o.Close()
		if err != nil {
			slog.Error("Error closing output file",
				slog.String("out", path),
				slog.Any("err", err))
		}
	}()

	w := csv.NewWriter(o)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
