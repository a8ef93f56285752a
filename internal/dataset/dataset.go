// Package dataset loads numeric tables from flat CSV files, optionally
// compressed. File parsing lives here so the clustering and classification
// code only ever sees in-memory rows of fixed dimensionality.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"kfit/internal/kmeans"
)

var (
	// ErrEmptyTable indicates a file with a header but no data rows.
	ErrEmptyTable = errors.New("dataset: no data rows")
	// ErrMissingColumn indicates a requested column is absent from the header.
	ErrMissingColumn = errors.New("dataset: missing column")
)

// Table is a parsed numeric table. Rows all share the dimensionality of
// Columns; Labels is populated only when a label column was selected and then
// has one entry per row.
type Table struct {
	Columns []string
	Rows    kmeans.Dataset
	Labels  []string
}

type loader struct {
	columns []string
	label   string
}

type Option func(*loader)

// WithColumns restricts loading to the named feature columns, in the given
// order. Without it every column except the label column is loaded.
func WithColumns(names ...string) Option {
	return func(l *loader) {
		l.columns = names
	}
}

// WithLabelColumn marks one column as a string label rather than a feature.
func WithLabelColumn(name string) Option {
	return func(l *loader) {
		l.label = name
	}
}

// Load reads a CSV file with a header row. Files ending in .gz or .zst are
// decompressed transparently.
func Load(path string, options ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch filepath.Ext(path) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("dataset: %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("dataset: %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	l := loader{}
	for i := range options {
		options[i](&l)
	}
	return l.read(csv.NewReader(r), path)
}

func (l loader) read(cr *csv.Reader, path string) (*Table, error) {
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	labelIdx := -1
	if l.label != "" {
		if labelIdx = indexOf(header, l.label); labelIdx < 0 {
			return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, l.label, path)
		}
	}

	var cols []int
	var names []string
	if len(l.columns) > 0 {
		for _, name := range l.columns {
			idx := indexOf(header, name)
			if idx < 0 {
				return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, name, path)
			}
			cols = append(cols, idx)
			names = append(names, name)
		}
	} else {
		for i, name := range header {
			if i == labelIdx {
				continue
			}
			cols = append(cols, i)
			names = append(names, name)
		}
	}

	t := &Table{Columns: names}
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: %s: %w", path, err)
		}

		obs := make([]float64, len(cols))
		for i, idx := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: %s row %d column %q: %w", path, row, header[idx], err)
			}
			obs[i] = v
		}
		t.Rows = append(t.Rows, obs)
		if labelIdx >= 0 {
			t.Labels = append(t.Labels, strings.TrimSpace(record[labelIdx]))
		}
	}

	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, path)
	}
	return t, nil
}

func indexOf(header []string, name string) int {
	for i := range header {
		if header[i] == name {
			return i
		}
	}
	return -1
}
