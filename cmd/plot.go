package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/wcharczuk/go-chart/v2"

	"kfit/internal/dataset"
	"kfit/internal/kmeans"
)

// renderScatter plots the first two feature columns colored by cluster, with
// the centroids overlaid. One-dimensional data is plotted against y=0.
func renderScatter(tab *dataset.Table, model *kmeans.Model, path string) error {
	xs := make([][]float64, len(model.Centroids()))
	ys := make([][]float64, len(model.Centroids()))
	for i, obs := range tab.Rows {
		c := model.Assignment()[i]
		xs[c] = append(xs[c], obs[0])
		ys[c] = append(ys[c], dim2(obs))
	}

	series := make([]chart.Series, 0, len(xs)+1)
	for i := range xs {
		if len(xs[i]) == 0 {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("cluster %d", i),
			XValues: xs[i],
			YValues: ys[i],
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    4,
				DotColor:    chart.GetDefaultColor(i),
			},
		})
	}

	cx := make([]float64, len(model.Centroids()))
	cy := make([]float64, len(model.Centroids()))
	for i, c := range model.Centroids() {
		cx[i] = c[0]
		cy[i] = dim2(c)
	}
	series = append(series, chart.ContinuousSeries{
		Name:    "centroids",
		XValues: cx,
		YValues: cy,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    9,
			DotColor:    chart.ColorBlack,
		},
	})

	graph := chart.Chart{
		Title:  "Cluster assignment",
		XAxis:  chart.XAxis{Name: tab.Columns[0]},
		YAxis:  chart.YAxis{Name: yName(tab)},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return render(graph, path)
}

func renderConvergence(history []kmeans.IterationRecord, path string) error {
	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	for i, rec := range history {
		xs[i] = float64(i + 1)
		ys[i] = rec.WCSS
	}

	graph := chart.Chart{
		Title: "WCSS per iteration",
		XAxis: chart.XAxis{Name: "iteration"},
		YAxis: chart.YAxis{Name: "WCSS"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "WCSS",
				XValues: xs,
				YValues: ys,
			},
		},
	}
	return render(graph, path)
}

func renderElbow(results []kmeans.SweepResult, path string) error {
	xs := make([]float64, len(results))
	wcss := make([]float64, len(results))
	sil := make([]float64, len(results))
	for i, r := range results {
		xs[i] = float64(r.K)
		wcss[i] = r.WCSS
		sil[i] = r.Silhouette
	}

	graph := chart.Chart{
		Title:          "Sweep over k",
		XAxis:          chart.XAxis{Name: "k"},
		YAxis:          chart.YAxis{Name: "WCSS"},
		YAxisSecondary: chart.YAxis{Name: "silhouette"},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "WCSS",
				XValues: xs,
				YValues: wcss,
			},
			chart.ContinuousSeries{
				Name:    "silhouette",
				YAxis:   chart.YAxisSecondary,
				XValues: xs,
				YValues: sil,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return render(graph, path)
}

func dim2(v []float64) float64 {
	if len(v) > 1 {
		return v[1]
	}
	return 0
}

func yName(tab *dataset.Table) string {
	if len(tab.Columns) > 1 {
		return tab.Columns[1]
	}
	return ""
}

func render(graph chart.Chart, path string) error {
	o, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err := o.Close()
		if err != nil {
			slog.Error("Error closing chart file",
				slog.String("out", path),
				slog.Any("err", err))
		}
	}()
	return graph.Render(chart.PNG, o)
}
