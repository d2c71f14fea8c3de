package report

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"winequality/internal/data"
)

// Distribution is one labelled set of class counts, drawn as one bar group series.
type Distribution struct {
	Label  string
	Counts []data.ClassCount
}

// ClassDistributionChart saves a grouped bar chart of class counts. The image
// format follows the file extension.
func ClassDistributionChart(filename string, dists []Distribution) error {
	if len(dists) == 0 {
		return fmt.Errorf("no distributions to plot")
	}

	classes := unionClasses(dists)
	if len(classes) == 0 {
		return fmt.Errorf("distributions have no classes")
	}

	p := plot.New()
	p.Title.Text = "Quality class distribution"
	p.X.Label.Text = "quality"
	p.Y.Label.Text = "rows"
	p.Legend.Top = true

	width := vg.Points(60 / float64(len(dists)))
	for i, d := range dists {
		counts := make(map[int]int, len(d.Counts))
		for _, cc := range d.Counts {
			counts[cc.Class] = cc.Count
		}

		values := make(plotter.Values, len(classes))
		for j, class := range classes {
			values[j] = float64(counts[class])
		}

		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return fmt.Errorf("bar chart %q: %w", d.Label, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = width * vg.Length(float64(i)-float64(len(dists)-1)/2)

		p.Add(bars)
		p.Legend.Add(d.Label, bars)
	}

	names := make([]string, len(classes))
	for i, class := range classes {
		names[i] = strconv.Itoa(class)
	}
	p.NominalX(names...)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

func unionClasses(dists []Distribution) []int {
	seen := make(map[int]bool)
	for _, d := range dists {
		for _, cc := range d.Counts {
			seen[cc.Class] = true
		}
	}

	classes := make([]int, 0, len(seen))
	for class := range seen {
		classes = append(classes, class)
	}
	sort.Ints(classes)
	return classes
}
