package sankey

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// chartID fixes the ECharts instance variable name (goecharts_sankey) so the
// highlight script can find it.
const chartID = "sankey"

// DiagramOptions tunes the rendered chart.
type DiagramOptions struct {
	Title string
	// HighlightSource/HighlightTarget name one link to recolor in red.
	// Both must be set for the highlight to apply.
	HighlightSource string
	HighlightTarget string
}

// NewDiagram builds the Sankey chart for a flow table. Nodes come from the
// table's label set; every flow row becomes one link.
func NewDiagram(t *Table, o DiagramOptions) *charts.Sankey {
	if o.Title == "" {
		o.Title = "Sankey Diagram"
	}

	labels := t.Nodes()
	nodes := make([]opts.SankeyNode, 0, len(labels))
	for _, name := range labels {
		nodes = append(nodes, opts.SankeyNode{Name: name})
	}
	links := make([]opts.SankeyLink, 0, len(t.Flows))
	for _, f := range t.Flows {
		links = append(links, opts.SankeyLink{
			Source: f.Source,
			Target: f.Target,
			Value:  float32(f.Value),
		})
	}

	chart := charts.NewSankey()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID:         chartID,
			Width:           "1400px",
			Height:          "900px",
			BackgroundColor: "#ffffff",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    o.Title,
			Subtitle: "Exporter to Importer",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
	)
	chart.AddSeries("flows", nodes, links,
		charts.WithLineStyleOpts(opts.LineStyle{
			Color:     "source",
			Curveness: 0.5,
			Opacity:   0.4,
		}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}),
	)

	if o.HighlightSource != "" && o.HighlightTarget != "" {
		chart.AddJSFuncs(highlightJS(o.HighlightSource, o.HighlightTarget))
	}
	return chart
}

// RenderHTML writes the standalone chart page.
func RenderHTML(chart *charts.Sankey, w io.Writer) error {
	return chart.Render(w)
}

// highlightJS recolors matching links after the chart initializes. Link
// styling is per-link in ECharts but not exposed through the series options,
// hence the post-init pass.
func highlightJS(source, target string) string {
	return fmt.Sprintf(`(function () {
    var chart = goecharts_%s;
    var option = chart.getOption();
    var links = option.series[0].links;
    for (var i = 0; i < links.length; i++) {
        if (links[i].source === %q && links[i].target === %q) {
            links[i].lineStyle = { color: "rgba(255, 0, 0, 0.8)", opacity: 0.8 };
        }
    }
    chart.setOption(option);
})();`, chartID, source, target)
}
