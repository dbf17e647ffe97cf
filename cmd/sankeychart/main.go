package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/go-echarts/go-echarts/v2/charts"

	"eqrtools/internal/sankey"
)

var cli struct {
	Input           string        `arg:"" help:"Flow table (.csv or .xlsx) with source, target, and value columns." type:"existingfile"`
	Out             string        `help:"Output path (.png, or .html to skip rasterization)." short:"o"`
	SourceCol       string        `help:"Source column name." default:"Source"`
	TargetCol       string        `help:"Target column name." default:"Target"`
	ValueCol        string        `help:"Value column name." default:"Value"`
	HighlightSource string        `help:"Source label of the link to highlight in red."`
	HighlightTarget string        `help:"Target label of the link to highlight in red."`
	Title           string        `help:"Chart title." default:"Sankey Diagram"`
	KeepHTML        bool          `help:"Keep the intermediate HTML page next to the image."`
	Timeout         time.Duration `help:"Render timeout." default:"60s"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("sankeychart"),
		kong.Description("Renders a Sankey diagram image from a (source, target, value) flow table."),
	)

	table, err := sankey.ReadFile(cli.Input, sankey.Columns{
		Source: cli.SourceCol,
		Target: cli.TargetCol,
		Value:  cli.ValueCol,
	})
	if err != nil {
		log.Fatal("could not read flow table", "file", cli.Input, "err", err)
	}

	out := cli.Out
	if out == "" {
		out = strings.TrimSuffix(cli.Input, filepath.Ext(cli.Input)) + "-sankey.png"
	}

	chart := sankey.NewDiagram(table, sankey.DiagramOptions{
		Title:           cli.Title,
		HighlightSource: cli.HighlightSource,
		HighlightTarget: cli.HighlightTarget,
	})

	if strings.EqualFold(filepath.Ext(out), ".html") {
		writeHTML(chart, out)
		log.Info("wrote diagram", "flows", len(table.Flows), "out", out)
		return
	}

	htmlPath := strings.TrimSuffix(out, filepath.Ext(out)) + ".html"
	writeHTML(chart, htmlPath)
	if !cli.KeepHTML {
		defer os.Remove(htmlPath)
	}

	if err := sankey.RenderPNG(context.Background(), htmlPath, out, cli.Timeout); err != nil {
		log.Fatal("could not capture image, ensure Chrome is installed", "err", err)
	}
	log.Info("wrote diagram", "flows", len(table.Flows), "image", out)
}

func writeHTML(chart *charts.Sankey, path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatal("could not create output file", "file", path, "err", err)
	}
	if err := sankey.RenderHTML(chart, f); err != nil {
		f.Close()
		log.Fatal("could not render chart", "err", err)
	}
	if err := f.Close(); err != nil {
		log.Fatal("could not write output file", "file", path, "err", err)
	}
}
