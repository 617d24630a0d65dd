package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/kodjo/solarscope/internal/api"
	"github.com/kodjo/solarscope/internal/charts"
	"github.com/kodjo/solarscope/internal/cleaning"
	"github.com/kodjo/solarscope/internal/dataset"
	"github.com/kodjo/solarscope/internal/outliers"
	"github.com/kodjo/solarscope/internal/pipeline"
	"github.com/kodjo/solarscope/internal/stats"
)

var defaultSites = []dataset.Site{
	{Country: "Benin", File: "benin-malanville.csv"},
	{Country: "Sierra Leone", File: "sierraleone-bumbuna.csv"},
	{Country: "Togo", File: "togo-dapaong.csv"},
}

type cli struct {
	DataDir          string  `help:"Directory holding the site CSVs." default:"data" env:"SOLARSCOPE_DATA_DIR"`
	DaytimeThreshold float64 `help:"GHI above which a row counts as daytime (W/m²)." default:"5"`
	ZThreshold       float64 `help:"Absolute z-score above which a row is flagged." default:"3"`

	Serve  serveCmd  `cmd:"" default:"withargs" help:"Run the dashboard server."`
	Export exportCmd `cmd:"" help:"Run the pipeline once and write cleaned CSVs."`
	Anova  anovaCmd  `cmd:"" help:"Run the pipeline once and print the one-way ANOVA."`
}

type serveCmd struct {
	Port          string `help:"HTTP server port." default:"8080" env:"SOLARSCOPE_PORT"`
	ScatterSample int    `help:"Row cap for scatter and bubble charts." default:"2000"`
	SeriesSample  int    `help:"Row cap per time-series trace." default:"10000"`
}

type exportCmd struct {
	Countries []string `arg:"" optional:"" help:"Countries to export (all when omitted)."`
}

type anovaCmd struct {
	Metric string `help:"Metric to test across countries." default:"GHI"`
}

func (c *cli) pipeline() *pipeline.Pipeline {
	sites := make([]dataset.Site, len(defaultSites))
	for i, s := range defaultSites {
		sites[i] = dataset.Site{Country: s.Country, File: filepath.Join(c.DataDir, s.File)}
	}

	ccfg := cleaning.DefaultConfig()
	ccfg.DaytimeGHIThreshold = c.DaytimeThreshold
	ocfg := outliers.DefaultConfig()
	ocfg.ZThreshold = c.ZThreshold

	return pipeline.New(pipeline.Config{
		Sites:    sites,
		DataDir:  c.DataDir,
		Cleaning: ccfg,
		Outliers: ocfg,
	}, pipeline.NewMemoryCache())
}

func (c *serveCmd) Run(root *cli) error {
	pipe := root.pipeline()
	limits := charts.Limits{
		ScatterSample: c.ScatterSample,
		SeriesSample:  c.SeriesSample,
	}
	server := api.NewServer(pipe, limits, c.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("starting server on :%s", c.Port)
	return server.Run(ctx)
}

func (c *exportCmd) Run(root *cli) error {
	pipe := root.pipeline()
	countries := c.Countries
	if len(countries) == 0 {
		for _, s := range pipe.Sites() {
			countries = append(countries, s.Country)
		}
	}
	for _, country := range countries {
		path, err := pipe.Export(country)
		if err != nil {
			return fmt.Errorf("export %s: %w", country, err)
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

func (c *anovaCmd) Run(root *cli) error {
	pipe := root.pipeline()
	combined, err := pipe.Combined(nil)
	if err != nil {
		return err
	}
	res, err := stats.OneWayANOVA(combined, c.Metric)
	if err != nil {
		return err
	}
	verdict := "not significant"
	if res.Significant {
		verdict = "significant"
	}
	fmt.Printf("%s across %d countries: F = %.4f, p = %.4g (%s at α = %.2f)\n",
		res.Metric, res.Groups, res.FStatistic, res.PValue, verdict, stats.SignificanceLevel)
	return nil
}

func main() {
	var root cli
	ktx := kong.Parse(&root,
		kong.Name("solarscope"),
		kong.Description("Cross-country solar irradiance analysis dashboard."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
		kong.UsageOnError(),
	)
	if err := ktx.Run(&root); err != nil {
		log.Fatalf("%s: %v", ktx.Command(), err)
	}
}
