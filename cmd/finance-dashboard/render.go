package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/iwvelando/finance-dashboard/internal/chart"
	"github.com/iwvelando/finance-dashboard/internal/dashboard"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/output"
	"github.com/iwvelando/finance-dashboard/pkg/validation"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage")

type renderCmd struct {
	page     string
	panel    string
	mode     string
	scenario string
	format   string
	style    string
	width    int
	height   int
}

func (*renderCmd) Name() string     { return "render" }
func (*renderCmd) Synopsis() string { return "render a dashboard panel" }
func (*renderCmd) Usage() string {
	return `finance-dashboard render [-page <slug>] [-panel <id>] [-mode chart|table] [-scenario base|scenarios] [-format pretty|csv|json|svg]

  Renders one panel of a page. pretty and csv print the table, json prints
  the page view model and svg prints the chart.
`
}

func (c *renderCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.page, "page", "overview", "page slug")
	f.StringVar(&c.panel, "panel", "", "panel id (defaults to the first panel of the page)")
	f.StringVar(&c.mode, "mode", "", "view mode for json output: chart, table")
	f.StringVar(&c.scenario, "scenario", "", "scenario mode: base, scenarios")
	f.StringVar(&c.format, "format", "", "output format override: pretty, csv, json, svg")
	f.StringVar(&c.style, "style", output.DefaultStyle, "glamour style for pretty output")
	f.IntVar(&c.width, "width", constants.DefaultChartWidth, "SVG width in pixels")
	f.IntVar(&c.height, "height", constants.DefaultChartHeight, "SVG height in pixels")
}

func (c *renderCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		return fatal("main.render", err)
	}
	defer a.close()

	outputFormat := a.conf.Output.Format
	if c.format != "" {
		outputFormat = c.format
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	catalog, err := dashboard.Default(a.logger, a.conf.Dashboard.Currency)
	if err != nil {
		a.logger.Error("failed to load catalog",
			zap.String("op", "main.render"),
			zap.Error(err),
		)
		return subcommands.ExitFailure
	}

	if err := c.render(catalog, outputFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *renderCmd) render(catalog *dashboard.Catalog, outputFormat string) error {
	ctl, err := c.controller(catalog, outputFormat)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if outputFormat == constants.OutputFormatJSON {
		pv, err := ctl.PageView()
		if err != nil {
			return err
		}
		return output.JSONFormat(os.Stdout, pv)
	}

	view, err := ctl.View()
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	switch outputFormat {
	case constants.OutputFormatSVG:
		if c.width <= 0 || c.height <= 0 {
			return fmt.Errorf("%w: chart size must be positive, got %dx%d", errUsage, c.width, c.height)
		}
		return chart.WriteSVG(os.Stdout, *view.Chart, c.width, c.height)
	case constants.OutputFormatCSV:
		return output.CsvFormat(os.Stdout, *view.Table)
	default:
		return output.PrettyFormat(os.Stdout, *view.Table, c.style)
	}
}

// controller positions a controller on the requested panel. svg forces the
// chart view and pretty/csv force the table view.
func (c *renderCmd) controller(catalog *dashboard.Catalog, outputFormat string) (*dashboard.Controller, error) {
	ctl, err := catalog.NewController(c.page)
	if err != nil {
		return nil, err
	}
	if c.panel != "" {
		if err := ctl.Select(c.panel); err != nil {
			return nil, err
		}
	}

	mode := c.mode
	switch outputFormat {
	case constants.OutputFormatSVG:
		mode = string(dashboard.ViewChart)
	case constants.OutputFormatPretty, constants.OutputFormatCSV:
		mode = string(dashboard.ViewTable)
	}
	if mode != "" {
		m, err := dashboard.ParseViewMode(mode)
		if err != nil {
			return nil, err
		}
		if err := ctl.SetViewMode(m); err != nil {
			return nil, err
		}
	}

	if c.scenario != "" {
		m, err := dashboard.ParseScenarioMode(c.scenario)
		if err != nil {
			return nil, err
		}
		if err := ctl.SetScenarioMode(m); err != nil {
			return nil, err
		}
	}
	return ctl, nil
}
