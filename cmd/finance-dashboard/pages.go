package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/subcommands"
	"github.com/iwvelando/finance-dashboard/internal/dashboard"
	"go.uber.org/zap"
)

var (
	pageTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87CEEB"))
	pagePathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	panelStyle     = lipgloss.NewStyle().PaddingLeft(2)
	modeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))
	pagesBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type pagesCmd struct{}

func (*pagesCmd) Name() string     { return "pages" }
func (*pagesCmd) Synopsis() string { return "list the dashboard pages and their panels" }
func (*pagesCmd) Usage() string {
	return `finance-dashboard pages

  Lists every page in navigation order with its panels and view modes.
`
}

func (*pagesCmd) SetFlags(*flag.FlagSet) {}

func (*pagesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := loadApp()
	if err != nil {
		return fatal("main.pages", err)
	}
	defer a.close()

	catalog, err := dashboard.Default(a.logger, a.conf.Dashboard.Currency)
	if err != nil {
		a.logger.Error("failed to load catalog",
			zap.String("op", "main.pages"),
			zap.Error(err),
		)
		return subcommands.ExitFailure
	}
	fmt.Println(pagesList(catalog))
	return subcommands.ExitSuccess
}

func pagesList(catalog *dashboard.Catalog) string {
	var blocks []string
	for _, p := range catalog.Pages() {
		lines := []string{
			pageTitleStyle.Render(p.Name) + " " + pagePathStyle.Render(p.Path),
		}
		for _, panel := range p.Panels {
			modes := make([]string, len(panel.Modes))
			for i, m := range panel.Modes {
				modes[i] = string(m)
			}
			line := fmt.Sprintf("%s: %s %s", panel.ID, panel.Title, modeStyle.Render("["+strings.Join(modes, ", ")+"]"))
			if panel.ScenarioToggle {
				line += " " + modeStyle.Render("[base, scenarios]")
			}
			lines = append(lines, panelStyle.Render(line))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return pagesBoxStyle.Render(strings.Join(blocks, "\n\n"))
}
