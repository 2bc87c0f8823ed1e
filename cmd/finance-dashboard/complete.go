package main

import (
	"github.com/iwvelando/finance-dashboard/internal/dashboard"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/validation"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the command line for shell completion. Install it with
// COMP_INSTALL=1 finance-dashboard.
func completion() *complete.Command {
	global := map[string]complete.Predictor{
		"config":    predict.Files("*.yaml"),
		"log-level": predict.Set{"debug", "info", "warn", "error"},
	}

	return &complete.Command{
		Flags: global,
		Sub: map[string]*complete.Command{
			"serve": {
				Flags: map[string]complete.Predictor{
					"address": predict.Something,
				},
			},
			"render": {
				Flags: map[string]complete.Predictor{
					"page":     predict.Set(pageSlugs()),
					"panel":    predict.Something,
					"mode":     predict.Set{string(dashboard.ViewChart), string(dashboard.ViewTable)},
					"scenario": predict.Set{string(dashboard.ScenarioBase), string(dashboard.ScenarioAll)},
					"format":   predict.Set(validation.OutputFormats),
					"style":    predict.Set{"auto", "dark", "light", "notty", "ascii"},
					"width":    predict.Something,
					"height":   predict.Something,
				},
			},
			"chat": {
				Flags: map[string]complete.Predictor{
					"style": predict.Set{"auto", "dark", "light", "notty", "ascii"},
				},
				Args: predict.Something,
			},
			"pages": {},
			"help":  {},
		},
	}
}

// pageSlugs lists the catalog pages; completion works without configuration.
func pageSlugs() []string {
	catalog, err := dashboard.Default(nil, constants.DefaultCurrency)
	if err != nil {
		return nil
	}
	slugs := make([]string, 0, len(catalog.Pages()))
	for _, p := range catalog.Pages() {
		slugs = append(slugs, p.Slug)
	}
	return slugs
}
