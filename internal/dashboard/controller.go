package dashboard

import (
	"fmt"
)

// Controller holds the presentation state of one page: the selected panel,
// the view mode and the scenario mode. Switching modes never touches the
// data; every View of a panel reads the same series instance.
//
// A Controller is not safe for concurrent use.
type Controller struct {
	page     *Page
	panel    *Panel
	view     ViewMode
	scenario ScenarioMode
}

// NewController returns a controller for the page with the given slug,
// positioned on its first panel in that panel's first mode.
func (c *Catalog) NewController(slug string) (*Controller, error) {
	page, err := c.Page(slug)
	if err != nil {
		return nil, err
	}
	ctl := &Controller{page: page, scenario: ScenarioAll}
	if len(page.Panels) > 0 {
		ctl.use(page.Panels[0])
	}
	return ctl, nil
}

func (ctl *Controller) use(p *Panel) {
	ctl.panel = p
	if !p.Offers(ctl.view) {
		ctl.view = p.Modes[0]
	}
}

// Page returns the controlled page.
func (ctl *Controller) Page() *Page { return ctl.page }

// Panel returns the selected panel, or nil on pages without panels.
func (ctl *Controller) Panel() *Panel { return ctl.panel }

// ViewMode returns the current view mode.
func (ctl *Controller) ViewMode() ViewMode { return ctl.view }

// ScenarioMode returns the current scenario mode.
func (ctl *Controller) ScenarioMode() ScenarioMode { return ctl.scenario }

// Select switches to another panel. The view mode is kept when the new panel
// offers it.
func (ctl *Controller) Select(panelID string) error {
	p, err := ctl.page.Panel(panelID)
	if err != nil {
		return err
	}
	ctl.use(p)
	return nil
}

// SetViewMode switches between chart and table.
func (ctl *Controller) SetViewMode(m ViewMode) error {
	if _, err := ParseViewMode(string(m)); err != nil {
		return err
	}
	if ctl.panel == nil || !ctl.panel.Offers(m) {
		return fmt.Errorf("%w: %s view on page %q", ErrModeNotOffered, m, ctl.page.Slug)
	}
	ctl.view = m
	return nil
}

// SetScenarioMode switches between the base view and all scenarios.
func (ctl *Controller) SetScenarioMode(m ScenarioMode) error {
	if _, err := ParseScenarioMode(string(m)); err != nil {
		return err
	}
	if ctl.panel == nil || !ctl.panel.ScenarioToggle {
		return fmt.Errorf("%w: scenario toggle on page %q", ErrModeNotOffered, ctl.page.Slug)
	}
	ctl.scenario = m
	return nil
}

// View renders the selected panel in the current modes. Pages without
// panels return ErrUnknownPanel.
func (ctl *Controller) View() (View, error) {
	if ctl.panel == nil {
		return View{}, fmt.Errorf("%w: page %q has no panels", ErrUnknownPanel, ctl.page.Slug)
	}
	v, err := ctl.panel.Render(ctl.view, ctl.scenario)
	if err != nil {
		return View{}, err
	}
	v.Page = ctl.page.Slug
	return v, nil
}

// PageView is the rendered page: headline metrics, insights, the panel list
// and the selected panel.
type PageView struct {
	Slug     string         `json:"slug"`
	Name     string         `json:"name"`
	Heading  string         `json:"heading"`
	Path     string         `json:"path"`
	Metrics  []MetricView   `json:"metrics"`
	Insights []string       `json:"insights,omitempty"`
	Panels   []PanelSummary `json:"panels"`
	View     *View          `json:"view,omitempty"`
}

// PanelSummary lists a panel and the modes it offers.
type PanelSummary struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Modes          []ViewMode `json:"modes"`
	ScenarioToggle bool       `json:"scenarioToggle"`
}

// PageView renders the whole page in the current state.
func (ctl *Controller) PageView() (PageView, error) {
	p := ctl.page
	pv := PageView{
		Slug:     p.Slug,
		Name:     p.Name,
		Heading:  p.Heading,
		Path:     p.Path,
		Metrics:  make([]MetricView, len(p.Metrics)),
		Insights: p.Insights,
		Panels:   make([]PanelSummary, len(p.Panels)),
	}
	for i, m := range p.Metrics {
		pv.Metrics[i] = m.Render()
	}
	for i, panel := range p.Panels {
		pv.Panels[i] = PanelSummary{
			ID:             panel.ID,
			Title:          panel.Title,
			Modes:          append([]ViewMode(nil), panel.Modes...),
			ScenarioToggle: panel.ScenarioToggle,
		}
	}
	if ctl.panel != nil {
		v, err := ctl.View()
		if err != nil {
			return PageView{}, err
		}
		pv.View = &v
	}
	return pv, nil
}
