package field

import "github.com/mesh-intelligence/linkfield/pkg/types"

// View is what the field shows for its current state. It says which controls
// are present, not how they are drawn.
type View struct {
	// Selected is the checked type selector, "" when neither is checked.
	Selected types.LinkType `json:"selected"`

	// Internal link controls.
	ShowChooseRecord bool                  `json:"showChooseRecord"`
	Loading          bool                  `json:"loading"`
	Summary          *types.DisplaySummary `json:"summary,omitempty"`
	ShowClear        bool                  `json:"showClear"`

	// External link controls.
	ShowURLInput bool   `json:"showUrlInput"`
	URL          string `json:"url"`
	URLError     bool   `json:"urlError"`

	// ShowRemove offers removing a chosen record or an external link.
	ShowRemove bool `json:"showRemove"`

	Invalid bool `json:"invalid"`
}

// View returns the presentation state for the current value and summary.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{Selected: c.value.Kind(), Invalid: c.invalid}
	switch c.value.Kind() {
	case types.LinkTypeInternal:
		if c.value.Target() == nil {
			v.ShowChooseRecord = true
			v.ShowClear = true
			break
		}
		v.ShowRemove = true
		if c.summary == nil {
			v.Loading = true
		} else {
			s := *c.summary
			v.Summary = &s
		}
	case types.LinkTypeExternal:
		v.ShowURLInput = true
		v.URL = c.value.URL
		v.URLError = c.value.URL == ""
		v.ShowRemove = true
	}
	return v
}
