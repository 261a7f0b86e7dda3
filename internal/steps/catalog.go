package steps

import "sdlcwizard/internal/manifest"

// NewRegistryFromCatalog creates a [Registry] from a step catalog.
//
// Catalog rows define the step order, labels, prompt templates and
// dependencies. The intake step is prepended when the catalog does not start
// with it, so catalogs only need to list substantive steps.
func NewRegistryFromCatalog(c *manifest.Catalog) (*Registry, error) {
	defs := make([]Step, 0, len(c.Entries)+1)
	if len(c.Entries) == 0 || c.Entries[0].ID != IntakeID {
		defs = append(defs, Step{ID: IntakeID, Label: "Getting Started"})
	}
	for _, e := range c.Entries {
		defs = append(defs, Step{
			ID:             e.ID,
			Label:          e.Label,
			PromptTemplate: e.PromptTemplate,
			DependsOn:      e.DependsOn,
		})
	}
	return NewRegistry(defs)
}
