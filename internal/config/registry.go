package config

import (
	"fmt"

	"sdlcwizard/internal/manifest"
	"sdlcwizard/internal/steps"
)

// Registry builds the step registry: the CSV catalog when StepsManifest is
// set, otherwise the built-in steps, with Steps overrides applied.
func (c *Config) Registry() (*steps.Registry, error) {
	defs := steps.DefaultSteps()
	if c.StepsManifest != "" {
		catalog, err := manifest.ReadFromFile(c.StepsManifest)
		if err != nil {
			return nil, err
		}
		reg, err := steps.NewRegistryFromCatalog(catalog)
		if err != nil {
			return nil, fmt.Errorf("invalid step catalog %s: %w", c.StepsManifest, err)
		}
		defs = reg.Steps()
	}
	if len(c.Steps) == 0 {
		return steps.NewRegistry(defs)
	}

	overrides := make(map[string]steps.Override, len(c.Steps))
	for id, o := range c.Steps {
		overrides[id] = steps.Override{Label: o.Label, PromptTemplate: o.PromptTemplate}
	}
	defs, err := steps.WithOverrides(defs, overrides)
	if err != nil {
		return nil, err
	}
	return steps.NewRegistry(defs)
}
