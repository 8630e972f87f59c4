// Schema catalog loading for the tapestry CLI.
package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tapestry/pkg/schema"
	"github.com/mesh-intelligence/tapestry/pkg/tapestry"
)

// catalogFile is the YAML document declaring the entity types.
type catalogFile struct {
	Types []schema.Definition `yaml:"types"`
}

// loadCatalog reads the schema catalog and registers every declared type
// on the registry. An empty path registers nothing; the server then only
// exposes /status until types are registered programmatically.
func loadCatalog(path string, reg *tapestry.Registry) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	for _, def := range catalog.Types {
		if err := reg.Register(def); err != nil {
			return fmt.Errorf("register %s: %w", def.Name, err)
		}
	}
	return nil
}
