package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultDocument []byte

//go:embed catalog.schema.json
var schemaDocument []byte

const schemaURL = "catalog.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// document is the on-disk shape of a catalog definition.
type document struct {
	Categories []CategoryInfo `yaml:"categories"`
	Recipients []string       `yaml:"recipients"`
	Templates  []Template     `yaml:"templates"`
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Load(defaultDocument)
}

// Load parses a YAML catalog definition, validates it against the catalog
// JSON Schema, and builds the Catalog.
func Load(raw []byte) (*Catalog, error) {
	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("catalog decode: %w", err)
	}

	return New(doc.Templates, doc.Categories, doc.Recipients)
}

// validateDocument round-trips the YAML through JSON so the validator sees
// the same value types encoding/json would produce.
func validateDocument(raw []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}

	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("catalog decode: %w", err)
	}
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("catalog normalize: %w", err)
	}
	var doc any
	if err := json.Unmarshal(asJSON, &doc); err != nil {
		return fmt.Errorf("catalog normalize: %w", err)
	}

	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("catalog does not match schema: %w", err)
	}
	return nil
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaDocument)); err != nil {
			schemaErr = fmt.Errorf("catalog schema load: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("catalog schema compile: %w", schemaErr)
		}
	})
	return schema, schemaErr
}
