package wizard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/gosimple/slug"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadVariants reads variant definitions from a YAML or JSON file of the form:
//
//	variants:
//	  - name: quote
//	    lead_type: quote
//	    dialog: true
//	    steps:
//	      - title: Your details
//	        fields: [name, phone]
//	    preferences:
//	      - {label: Product Type, field: productType}
func LoadVariants(path string) ([]domain.Variant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variants file: %w", err)
	}
	return ParseVariants(data, filepath.Ext(path))
}

// ParseVariants decodes variant definitions; ext selects JSON (".json") or YAML (anything else).
// A variant without a name is named after the slug of its description.
func ParseVariants(data []byte, ext string) ([]domain.Variant, error) {
	var raw map[string]any
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse variants json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse variants yaml: %w", err)
		}
	}

	entries, ok := raw["variants"]
	if !ok {
		return nil, fmt.Errorf("variants file has no 'variants' key")
	}

	var variants []domain.Variant
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &variants,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(entries); err != nil {
		return nil, fmt.Errorf("invalid variant definition: %w", err)
	}

	for i := range variants {
		v := &variants[i]
		if v.Name == "" && v.Description != "" {
			v.Name = slug.Make(v.Description)
		}
		if err := ValidateVariant(*v); err != nil {
			return nil, err
		}
	}
	return variants, nil
}
